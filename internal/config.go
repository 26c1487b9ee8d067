package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/checkout-payments/internal/stripe"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Stripe        StripeConfig        `mapstructure:"stripe"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"required,min=1m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" validate:"required,min=1m"`
	Source          string        `mapstructure:"source"`
}

// StripeConfig is the file/env facing shape of the gateway settings. The
// credentials stay in the environment; the file only carries defaults.
type StripeConfig struct {
	SecretKey               string            `mapstructure:"secret_key"`
	PublishableKey          string            `mapstructure:"publishable_key"`
	WebhookSecret           string            `mapstructure:"webhook_secret"`
	Currency                string            `mapstructure:"currency"`
	CaptureMethod           string            `mapstructure:"capture_method"`
	AutomaticPaymentMethods bool              `mapstructure:"automatic_payment_methods"`
	PaymentMethodTypes      []string          `mapstructure:"payment_method_types"`
	DefaultMetadata         map[string]string `mapstructure:"default_metadata"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// GatewayConfig builds the stripe.GatewayConfig through the pure config
// builder: process environment first, file values as overrides.
func (c *StripeConfig) GatewayConfig() (stripe.GatewayConfig, error) {
	env := stripe.Env{
		stripe.EnvSecretKey:      os.Getenv(stripe.EnvSecretKey),
		stripe.EnvPublishableKey: os.Getenv(stripe.EnvPublishableKey),
		stripe.EnvWebhookSecret:  os.Getenv(stripe.EnvWebhookSecret),
		stripe.EnvCurrency:       os.Getenv(stripe.EnvCurrency),
		stripe.EnvCaptureMethod:  os.Getenv(stripe.EnvCaptureMethod),
	}

	captureMethod, err := normalizedCaptureMethod(c.CaptureMethod)
	if err != nil {
		return stripe.GatewayConfig{}, err
	}

	overrides := &stripe.GatewayConfig{
		SecretKey:               c.SecretKey,
		PublishableKey:          c.PublishableKey,
		WebhookSecret:           c.WebhookSecret,
		Currency:                c.Currency,
		CaptureMethod:           captureMethod,
		Metadata:                c.DefaultMetadata,
		AutomaticPaymentMethods: c.AutomaticPaymentMethods,
		PaymentMethodTypes:      c.PaymentMethodTypes,
	}

	return stripe.BuildGatewayConfig(env, overrides)
}

func normalizedCaptureMethod(value string) (stripe.CaptureMethod, error) {
	switch strings.ToLower(value) {
	case "":
		return "", nil
	case string(stripe.CaptureMethodAutomatic):
		return stripe.CaptureMethodAutomatic, nil
	case string(stripe.CaptureMethodManual):
		return stripe.CaptureMethodManual, nil
	default:
		return "", fmt.Errorf("unsupported capture method %q", value)
	}
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

// LoadConfigFromEnv builds the whole config from environment variables, used
// for container deployments where no config file is mounted.
func LoadConfigFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              getEnvAsInt("SERVER_PORT", 8080),
			BaseURL:           getEnv("SERVER_BASE_URL", "http://localhost:8080"),
			AllowedOrigins:    getEnv("SERVER_ALLOWED_ORIGINS", "*"),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
			Source:          getEnv("DATABASE_URL", ""),
		},
		Stripe: StripeConfig{
			Currency:                getEnv("STRIPE_CURRENCY", "usd"),
			CaptureMethod:           getEnv("STRIPE_CAPTURE_METHOD", ""),
			AutomaticPaymentMethods: getEnvAsBool("STRIPE_AUTOMATIC_PAYMENT_METHODS", true),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
	}
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if _, err := c.Stripe.GatewayConfig(); err != nil {
		errs = append(errs, fmt.Sprintf("stripe config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}
