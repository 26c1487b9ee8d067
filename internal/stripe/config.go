package stripe

import (
	"fmt"
	"strings"
)

// Env is the environment-like key/value source the config builder reads.
// Using a plain map keeps the builder pure and trivially testable.
type Env map[string]string

// Environment variable names recognised by BuildGatewayConfig.
const (
	EnvSecretKey      = "STRIPE_SECRET_KEY"
	EnvPublishableKey = "STRIPE_PUBLISHABLE_KEY"
	EnvWebhookSecret  = "STRIPE_WEBHOOK_SECRET"
	EnvCurrency       = "STRIPE_CURRENCY"
	EnvCaptureMethod  = "STRIPE_CAPTURE_METHOD"
)

func normalizeCaptureMethod(value string) (CaptureMethod, error) {
	if value == "" {
		return "", nil
	}

	method := CaptureMethod(strings.ToLower(value))
	if method != CaptureMethodAutomatic && method != CaptureMethodManual {
		return "", NewConfigurationError(
			fmt.Sprintf("Unsupported Stripe capture method %q. Valid options are \"automatic\" or \"manual\".", value))
	}

	return method, nil
}

// BuildGatewayConfig assembles a GatewayConfig from an environment-like
// source plus optional overrides. Credentials and currency prefer the source
// value and fall back to the override; capture method and the metadata
// related settings come from overrides first since they have no required
// source. No I/O happens here and no validation beyond the capture method:
// completeness is checked when the gateway is constructed.
func BuildGatewayConfig(env Env, overrides *GatewayConfig) (GatewayConfig, error) {
	if overrides == nil {
		overrides = &GatewayConfig{}
	}

	captureMethod := overrides.CaptureMethod
	if captureMethod == "" {
		normalized, err := normalizeCaptureMethod(env[EnvCaptureMethod])
		if err != nil {
			return GatewayConfig{}, err
		}
		captureMethod = normalized
	}

	cfg := GatewayConfig{
		SecretKey:               firstNonEmpty(env[EnvSecretKey], overrides.SecretKey),
		PublishableKey:          firstNonEmpty(env[EnvPublishableKey], overrides.PublishableKey),
		WebhookSecret:           firstNonEmpty(env[EnvWebhookSecret], overrides.WebhookSecret),
		Currency:                firstNonEmpty(env[EnvCurrency], overrides.Currency),
		CaptureMethod:           captureMethod,
		Metadata:                overrides.Metadata,
		AutomaticPaymentMethods: overrides.AutomaticPaymentMethods,
		PaymentMethodTypes:      overrides.PaymentMethodTypes,
	}

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// validateConfig is the fail-fast check performed at gateway construction,
// before any network operation can be attempted.
func validateConfig(cfg GatewayConfig) error {
	if cfg.SecretKey == "" {
		return NewConfigurationError("Stripe secret key is missing")
	}
	if cfg.PublishableKey == "" {
		return NewConfigurationError("Stripe publishable key is missing")
	}
	if cfg.WebhookSecret == "" {
		return NewConfigurationError("Stripe webhook secret is missing")
	}
	if cfg.Currency == "" {
		return NewConfigurationError("Stripe currency is missing")
	}
	return nil
}
