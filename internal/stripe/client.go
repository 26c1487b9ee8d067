package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// apiBaseURL is the default Stripe API base URL, overridable in tests via
// ClientConfig.BaseURL.
const apiBaseURL = "https://api.stripe.com/v1"

const defaultRequestTimeout = 30 * time.Second

// RequestOptions shapes a single call to the Stripe API.
type RequestOptions struct {
	// Method defaults to POST.
	Method string
	// Body is a form-encoded parameter set. RawBody takes precedence when
	// both are set.
	Body *Params
	// RawBody sends a pre-encoded payload verbatim without a content type.
	RawBody string
	// IdempotencyKey lets Stripe treat a retried request with the same key
	// as one logical operation.
	IdempotencyKey string
}

// ClientConfig holds the settings for creating a Client.
type ClientConfig struct {
	SecretKey string
	BaseURL   string // override for testing; defaults to apiBaseURL
	Timeout   time.Duration
}

// Client performs the authenticated request/response cycle against Stripe.
// It is stateless between calls: exactly one outbound HTTP call per
// invocation and no internal retries. Retry policy, including reusing the
// idempotency key, belongs to the caller.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = apiBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		secretKey:  cfg.SecretKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Request sends one call to Stripe and returns the parsed JSON body. Non-2xx
// responses become a *RequestError carrying Stripe's structured error object.
func (c *Client) Request(ctx context.Context, path string, opts RequestOptions) (map[string]any, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodPost
	}

	var bodyReader io.Reader
	isForm := false
	switch {
	case opts.RawBody != "":
		bodyReader = strings.NewReader(opts.RawBody)
	case opts.Body != nil:
		bodyReader = strings.NewReader(opts.Body.Encode())
		isForm = true
	}

	url := c.baseURL + path
	httpReq, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create stripe request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)
	if isForm {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if opts.IdempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", opts.IdempotencyKey)
	}

	c.logger.Debug("sending stripe request", "method", method, "path", path)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("stripe request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read stripe response: %w", err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil, fmt.Errorf("failed to decode stripe response: %w", err)
		}
		// error bodies stay usable even when they are not valid JSON
		parsed = nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errType, errMessage := extractErrorDetails(parsed)
		reqErr := &RequestError{
			Message:   errMessage,
			Status:    resp.StatusCode,
			Type:      errType,
			RequestID: resp.Header.Get("Request-Id"),
			RawBody:   parsed,
		}
		c.logger.Error("stripe rejected request",
			"path", path,
			"status", resp.StatusCode,
			"error_type", errType,
			"request_id", reqErr.RequestID)
		return nil, reqErr
	}

	return parsed, nil
}

// extractErrorDetails reads Stripe's {error:{type,message}} object
// defensively; both fields are optional.
func extractErrorDetails(body map[string]any) (errType, message string) {
	errType = "unknown_error"
	message = "Unknown Stripe error"

	errObj, ok := body["error"].(map[string]any)
	if !ok {
		return errType, message
	}

	if t, ok := errObj["type"].(string); ok && t != "" {
		errType = t
	}
	if m, ok := errObj["message"].(string); ok && m != "" {
		message = m
	}
	return errType, message
}
