package stripe

import "fmt"

// GatewayError reports a precondition enforced by this layer, such as
// attempting to charge a non-positive amount.
type GatewayError struct {
	Message string
	Cause   error
}

func (e *GatewayError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *GatewayError) Unwrap() error {
	return e.Cause
}

func NewGatewayError(message string) *GatewayError {
	return &GatewayError{Message: message}
}

// ConfigurationError means a required credential or setting is missing or
// unrecognized. It is always raised before any network call is attempted.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

func NewConfigurationError(message string) *ConfigurationError {
	return &ConfigurationError{Message: message}
}

// RequestError means Stripe rejected an HTTP call. It carries the HTTP
// status, Stripe's error type, the request correlation id when present and
// the raw error body for logging. It is never retried by this layer.
type RequestError struct {
	Message   string
	Status    int
	Type      string
	RequestID string
	RawBody   map[string]any
}

func (e *RequestError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("stripe request failed: %s (status=%d type=%s request_id=%s)", e.Message, e.Status, e.Type, e.RequestID)
	}
	return fmt.Sprintf("stripe request failed: %s (status=%d type=%s)", e.Message, e.Status, e.Type)
}

// SignatureVerificationError means the runtime could not compute a webhook
// signature at all. Validation failures on inbound payloads are reported as
// data on WebhookValidationResult, never as errors.
type SignatureVerificationError struct {
	Message string
	Cause   error
}

func (e *SignatureVerificationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *SignatureVerificationError) Unwrap() error {
	return e.Cause
}
