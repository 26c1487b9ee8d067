package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// DefaultToleranceSeconds bounds the replay window: events whose signing
// timestamp is further than this from the verifier's clock are rejected.
const DefaultToleranceSeconds = 300

// Machine-readable rejection reasons carried on WebhookValidationResult.
const (
	ReasonInvalidSignatureHeader = "invalid-signature-header"
	ReasonTimestampOutOfRange    = "timestamp-out-of-range"
	ReasonSignatureMismatch      = "signature-mismatch"
	ReasonInvalidPayload         = "invalid-payload"
)

// SignatureFunc computes the lowercase hex HMAC-SHA256 of signedPayload
// keyed with secret. Injected so the verifier can be exercised with a
// deterministic stub instead of reading a hashing primitive from ambient
// state.
type SignatureFunc func(secret, signedPayload string) (string, error)

// ComputeSignature is the production SignatureFunc.
func ComputeSignature(secret, signedPayload string) (string, error) {
	mac := hmac.New(sha256.New, []byte(secret))
	if _, err := mac.Write([]byte(signedPayload)); err != nil {
		return "", &SignatureVerificationError{Message: "unable to compute webhook signature", Cause: err}
	}
	return hex.EncodeToString(mac.Sum(nil)), nil
}

type verifyOptions struct {
	tolerance time.Duration
	now       func() time.Time
	sign      SignatureFunc
}

type VerifyOption func(*verifyOptions)

// WithTolerance overrides the replay window.
func WithTolerance(tolerance time.Duration) VerifyOption {
	return func(o *verifyOptions) {
		o.tolerance = tolerance
	}
}

// WithClock overrides the wall clock used for the replay check.
func WithClock(now func() time.Time) VerifyOption {
	return func(o *verifyOptions) {
		o.now = now
	}
}

// WithSignatureFunc overrides the HMAC computation.
func WithSignatureFunc(sign SignatureFunc) VerifyOption {
	return func(o *verifyOptions) {
		o.sign = sign
	}
}

type signatureParts struct {
	timestamp  int64
	signatures []string
}

// parseSignatureHeader splits a Stripe-Signature header into its timestamp
// and every v1 candidate. Stripe sends multiple v1 entries while rotating
// signing secrets.
func parseSignatureHeader(header string) *signatureParts {
	if header == "" {
		return nil
	}

	parts := signatureParts{timestamp: -1}
	for _, segment := range strings.Split(header, ",") {
		segment = strings.TrimSpace(segment)
		switch {
		case strings.HasPrefix(segment, "t="):
			ts, err := strconv.ParseInt(strings.TrimPrefix(segment, "t="), 10, 64)
			if err != nil {
				return nil
			}
			parts.timestamp = ts
		case strings.HasPrefix(segment, "v1="):
			candidate := strings.TrimSpace(strings.TrimPrefix(segment, "v1="))
			if candidate != "" {
				parts.signatures = append(parts.signatures, candidate)
			}
		}
	}

	if parts.timestamp < 0 || len(parts.signatures) == 0 {
		return nil
	}

	return &parts
}

func safeCompare(expected, actual string) bool {
	if len(expected) != len(actual) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(actual)) == 1
}

// ValidateWebhookEvent verifies an inbound Stripe event against the
// configured webhook secret. It is pure and stateless: the outcome is fully
// determined by (payload, header, secret, now, tolerance).
//
// Signature and timestamp checks run before JSON parsing on purpose, so no
// work is spent on unauthenticated, unbounded or stale input. The only error
// return is a *SignatureVerificationError when the signature cannot be
// computed at all; every payload-level failure comes back as a rejection
// reason on the result.
func ValidateWebhookEvent(payload []byte, signatureHeader string, config GatewayConfig, opts ...VerifyOption) (WebhookValidationResult, error) {
	options := verifyOptions{
		tolerance: DefaultToleranceSeconds * time.Second,
		now:       time.Now,
		sign:      ComputeSignature,
	}
	for _, opt := range opts {
		opt(&options)
	}

	body := string(payload)

	parsed := parseSignatureHeader(signatureHeader)
	if parsed == nil {
		return WebhookValidationResult{Valid: false, Reason: ReasonInvalidSignatureHeader}, nil
	}

	now := options.now().Unix()
	skew := now - parsed.timestamp
	if skew < 0 {
		skew = -skew
	}
	if skew > int64(options.tolerance/time.Second) {
		return WebhookValidationResult{Valid: false, Reason: ReasonTimestampOutOfRange}, nil
	}

	signedPayload := strconv.FormatInt(parsed.timestamp, 10) + "." + body
	expected, err := options.sign(config.WebhookSecret, signedPayload)
	if err != nil {
		return WebhookValidationResult{}, err
	}

	match := false
	for _, candidate := range parsed.signatures {
		if safeCompare(candidate, expected) {
			match = true
			break
		}
	}
	if !match {
		return WebhookValidationResult{Valid: false, Reason: ReasonSignatureMismatch}, nil
	}

	// a valid signature does not imply well-formed JSON
	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return WebhookValidationResult{Valid: false, Reason: ReasonInvalidPayload}, nil
	}

	return WebhookValidationResult{Valid: true, Event: &event}, nil
}
