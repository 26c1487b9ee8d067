package stripe

// CaptureMethod controls whether Stripe captures funds automatically on
// confirmation or holds them for a separate capture call.
type CaptureMethod string

const (
	CaptureMethodAutomatic CaptureMethod = "automatic"
	CaptureMethodManual    CaptureMethod = "manual"
)

// GatewayConfig holds the credentials and defaults used for every gateway
// operation. It is read-only after construction.
type GatewayConfig struct {
	// SecretKey authenticates server side requests.
	SecretKey string
	// PublishableKey is handed to the storefront so Stripe.js can initialise.
	PublishableKey string
	// WebhookSecret validates events coming back from Stripe.
	WebhookSecret string
	// Currency is the default ISO-4217 code used when the order carries none.
	Currency string
	// CaptureMethod is optional; Stripe defaults to automatic when empty.
	CaptureMethod CaptureMethod
	// Metadata is always sent alongside every payment intent.
	Metadata map[string]string
	// AutomaticPaymentMethods enables Stripe's own payment method selection.
	AutomaticPaymentMethods bool
	// PaymentMethodTypes is the explicit ordered list used when automatic
	// payment methods are disabled.
	PaymentMethodTypes []string
}

// OrderSummary is the slice of an order this layer needs to charge it. It is
// supplied by checkout flow code outside this package and never mutated here.
type OrderSummary struct {
	ID            string
	OrderNumber   string
	GrandTotal    float64 // major currency units, e.g. dollars
	Currency      string  // overrides the configured default when set
	CustomerEmail string
	CustomerName  string
	ReturnURL     string
	Description   string
	Metadata      map[string]string
}

// CreatePaymentIntentOptions tunes a single create call.
type CreatePaymentIntentOptions struct {
	PaymentMethodID string
	// Confirm is forwarded only when set explicitly.
	Confirm *bool
	// IdempotencyKey makes a retried request a single logical operation.
	IdempotencyKey string
	// CaptureMethod overrides the configured default for this intent.
	CaptureMethod CaptureMethod
}

// PaymentIntentResult is the normalized projection of a payment intent
// response. Raw keeps the untyped body for forward compatibility.
type PaymentIntentResult struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64 // minor units
	Currency     string
	// RequiresAction is true exactly when the customer must complete an
	// out-of-band step (3DS challenge, redirect) before the intent proceeds.
	RequiresAction bool
	NextAction     string
	Raw            map[string]any
}

// CaptureResult is the normalized projection of a capture response.
type CaptureResult struct {
	ID             string
	Status         string
	AmountCaptured int64 // minor units
	Raw            map[string]any
}

// RefundResult is the normalized projection of a refund response.
type RefundResult struct {
	ID             string
	Status         string
	AmountRefunded int64 // minor units
	Raw            map[string]any
}

// WebhookEvent is a parsed Stripe event notification.
type WebhookEvent struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Data       map[string]any `json:"data"`
	APIVersion string         `json:"api_version,omitempty"`
	Created    int64          `json:"created"`
}

// WebhookValidationResult reports the outcome of webhook verification.
// Rejections carry a machine-readable reason instead of raising an error so
// attacker-controlled payloads can never destabilise the receiving service.
type WebhookValidationResult struct {
	Valid  bool
	Event  *WebhookEvent
	Reason string
}
