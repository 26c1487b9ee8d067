package payment

import (
	"context"
	"encoding/json"

	paymentmodel "github.com/frahmantamala/checkout-payments/internal/core/datamodel/payment"
	"github.com/frahmantamala/checkout-payments/internal/stripe"
)

// GatewayAPI is the slice of the stripe gateway this domain consumes.
// Declared here so services can be tested against a mock gateway.
type GatewayAPI interface {
	CreatePaymentIntent(ctx context.Context, order stripe.OrderSummary, opts stripe.CreatePaymentIntentOptions) (*stripe.PaymentIntentResult, error)
	ConfirmPaymentIntent(ctx context.Context, paymentIntentID string, paymentMethodID string) (*stripe.PaymentIntentResult, error)
	CapturePaymentIntent(ctx context.Context, paymentIntentID string, amount *float64) (*stripe.CaptureResult, error)
	CancelPaymentIntent(ctx context.Context, paymentIntentID string, reason string) (*stripe.PaymentIntentResult, error)
	RefundPayment(ctx context.Context, paymentIntentID string, amount *float64, reason string) (*stripe.RefundResult, error)
	Config() stripe.GatewayConfig
}

// RepositoryAPI is the persistence contract for payment records.
type RepositoryAPI interface {
	Create(p *paymentmodel.Payment) error
	GetByOrderID(orderID string) (*paymentmodel.Payment, error)
	GetByPaymentIntentID(paymentIntentID string) (*paymentmodel.Payment, error)
	UpdateStatus(id int64, status string, gatewayResponse json.RawMessage, failureReason *string) error
	UpdateRefund(id int64, status string, amountRefunded int64, gatewayResponse json.RawMessage) error
}

// ServiceAPI is what the HTTP handlers consume.
type ServiceAPI interface {
	CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*PaymentView, error)
	ConfirmPayment(ctx context.Context, paymentIntentID, paymentMethodID string) (*PaymentView, error)
	CapturePayment(ctx context.Context, paymentIntentID string, amount *float64) (*CaptureView, error)
	CancelPayment(ctx context.Context, paymentIntentID, reason string) (*PaymentView, error)
	RefundPayment(ctx context.Context, paymentIntentID string, amount *float64, reason string) (*RefundView, error)
	GetPaymentByOrderID(orderID string) (*paymentmodel.Payment, error)
	ApplyWebhookEvent(ctx context.Context, event *stripe.WebhookEvent) (*paymentmodel.Payment, error)
}

// MapIntentStatus folds the processor's intent status into the record status
// stored locally. Unknown statuses stay pending so a later webhook can settle
// them.
func MapIntentStatus(status string) string {
	switch status {
	case "succeeded":
		return paymentmodel.StatusSucceeded
	case "processing":
		return paymentmodel.StatusProcessing
	case "requires_action", "requires_source_action":
		return paymentmodel.StatusRequiresAction
	case "requires_capture":
		return paymentmodel.StatusRequiresCapture
	case "canceled":
		return paymentmodel.StatusCanceled
	default:
		return paymentmodel.StatusPending
	}
}
