package payment

import (
	"github.com/frahmantamala/checkout-payments/internal/core/common/validation"
	"github.com/frahmantamala/checkout-payments/internal/stripe"
)

// CreatePaymentRequest is the order summary the checkout flow posts to start
// a payment. Amounts are major currency units.
type CreatePaymentRequest struct {
	OrderID         string            `json:"order_id"`
	OrderNumber     string            `json:"order_number,omitempty"`
	GrandTotal      float64           `json:"grand_total"`
	Currency        string            `json:"currency,omitempty"`
	CustomerEmail   string            `json:"customer_email,omitempty"`
	CustomerName    string            `json:"customer_name,omitempty"`
	ReturnURL       string            `json:"return_url,omitempty"`
	Description     string            `json:"description,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	PaymentMethodID string            `json:"payment_method_id,omitempty"`
	Confirm         *bool             `json:"confirm,omitempty"`
	IdempotencyKey  string            `json:"idempotency_key,omitempty"`
}

func (r *CreatePaymentRequest) Validate() error {
	validator := validation.NewValidator()

	validator.Field("order_id", r.OrderID).Required()
	validator.Field("grand_total", r.GrandTotal).Required().PositiveAmount()
	validator.Field("currency", r.Currency).CurrencyCode()
	validator.Field("description", r.Description).MaxLength(500)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// OrderSummary converts the request into the gateway's input value.
func (r *CreatePaymentRequest) OrderSummary() stripe.OrderSummary {
	return stripe.OrderSummary{
		ID:            r.OrderID,
		OrderNumber:   r.OrderNumber,
		GrandTotal:    r.GrandTotal,
		Currency:      r.Currency,
		CustomerEmail: r.CustomerEmail,
		CustomerName:  r.CustomerName,
		ReturnURL:     r.ReturnURL,
		Description:   r.Description,
		Metadata:      r.Metadata,
	}
}

// PaymentView is the normalized result returned to the checkout flow.
type PaymentView struct {
	PaymentIntentID string `json:"payment_intent_id"`
	ClientSecret    string `json:"client_secret,omitempty"`
	Status          string `json:"status"`
	Amount          int64  `json:"amount"` // minor units
	Currency        string `json:"currency"`
	RequiresAction  bool   `json:"requires_action"`
	NextAction      string `json:"next_action,omitempty"`
}

type CaptureView struct {
	PaymentIntentID string `json:"payment_intent_id"`
	Status          string `json:"status"`
	AmountCaptured  int64  `json:"amount_captured"` // minor units
}

type RefundView struct {
	RefundID       string `json:"refund_id"`
	PaymentIntent  string `json:"payment_intent_id"`
	Status         string `json:"status"`
	AmountRefunded int64  `json:"amount_refunded"` // minor units
}

// CaptureRequest and the siblings below shape the lifecycle endpoints.
type CaptureRequest struct {
	Amount *float64 `json:"amount,omitempty"` // major units; nil captures in full
}

type ConfirmRequest struct {
	PaymentMethodID string `json:"payment_method_id,omitempty"`
}

type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

type RefundRequest struct {
	Amount *float64 `json:"amount,omitempty"` // major units; nil refunds in full
	Reason string   `json:"reason,omitempty"`
}

func intentView(result *stripe.PaymentIntentResult) *PaymentView {
	return &PaymentView{
		PaymentIntentID: result.ID,
		ClientSecret:    result.ClientSecret,
		Status:          result.Status,
		Amount:          result.Amount,
		Currency:        result.Currency,
		RequiresAction:  result.RequiresAction,
		NextAction:      result.NextAction,
	}
}
