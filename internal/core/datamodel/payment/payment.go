package payment

import (
	"encoding/json"
	"time"
)

// Statuses mirror the processor's payment intent lifecycle as observed via
// API responses and webhooks. This service records them; it does not own the
// state machine.
const (
	StatusPending         = "pending"
	StatusRequiresAction  = "requires_action"
	StatusProcessing      = "processing"
	StatusRequiresCapture = "requires_capture"
	StatusSucceeded       = "succeeded"
	StatusCanceled        = "canceled"
	StatusRefunded        = "refunded"
	StatusFailed          = "failed"
)

// Payment is the persisted record of one payment intent for one order.
type Payment struct {
	ID              int64           `gorm:"primaryKey" json:"id"`
	OrderID         string          `gorm:"column:order_id;index" json:"order_id"`
	OrderNumber     string          `gorm:"column:order_number" json:"order_number,omitempty"`
	PaymentIntentID string          `gorm:"column:payment_intent_id;uniqueIndex" json:"payment_intent_id"`
	ClientSecret    string          `gorm:"column:client_secret" json:"-"`
	Status          string          `gorm:"column:status" json:"status"`
	Amount          int64           `gorm:"column:amount" json:"amount"` // minor units
	Currency        string          `gorm:"column:currency" json:"currency"`
	AmountRefunded  int64           `gorm:"column:amount_refunded" json:"amount_refunded"`
	GatewayResponse json.RawMessage `gorm:"column:gateway_response;type:jsonb" json:"-"`
	FailureReason   *string         `gorm:"column:failure_reason" json:"failure_reason,omitempty"`
	ProcessedAt     *time.Time      `gorm:"column:processed_at" json:"processed_at,omitempty"`
	CreatedAt       time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}

// IsTerminal reports whether no further lifecycle transition is expected.
func (p *Payment) IsTerminal() bool {
	switch p.Status {
	case StatusSucceeded, StatusCanceled, StatusRefunded, StatusFailed:
		return true
	}
	return false
}
