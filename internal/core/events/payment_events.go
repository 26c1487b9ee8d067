package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypePaymentSucceeded = "payment.succeeded"
	EventTypePaymentFailed    = "payment.failed"
	EventTypePaymentCanceled  = "payment.canceled"
	EventTypePaymentRefunded  = "payment.refunded"
)

type PaymentSucceededEvent struct {
	BaseEvent
	PaymentID       int64  `json:"payment_id"`
	OrderID         string `json:"order_id"`
	PaymentIntentID string `json:"payment_intent_id"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
}

func NewPaymentSucceededEvent(paymentID int64, orderID, paymentIntentID string, amount int64, currency string) *PaymentSucceededEvent {
	return &PaymentSucceededEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentSucceeded,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"payment_id":        paymentID,
				"order_id":          orderID,
				"payment_intent_id": paymentIntentID,
				"amount":            amount,
				"currency":          currency,
			},
		},
		PaymentID:       paymentID,
		OrderID:         orderID,
		PaymentIntentID: paymentIntentID,
		Amount:          amount,
		Currency:        currency,
	}
}

type PaymentFailedEvent struct {
	BaseEvent
	PaymentID       int64  `json:"payment_id"`
	OrderID         string `json:"order_id"`
	PaymentIntentID string `json:"payment_intent_id"`
	FailureReason   string `json:"failure_reason"`
}

func NewPaymentFailedEvent(paymentID int64, orderID, paymentIntentID, failureReason string) *PaymentFailedEvent {
	return &PaymentFailedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentFailed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"payment_id":        paymentID,
				"order_id":          orderID,
				"payment_intent_id": paymentIntentID,
				"failure_reason":    failureReason,
			},
		},
		PaymentID:       paymentID,
		OrderID:         orderID,
		PaymentIntentID: paymentIntentID,
		FailureReason:   failureReason,
	}
}

type PaymentCanceledEvent struct {
	BaseEvent
	PaymentID       int64  `json:"payment_id"`
	OrderID         string `json:"order_id"`
	PaymentIntentID string `json:"payment_intent_id"`
	Reason          string `json:"reason"`
}

func NewPaymentCanceledEvent(paymentID int64, orderID, paymentIntentID, reason string) *PaymentCanceledEvent {
	return &PaymentCanceledEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentCanceled,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"payment_id":        paymentID,
				"order_id":          orderID,
				"payment_intent_id": paymentIntentID,
				"reason":            reason,
			},
		},
		PaymentID:       paymentID,
		OrderID:         orderID,
		PaymentIntentID: paymentIntentID,
		Reason:          reason,
	}
}

type PaymentRefundedEvent struct {
	BaseEvent
	PaymentID       int64  `json:"payment_id"`
	OrderID         string `json:"order_id"`
	PaymentIntentID string `json:"payment_intent_id"`
	AmountRefunded  int64  `json:"amount_refunded"`
}

func NewPaymentRefundedEvent(paymentID int64, orderID, paymentIntentID string, amountRefunded int64) *PaymentRefundedEvent {
	return &PaymentRefundedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentRefunded,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"payment_id":        paymentID,
				"order_id":          orderID,
				"payment_intent_id": paymentIntentID,
				"amount_refunded":   amountRefunded,
			},
		},
		PaymentID:       paymentID,
		OrderID:         orderID,
		PaymentIntentID: paymentIntentID,
		AmountRefunded:  amountRefunded,
	}
}
