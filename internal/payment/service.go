package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	paymentmodel "github.com/frahmantamala/checkout-payments/internal/core/datamodel/payment"
	"github.com/frahmantamala/checkout-payments/internal/stripe"
	"github.com/google/uuid"
)

// PaymentService drives the gateway and records every lifecycle transition.
// The gateway owns protocol concerns; this service owns persistence and is
// the only writer of payment records.
type PaymentService struct {
	gateway    GatewayAPI
	repository RepositoryAPI
	logger     *slog.Logger
}

func NewPaymentService(gateway GatewayAPI, repository RepositoryAPI, logger *slog.Logger) *PaymentService {
	return &PaymentService{
		gateway:    gateway,
		repository: repository,
		logger:     logger,
	}
}

// CreatePayment creates a payment intent for the order and persists the
// record. A missing idempotency key gets a generated one so caller retries
// of the same request body stay safe.
func (s *PaymentService) CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*PaymentView, error) {
	if err := req.Validate(); err != nil {
		s.logger.Error("create payment validation failed", "error", err, "order_id", req.OrderID)
		return nil, err
	}

	idempotencyKey := req.IdempotencyKey
	if idempotencyKey == "" {
		idempotencyKey = uuid.New().String()
	}

	result, err := s.gateway.CreatePaymentIntent(ctx, req.OrderSummary(), stripe.CreatePaymentIntentOptions{
		PaymentMethodID: req.PaymentMethodID,
		Confirm:         req.Confirm,
		IdempotencyKey:  idempotencyKey,
	})
	if err != nil {
		s.logger.Error("payment intent creation failed", "error", err, "order_id", req.OrderID)
		return nil, err
	}

	record := &paymentmodel.Payment{
		OrderID:         req.OrderID,
		OrderNumber:     req.OrderNumber,
		PaymentIntentID: result.ID,
		ClientSecret:    result.ClientSecret,
		Status:          MapIntentStatus(result.Status),
		Amount:          result.Amount,
		Currency:        result.Currency,
		GatewayResponse: rawJSON(result.Raw),
	}

	if err := s.repository.Create(record); err != nil {
		// the intent exists at Stripe; surface the persistence failure so
		// the caller can reconcile instead of silently losing the record
		s.logger.Error("failed to persist payment record",
			"error", err,
			"order_id", req.OrderID,
			"payment_intent_id", result.ID)
		return nil, fmt.Errorf("failed to persist payment record: %w", err)
	}

	s.logger.Info("payment intent created",
		"order_id", req.OrderID,
		"payment_intent_id", result.ID,
		"amount", result.Amount,
		"currency", result.Currency,
		"status", result.Status)

	return intentView(result), nil
}

// ConfirmPayment confirms the intent and records the resulting status.
func (s *PaymentService) ConfirmPayment(ctx context.Context, paymentIntentID, paymentMethodID string) (*PaymentView, error) {
	result, err := s.gateway.ConfirmPaymentIntent(ctx, paymentIntentID, paymentMethodID)
	if err != nil {
		s.logger.Error("payment intent confirmation failed", "error", err, "payment_intent_id", paymentIntentID)
		return nil, err
	}

	s.recordStatus(paymentIntentID, MapIntentStatus(result.Status), result.Raw, nil)

	return intentView(result), nil
}

// CapturePayment captures a manually held intent, in full when amount is nil.
func (s *PaymentService) CapturePayment(ctx context.Context, paymentIntentID string, amount *float64) (*CaptureView, error) {
	result, err := s.gateway.CapturePaymentIntent(ctx, paymentIntentID, amount)
	if err != nil {
		s.logger.Error("payment intent capture failed", "error", err, "payment_intent_id", paymentIntentID)
		return nil, err
	}

	s.recordStatus(paymentIntentID, MapIntentStatus(result.Status), result.Raw, nil)

	return &CaptureView{
		PaymentIntentID: result.ID,
		Status:          result.Status,
		AmountCaptured:  result.AmountCaptured,
	}, nil
}

// CancelPayment cancels the intent, forwarding the reason verbatim.
func (s *PaymentService) CancelPayment(ctx context.Context, paymentIntentID, reason string) (*PaymentView, error) {
	result, err := s.gateway.CancelPaymentIntent(ctx, paymentIntentID, reason)
	if err != nil {
		s.logger.Error("payment intent cancellation failed", "error", err, "payment_intent_id", paymentIntentID)
		return nil, err
	}

	s.recordStatus(paymentIntentID, MapIntentStatus(result.Status), result.Raw, nil)

	return intentView(result), nil
}

// RefundPayment refunds the intent, in full when amount is nil.
func (s *PaymentService) RefundPayment(ctx context.Context, paymentIntentID string, amount *float64, reason string) (*RefundView, error) {
	result, err := s.gateway.RefundPayment(ctx, paymentIntentID, amount, reason)
	if err != nil {
		s.logger.Error("refund failed", "error", err, "payment_intent_id", paymentIntentID)
		return nil, err
	}

	if record, repoErr := s.repository.GetByPaymentIntentID(paymentIntentID); repoErr == nil {
		status := record.Status
		if result.Status == "succeeded" {
			status = paymentmodel.StatusRefunded
		}
		if err := s.repository.UpdateRefund(record.ID, status, result.AmountRefunded, rawJSON(result.Raw)); err != nil {
			s.logger.Error("failed to record refund", "error", err, "payment_id", record.ID)
		}
	} else {
		s.logger.Warn("refund issued for unknown payment record", "payment_intent_id", paymentIntentID)
	}

	s.logger.Info("refund issued",
		"payment_intent_id", paymentIntentID,
		"refund_id", result.ID,
		"amount_refunded", result.AmountRefunded,
		"status", result.Status)

	return &RefundView{
		RefundID:       result.ID,
		PaymentIntent:  paymentIntentID,
		Status:         result.Status,
		AmountRefunded: result.AmountRefunded,
	}, nil
}

func (s *PaymentService) GetPaymentByOrderID(orderID string) (*paymentmodel.Payment, error) {
	return s.repository.GetByOrderID(orderID)
}

// ApplyWebhookEvent folds a verified Stripe event into the matching payment
// record and returns the updated record. Events for unknown intents are an
// error; Stripe retries them until the record exists.
func (s *PaymentService) ApplyWebhookEvent(ctx context.Context, event *stripe.WebhookEvent) (*paymentmodel.Payment, error) {
	object, _ := event.Data["object"].(map[string]any)
	if object == nil {
		return nil, fmt.Errorf("event %s has no data object", event.ID)
	}

	paymentIntentID := webhookPaymentIntentID(event.Type, object)
	if paymentIntentID == "" {
		return nil, fmt.Errorf("event %s (%s) carries no payment intent id", event.ID, event.Type)
	}

	record, err := s.repository.GetByPaymentIntentID(paymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("payment record not found for intent %s: %w", paymentIntentID, err)
	}

	var status string
	var failureReason *string

	switch event.Type {
	case "payment_intent.succeeded":
		status = paymentmodel.StatusSucceeded
	case "payment_intent.payment_failed":
		status = paymentmodel.StatusFailed
		if reason := lastPaymentErrorMessage(object); reason != "" {
			failureReason = &reason
		}
	case "payment_intent.canceled":
		status = paymentmodel.StatusCanceled
	case "payment_intent.amount_capturable_updated":
		status = paymentmodel.StatusRequiresCapture
	case "payment_intent.requires_action":
		status = paymentmodel.StatusRequiresAction
	case "charge.refunded":
		status = paymentmodel.StatusRefunded
	default:
		s.logger.Debug("ignoring webhook event type", "event_type", event.Type, "event_id", event.ID)
		return record, nil
	}

	if err := s.repository.UpdateStatus(record.ID, status, rawJSON(object), failureReason); err != nil {
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}

	s.logger.Info("payment status updated from webhook",
		"payment_id", record.ID,
		"payment_intent_id", paymentIntentID,
		"event_type", event.Type,
		"old_status", record.Status,
		"new_status", status)

	record.Status = status
	record.FailureReason = failureReason
	return record, nil
}

func (s *PaymentService) recordStatus(paymentIntentID, status string, raw map[string]any, failureReason *string) {
	record, err := s.repository.GetByPaymentIntentID(paymentIntentID)
	if err != nil {
		s.logger.Warn("no payment record for intent", "payment_intent_id", paymentIntentID)
		return
	}

	if err := s.repository.UpdateStatus(record.ID, status, rawJSON(raw), failureReason); err != nil {
		s.logger.Error("failed to update payment status",
			"error", err,
			"payment_id", record.ID,
			"status", status)
	}
}

// webhookPaymentIntentID digs the intent id out of the event object; charge
// events reference it indirectly.
func webhookPaymentIntentID(eventType string, object map[string]any) string {
	if eventType == "charge.refunded" {
		if id, ok := object["payment_intent"].(string); ok {
			return id
		}
		return ""
	}
	if id, ok := object["id"].(string); ok {
		return id
	}
	return ""
}

func lastPaymentErrorMessage(object map[string]any) string {
	lastErr, ok := object["last_payment_error"].(map[string]any)
	if !ok {
		return ""
	}
	message, _ := lastErr["message"].(string)
	return message
}

func rawJSON(m map[string]any) json.RawMessage {
	if m == nil {
		return nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return data
}
