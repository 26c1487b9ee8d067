package payment

import (
	"io"
	"log/slog"
	"net/http"

	paymentmodel "github.com/frahmantamala/checkout-payments/internal/core/datamodel/payment"
	"github.com/frahmantamala/checkout-payments/internal/core/events"
	"github.com/frahmantamala/checkout-payments/internal/stripe"
	"github.com/frahmantamala/checkout-payments/internal/transport"
)

// maxWebhookBodyBytes caps how much unauthenticated input is read before the
// signature has been checked.
const maxWebhookBodyBytes = 1 << 20

// WebhookHandler receives Stripe event notifications, verifies their
// signature and applies the resulting status transitions.
type WebhookHandler struct {
	*transport.BaseHandler
	paymentService ServiceAPI
	config         stripe.GatewayConfig
	eventBus       *events.EventBus
	logger         *slog.Logger
	verifyOpts     []stripe.VerifyOption
}

func NewWebhookHandler(baseHandler *transport.BaseHandler, paymentService ServiceAPI, config stripe.GatewayConfig, eventBus *events.EventBus, logger *slog.Logger, verifyOpts ...stripe.VerifyOption) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler:    baseHandler,
		paymentService: paymentService,
		config:         config,
		eventBus:       eventBus,
		logger:         logger,
		verifyOpts:     verifyOpts,
	}
}

func (h *WebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
	if err != nil {
		h.logger.Warn("failed to read webhook body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "unable to read request body")
		return
	}

	result, err := stripe.ValidateWebhookEvent(body, r.Header.Get("Stripe-Signature"), h.config, h.verifyOpts...)
	if err != nil {
		// only raised when the signature could not be computed at all
		h.logger.Error("webhook signature computation failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "unable to verify webhook")
		return
	}

	if !result.Valid {
		h.logger.Warn("rejected webhook event", "reason", result.Reason)
		h.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": result.Reason})
		return
	}

	h.logger.Info("received webhook event",
		"event_id", result.Event.ID,
		"event_type", result.Event.Type)

	record, err := h.paymentService.ApplyWebhookEvent(r.Context(), result.Event)
	if err != nil {
		// non-2xx makes Stripe retry the delivery later
		h.logger.Error("failed to process webhook event",
			"error", err,
			"event_id", result.Event.ID,
			"event_type", result.Event.Type)
		h.WriteError(w, http.StatusInternalServerError, "failed to process event")
		return
	}

	h.publishTransition(r, record)

	h.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (h *WebhookHandler) publishTransition(r *http.Request, record *paymentmodel.Payment) {
	var event events.Event

	switch record.Status {
	case paymentmodel.StatusSucceeded:
		event = events.NewPaymentSucceededEvent(record.ID, record.OrderID, record.PaymentIntentID, record.Amount, record.Currency)
	case paymentmodel.StatusFailed:
		reason := ""
		if record.FailureReason != nil {
			reason = *record.FailureReason
		}
		event = events.NewPaymentFailedEvent(record.ID, record.OrderID, record.PaymentIntentID, reason)
	case paymentmodel.StatusCanceled:
		event = events.NewPaymentCanceledEvent(record.ID, record.OrderID, record.PaymentIntentID, "")
	case paymentmodel.StatusRefunded:
		event = events.NewPaymentRefundedEvent(record.ID, record.OrderID, record.PaymentIntentID, record.AmountRefunded)
	default:
		return
	}

	h.eventBus.Publish(r.Context(), event)
	h.logger.Info("published payment event",
		"event_id", event.EventID(),
		"event_type", event.EventType(),
		"payment_id", record.ID)
}
