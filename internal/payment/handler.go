package payment

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	internal "github.com/frahmantamala/checkout-payments/internal"
	"github.com/frahmantamala/checkout-payments/internal/transport"
	"github.com/go-chi/chi"
)

// Handler exposes the payment lifecycle to the checkout flow.
type Handler struct {
	*transport.BaseHandler
	service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		service:     service,
	}
}

// CreatePayment starts a payment for an order summary.
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.service.CreatePayment(r.Context(), &req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, view)
}

// ConfirmPayment confirms the intent in the URL, optionally with a payment
// method collected on the client.
func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var req ConfirmRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.service.ConfirmPayment(r.Context(), chi.URLParam(r, "paymentIntentID"), req.PaymentMethodID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, view)
}

// CapturePayment captures a manually held intent, partially when an amount
// is supplied.
func (h *Handler) CapturePayment(w http.ResponseWriter, r *http.Request) {
	var req CaptureRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.service.CapturePayment(r.Context(), chi.URLParam(r, "paymentIntentID"), req.Amount)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, view)
}

// CancelPayment cancels the intent, forwarding the optional reason.
func (h *Handler) CancelPayment(w http.ResponseWriter, r *http.Request) {
	var req CancelRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.service.CancelPayment(r.Context(), chi.URLParam(r, "paymentIntentID"), req.Reason)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, view)
}

// RefundPayment refunds the intent, partially when an amount is supplied.
func (h *Handler) RefundPayment(w http.ResponseWriter, r *http.Request) {
	var req RefundRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.service.RefundPayment(r.Context(), chi.URLParam(r, "paymentIntentID"), req.Amount, req.Reason)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, view)
}

// GetPaymentByOrder returns the persisted payment record for an order.
func (h *Handler) GetPaymentByOrder(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.GetPaymentByOrderID(chi.URLParam(r, "orderID"))
	if err != nil {
		h.WriteAppError(w, internal.ErrPaymentNotFound)
		return
	}

	h.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	if appErr, ok := internal.IsAppError(err); ok {
		h.WriteAppError(w, appErr)
		return
	}
	h.WriteAppError(w, internal.MapGatewayError(err))
}

// decodeOptionalBody tolerates an empty request body.
func decodeOptionalBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
