package rest

import (
	"database/sql"
	"log/slog"

	"github.com/frahmantamala/checkout-payments/internal/payment"
	"github.com/frahmantamala/checkout-payments/internal/transport/middleware"
	"github.com/go-chi/chi"
)

// RegisterAllRoutes mounts the payment lifecycle, the Stripe webhook and the
// health endpoints. Order data itself lives with the checkout application;
// this service only exposes payment state.
func RegisterAllRoutes(router *chi.Mux, db *sql.DB, paymentHandler *payment.Handler, webhookHandler *payment.WebhookHandler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if webhookHandler != nil {
			r.Post("/stripe/webhook", webhookHandler.HandleStripeWebhook)
		}

		if paymentHandler != nil {
			r.Route("/payments", func(pr chi.Router) {
				pr.Post("/", paymentHandler.CreatePayment)
				pr.Post("/{paymentIntentID}/confirm", paymentHandler.ConfirmPayment)
				pr.Post("/{paymentIntentID}/capture", paymentHandler.CapturePayment)
				pr.Post("/{paymentIntentID}/cancel", paymentHandler.CancelPayment)
				pr.Post("/{paymentIntentID}/refund", paymentHandler.RefundPayment)
			})

			r.Get("/orders/{orderID}/payment", paymentHandler.GetPaymentByOrder)
		}
	})
}
