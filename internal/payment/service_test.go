package payment_test

import (
	"context"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	internal "github.com/frahmantamala/checkout-payments/internal"
	paymentmodel "github.com/frahmantamala/checkout-payments/internal/core/datamodel/payment"
	"github.com/frahmantamala/checkout-payments/internal/payment"
	"github.com/frahmantamala/checkout-payments/internal/stripe"
)

var _ = Describe("MapIntentStatus", func() {
	DescribeTable("folds gateway statuses into record statuses",
		func(intentStatus, want string) {
			Expect(payment.MapIntentStatus(intentStatus)).To(Equal(want))
		},
		Entry("succeeded", "succeeded", paymentmodel.StatusSucceeded),
		Entry("processing", "processing", paymentmodel.StatusProcessing),
		Entry("requires_action", "requires_action", paymentmodel.StatusRequiresAction),
		Entry("requires_source_action", "requires_source_action", paymentmodel.StatusRequiresAction),
		Entry("requires_capture", "requires_capture", paymentmodel.StatusRequiresCapture),
		Entry("canceled", "canceled", paymentmodel.StatusCanceled),
		Entry("requires_payment_method stays pending", "requires_payment_method", paymentmodel.StatusPending),
		Entry("unknown stays pending", "unknown", paymentmodel.StatusPending),
	)
})

var _ = Describe("PaymentService", func() {
	var (
		gateway *mockGateway
		repo    *mockRepository
		service *payment.PaymentService
		ctx     context.Context
	)

	BeforeEach(func() {
		gateway = &mockGateway{}
		repo = newMockRepository()
		service = payment.NewPaymentService(gateway, repo, slog.Default())
		ctx = context.Background()
	})

	Describe("CreatePayment", func() {
		validRequest := func() *payment.CreatePaymentRequest {
			return &payment.CreatePaymentRequest{
				OrderID:    "o1",
				GrandTotal: 49.99,
				Currency:   "usd",
			}
		}

		BeforeEach(func() {
			gateway.createResult = &stripe.PaymentIntentResult{
				ID:           "pi_1",
				ClientSecret: "secret",
				Status:       "requires_payment_method",
				Amount:       4999,
				Currency:     "usd",
				Raw:          map[string]any{"id": "pi_1"},
			}
		})

		It("creates the intent and persists the record", func() {
			view, err := service.CreatePayment(ctx, validRequest())

			Expect(err).ToNot(HaveOccurred())
			Expect(view.PaymentIntentID).To(Equal("pi_1"))
			Expect(view.ClientSecret).To(Equal("secret"))
			Expect(view.Status).To(Equal("requires_payment_method"))
			Expect(view.Amount).To(Equal(int64(4999)))
			Expect(view.RequiresAction).To(BeFalse())

			Expect(repo.created).To(HaveLen(1))
			record := repo.created[0]
			Expect(record.OrderID).To(Equal("o1"))
			Expect(record.PaymentIntentID).To(Equal("pi_1"))
			Expect(record.Status).To(Equal(paymentmodel.StatusPending))
			Expect(record.Amount).To(Equal(int64(4999)))
			Expect(record.GatewayResponse).ToNot(BeEmpty())
		})

		It("generates an idempotency key when the request carries none", func() {
			_, err := service.CreatePayment(ctx, validRequest())

			Expect(err).ToNot(HaveOccurred())
			Expect(gateway.createCalls).To(HaveLen(1))
			Expect(gateway.createCalls[0].opts.IdempotencyKey).ToNot(BeEmpty())
		})

		It("keeps the caller's idempotency key", func() {
			req := validRequest()
			req.IdempotencyKey = "idem-7"

			_, err := service.CreatePayment(ctx, req)

			Expect(err).ToNot(HaveOccurred())
			Expect(gateway.createCalls[0].opts.IdempotencyKey).To(Equal("idem-7"))
		})

		It("rejects a request without an order id before touching the gateway", func() {
			req := validRequest()
			req.OrderID = ""

			_, err := service.CreatePayment(ctx, req)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
			Expect(gateway.createCalls).To(BeEmpty())
			Expect(repo.created).To(BeEmpty())
		})

		It("rejects a non-positive grand total before touching the gateway", func() {
			req := validRequest()
			req.GrandTotal = 0

			_, err := service.CreatePayment(ctx, req)

			_, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(gateway.createCalls).To(BeEmpty())
		})

		It("rejects a malformed currency code", func() {
			req := validRequest()
			req.Currency = "dollars"

			_, err := service.CreatePayment(ctx, req)

			_, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(gateway.createCalls).To(BeEmpty())
		})

		It("propagates gateway failures without persisting", func() {
			gateway.createResult = nil
			gateway.createErr = stripe.NewGatewayError("boom")

			_, err := service.CreatePayment(ctx, validRequest())

			Expect(err).To(MatchError(gateway.createErr))
			Expect(repo.created).To(BeEmpty())
		})

		It("surfaces a persistence failure after the intent exists", func() {
			repo.createErr = errDatabaseDown

			_, err := service.CreatePayment(ctx, validRequest())

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("failed to persist payment record"))
		})
	})

	Describe("ConfirmPayment", func() {
		It("confirms the intent and records the new status", func() {
			existing := &paymentmodel.Payment{ID: 1, OrderID: "o1", PaymentIntentID: "pi_1", Status: paymentmodel.StatusPending}
			repo.byIntentID["pi_1"] = existing

			gateway.confirmResult = &stripe.PaymentIntentResult{
				ID:     "pi_1",
				Status: "succeeded",
				Raw:    map[string]any{"id": "pi_1"},
			}

			view, err := service.ConfirmPayment(ctx, "pi_1", "pm_card")

			Expect(err).ToNot(HaveOccurred())
			Expect(view.Status).To(Equal("succeeded"))
			Expect(repo.statusUpdates).To(HaveLen(1))
			Expect(repo.statusUpdates[0].id).To(Equal(int64(1)))
			Expect(repo.statusUpdates[0].status).To(Equal(paymentmodel.StatusSucceeded))
		})

		It("still returns the gateway result when no record exists locally", func() {
			gateway.confirmResult = &stripe.PaymentIntentResult{ID: "pi_x", Status: "processing"}

			view, err := service.ConfirmPayment(ctx, "pi_x", "")

			Expect(err).ToNot(HaveOccurred())
			Expect(view.Status).To(Equal("processing"))
			Expect(repo.statusUpdates).To(BeEmpty())
		})

		It("flags the action requirement on a challenge", func() {
			gateway.confirmResult = &stripe.PaymentIntentResult{
				ID:             "pi_1",
				Status:         "requires_action",
				RequiresAction: true,
				NextAction:     "use_stripe_sdk",
			}

			view, err := service.ConfirmPayment(ctx, "pi_1", "pm_card")

			Expect(err).ToNot(HaveOccurred())
			Expect(view.RequiresAction).To(BeTrue())
			Expect(view.NextAction).To(Equal("use_stripe_sdk"))
		})
	})

	Describe("CapturePayment", func() {
		BeforeEach(func() {
			repo.byIntentID["pi_1"] = &paymentmodel.Payment{ID: 1, PaymentIntentID: "pi_1", Status: paymentmodel.StatusRequiresCapture}
			gateway.captureResult = &stripe.CaptureResult{
				ID:             "pi_1",
				Status:         "succeeded",
				AmountCaptured: 4999,
				Raw:            map[string]any{"id": "pi_1"},
			}
		})

		It("captures in full when no amount is given", func() {
			view, err := service.CapturePayment(ctx, "pi_1", nil)

			Expect(err).ToNot(HaveOccurred())
			Expect(gateway.captureAmount).To(BeNil())
			Expect(view.AmountCaptured).To(Equal(int64(4999)))
			Expect(repo.statusUpdates).To(HaveLen(1))
			Expect(repo.statusUpdates[0].status).To(Equal(paymentmodel.StatusSucceeded))
		})

		It("forwards the partial amount", func() {
			amount := 25.0

			_, err := service.CapturePayment(ctx, "pi_1", &amount)

			Expect(err).ToNot(HaveOccurred())
			Expect(gateway.captureAmount).ToNot(BeNil())
			Expect(*gateway.captureAmount).To(Equal(25.0))
		})
	})

	Describe("CancelPayment", func() {
		It("cancels and records the canceled status", func() {
			repo.byIntentID["pi_1"] = &paymentmodel.Payment{ID: 1, PaymentIntentID: "pi_1", Status: paymentmodel.StatusPending}
			gateway.cancelResult = &stripe.PaymentIntentResult{ID: "pi_1", Status: "canceled"}

			view, err := service.CancelPayment(ctx, "pi_1", "requested_by_customer")

			Expect(err).ToNot(HaveOccurred())
			Expect(view.Status).To(Equal("canceled"))
			Expect(gateway.cancelReason).To(Equal("requested_by_customer"))
			Expect(repo.statusUpdates[0].status).To(Equal(paymentmodel.StatusCanceled))
		})
	})

	Describe("RefundPayment", func() {
		BeforeEach(func() {
			repo.byIntentID["pi_1"] = &paymentmodel.Payment{ID: 1, PaymentIntentID: "pi_1", Status: paymentmodel.StatusSucceeded}
			gateway.refundResult = &stripe.RefundResult{
				ID:             "re_1",
				Status:         "succeeded",
				AmountRefunded: 4999,
				Raw:            map[string]any{"id": "re_1"},
			}
		})

		It("refunds and marks the record refunded on success", func() {
			view, err := service.RefundPayment(ctx, "pi_1", nil, "requested_by_customer")

			Expect(err).ToNot(HaveOccurred())
			Expect(view.RefundID).To(Equal("re_1"))
			Expect(view.AmountRefunded).To(Equal(int64(4999)))
			Expect(gateway.refundReason).To(Equal("requested_by_customer"))

			Expect(repo.refundUpdates).To(HaveLen(1))
			Expect(repo.refundUpdates[0].status).To(Equal(paymentmodel.StatusRefunded))
			Expect(repo.refundUpdates[0].amountRefunded).To(Equal(int64(4999)))
		})

		It("keeps the current status while the refund is still pending", func() {
			gateway.refundResult.Status = "pending"

			_, err := service.RefundPayment(ctx, "pi_1", nil, "")

			Expect(err).ToNot(HaveOccurred())
			Expect(repo.refundUpdates[0].status).To(Equal(paymentmodel.StatusSucceeded))
		})

		It("still returns the refund when no record exists locally", func() {
			delete(repo.byIntentID, "pi_1")

			view, err := service.RefundPayment(ctx, "pi_1", nil, "")

			Expect(err).ToNot(HaveOccurred())
			Expect(view.RefundID).To(Equal("re_1"))
			Expect(repo.refundUpdates).To(BeEmpty())
		})
	})

	Describe("ApplyWebhookEvent", func() {
		var record *paymentmodel.Payment

		event := func(eventType string, object map[string]any) *stripe.WebhookEvent {
			return &stripe.WebhookEvent{
				ID:   "evt_1",
				Type: eventType,
				Data: map[string]any{"object": object},
			}
		}

		BeforeEach(func() {
			record = &paymentmodel.Payment{ID: 1, OrderID: "o1", PaymentIntentID: "pi_1", Status: paymentmodel.StatusPending}
			repo.byIntentID["pi_1"] = record
		})

		DescribeTable("maps event types onto record statuses",
			func(eventType, wantStatus string) {
				updated, err := service.ApplyWebhookEvent(ctx, event(eventType, map[string]any{"id": "pi_1"}))

				Expect(err).ToNot(HaveOccurred())
				Expect(updated.Status).To(Equal(wantStatus))
				Expect(repo.statusUpdates).To(HaveLen(1))
				Expect(repo.statusUpdates[0].status).To(Equal(wantStatus))
			},
			Entry("payment_intent.succeeded", "payment_intent.succeeded", paymentmodel.StatusSucceeded),
			Entry("payment_intent.canceled", "payment_intent.canceled", paymentmodel.StatusCanceled),
			Entry("payment_intent.amount_capturable_updated", "payment_intent.amount_capturable_updated", paymentmodel.StatusRequiresCapture),
			Entry("payment_intent.requires_action", "payment_intent.requires_action", paymentmodel.StatusRequiresAction),
		)

		It("records the failure reason on a failed payment", func() {
			updated, err := service.ApplyWebhookEvent(ctx, event("payment_intent.payment_failed", map[string]any{
				"id":                 "pi_1",
				"last_payment_error": map[string]any{"message": "Your card was declined."},
			}))

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Status).To(Equal(paymentmodel.StatusFailed))
			Expect(updated.FailureReason).ToNot(BeNil())
			Expect(*updated.FailureReason).To(Equal("Your card was declined."))
		})

		It("resolves the intent through the charge on a refund event", func() {
			updated, err := service.ApplyWebhookEvent(ctx, event("charge.refunded", map[string]any{
				"id":             "ch_1",
				"payment_intent": "pi_1",
			}))

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Status).To(Equal(paymentmodel.StatusRefunded))
		})

		It("ignores unrelated event types without touching the record", func() {
			updated, err := service.ApplyWebhookEvent(ctx, event("customer.created", map[string]any{"id": "pi_1"}))

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Status).To(Equal(paymentmodel.StatusPending))
			Expect(repo.statusUpdates).To(BeEmpty())
		})

		It("errors when the event carries no data object", func() {
			_, err := service.ApplyWebhookEvent(ctx, &stripe.WebhookEvent{ID: "evt_1", Type: "payment_intent.succeeded"})

			Expect(err).To(HaveOccurred())
		})

		It("errors when no record matches the intent so the delivery is retried", func() {
			_, err := service.ApplyWebhookEvent(ctx, event("payment_intent.succeeded", map[string]any{"id": "pi_unknown"}))

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("payment record not found"))
		})
	})

	Describe("GetPaymentByOrderID", func() {
		It("returns the stored record", func() {
			repo.byOrderID["o1"] = &paymentmodel.Payment{ID: 1, OrderID: "o1"}

			record, err := service.GetPaymentByOrderID("o1")

			Expect(err).ToNot(HaveOccurred())
			Expect(record.OrderID).To(Equal("o1"))
		})

		It("propagates a miss", func() {
			_, err := service.GetPaymentByOrderID("missing")

			Expect(err).To(HaveOccurred())
		})
	})
})
