package payment_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	paymentmodel "github.com/frahmantamala/checkout-payments/internal/core/datamodel/payment"
	"github.com/frahmantamala/checkout-payments/internal/core/events"
	"github.com/frahmantamala/checkout-payments/internal/payment"
	"github.com/frahmantamala/checkout-payments/internal/stripe"
	"github.com/frahmantamala/checkout-payments/internal/transport"
)

// stubWebhookService embeds the interface only to satisfy it; the webhook
// handler calls ApplyWebhookEvent exclusively.
type stubWebhookService struct {
	payment.ServiceAPI

	appliedEvents []*stripe.WebhookEvent
	record        *paymentmodel.Payment
	applyErr      error
}

func (s *stubWebhookService) ApplyWebhookEvent(_ context.Context, event *stripe.WebhookEvent) (*paymentmodel.Payment, error) {
	s.appliedEvents = append(s.appliedEvents, event)
	if s.applyErr != nil {
		return nil, s.applyErr
	}
	return s.record, nil
}

var _ = Describe("WebhookHandler", func() {
	const secret = "whsec_handler_test"

	var (
		service   *stubWebhookService
		eventBus  *events.EventBus
		handler   *payment.WebhookHandler
		now       time.Time
		published chan events.Event
	)

	signedRequest := func(body string, ts int64) *http.Request {
		signature, err := stripe.ComputeSignature(secret, fmt.Sprintf("%d.%s", ts, body))
		Expect(err).ToNot(HaveOccurred())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/stripe/webhook", strings.NewReader(body))
		req.Header.Set("Stripe-Signature", fmt.Sprintf("t=%d,v1=%s", ts, signature))
		return req
	}

	succeededEventBody := `{"id": "evt_1", "type": "payment_intent.succeeded", "created": 1700000000, "data": {"object": {"id": "pi_1"}}}`

	BeforeEach(func() {
		now = time.Unix(1_700_000_000, 0)

		service = &stubWebhookService{
			record: &paymentmodel.Payment{
				ID:              1,
				OrderID:         "o1",
				PaymentIntentID: "pi_1",
				Status:          paymentmodel.StatusSucceeded,
				Amount:          4999,
				Currency:        "usd",
			},
		}

		eventBus = events.NewEventBus(slog.Default())
		published = make(chan events.Event, 1)
		eventBus.Subscribe(events.EventTypePaymentSucceeded, func(_ context.Context, event events.Event) error {
			published <- event
			return nil
		})

		config := stripe.GatewayConfig{
			SecretKey:      "sk_test",
			PublishableKey: "pk_test",
			WebhookSecret:  secret,
			Currency:       "usd",
		}

		handler = payment.NewWebhookHandler(
			transport.NewBaseHandler(slog.Default()),
			service,
			config,
			eventBus,
			slog.Default(),
			stripe.WithClock(func() time.Time { return now }),
		)
	})

	It("accepts a signed event, applies it and acknowledges", func() {
		recorder := httptest.NewRecorder()
		handler.HandleStripeWebhook(recorder, signedRequest(succeededEventBody, now.Unix()))

		Expect(recorder.Code).To(Equal(http.StatusOK))

		var response map[string]bool
		Expect(json.Unmarshal(recorder.Body.Bytes(), &response)).To(Succeed())
		Expect(response["received"]).To(BeTrue())

		Expect(service.appliedEvents).To(HaveLen(1))
		Expect(service.appliedEvents[0].ID).To(Equal("evt_1"))
		Expect(service.appliedEvents[0].Type).To(Equal("payment_intent.succeeded"))
	})

	It("publishes the transition on the event bus", func() {
		recorder := httptest.NewRecorder()
		handler.HandleStripeWebhook(recorder, signedRequest(succeededEventBody, now.Unix()))

		Expect(recorder.Code).To(Equal(http.StatusOK))

		var event events.Event
		Eventually(published).Should(Receive(&event))
		Expect(event.EventType()).To(Equal(events.EventTypePaymentSucceeded))

		succeeded, ok := event.(*events.PaymentSucceededEvent)
		Expect(ok).To(BeTrue())
		Expect(succeeded.OrderID).To(Equal("o1"))
		Expect(succeeded.Amount).To(Equal(int64(4999)))
	})

	It("publishes nothing for a non-terminal transition", func() {
		service.record.Status = paymentmodel.StatusProcessing

		recorder := httptest.NewRecorder()
		handler.HandleStripeWebhook(recorder, signedRequest(succeededEventBody, now.Unix()))

		Expect(recorder.Code).To(Equal(http.StatusOK))
		Consistently(published).ShouldNot(Receive())
	})

	It("rejects a tampered payload without touching the service", func() {
		signature, err := stripe.ComputeSignature(secret, fmt.Sprintf("%d.%s", now.Unix(), succeededEventBody))
		Expect(err).ToNot(HaveOccurred())

		tampered := strings.Replace(succeededEventBody, "pi_1", "pi_2", 1)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/stripe/webhook", strings.NewReader(tampered))
		req.Header.Set("Stripe-Signature", fmt.Sprintf("t=%d,v1=%s", now.Unix(), signature))

		recorder := httptest.NewRecorder()
		handler.HandleStripeWebhook(recorder, req)

		Expect(recorder.Code).To(Equal(http.StatusBadRequest))

		var response map[string]string
		Expect(json.Unmarshal(recorder.Body.Bytes(), &response)).To(Succeed())
		Expect(response["error"]).To(Equal(stripe.ReasonSignatureMismatch))
		Expect(service.appliedEvents).To(BeEmpty())
	})

	It("rejects a stale delivery", func() {
		staleTS := now.Unix() - stripe.DefaultToleranceSeconds - 1

		recorder := httptest.NewRecorder()
		handler.HandleStripeWebhook(recorder, signedRequest(succeededEventBody, staleTS))

		Expect(recorder.Code).To(Equal(http.StatusBadRequest))

		var response map[string]string
		Expect(json.Unmarshal(recorder.Body.Bytes(), &response)).To(Succeed())
		Expect(response["error"]).To(Equal(stripe.ReasonTimestampOutOfRange))
	})

	It("rejects a request without a signature header", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/stripe/webhook", strings.NewReader(succeededEventBody))

		recorder := httptest.NewRecorder()
		handler.HandleStripeWebhook(recorder, req)

		Expect(recorder.Code).To(Equal(http.StatusBadRequest))

		var response map[string]string
		Expect(json.Unmarshal(recorder.Body.Bytes(), &response)).To(Succeed())
		Expect(response["error"]).To(Equal(stripe.ReasonInvalidSignatureHeader))
	})

	It("answers 500 when the event cannot be applied so the delivery is retried", func() {
		service.applyErr = errors.New("record not found yet")

		recorder := httptest.NewRecorder()
		handler.HandleStripeWebhook(recorder, signedRequest(succeededEventBody, now.Unix()))

		Expect(recorder.Code).To(Equal(http.StatusInternalServerError))
	})
})
