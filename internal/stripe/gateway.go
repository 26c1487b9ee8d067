package stripe

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

const (
	paymentIntentPath = "/payment_intents"
	refundPath        = "/refunds"
)

// PaymentGateway exposes the payment intent lifecycle: create, confirm,
// capture and cancel, plus refunds. The authoritative state machine lives on
// Stripe's side; every call re-reads status from the response and nothing is
// cached between calls.
type PaymentGateway struct {
	config GatewayConfig
	client *Client
	logger *slog.Logger
}

// NewPaymentGateway validates the configuration and builds the gateway.
// A nil client gets the default one pointing at the live Stripe API.
func NewPaymentGateway(config GatewayConfig, client *Client, logger *slog.Logger) (*PaymentGateway, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}

	if client == nil {
		client = NewClient(ClientConfig{SecretKey: config.SecretKey}, logger)
	}

	return &PaymentGateway{
		config: config,
		client: client,
		logger: logger,
	}, nil
}

// Config returns the gateway configuration, for webhook verification and
// for handing the publishable key to the storefront.
func (g *PaymentGateway) Config() GatewayConfig {
	return g.config
}

// ToMinorUnits converts a major-unit amount (e.g. 19.99 dollars) to minor
// units (1999 cents). Rounding is half away from zero: 0.125 -> 13.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// CreatePaymentIntent converts the order total to minor units and creates a
// payment intent for it. Metadata precedence on key collision is config
// defaults < order metadata < injected order identifiers.
func (g *PaymentGateway) CreatePaymentIntent(ctx context.Context, order OrderSummary, opts CreatePaymentIntentOptions) (*PaymentIntentResult, error) {
	amount := ToMinorUnits(order.GrandTotal)
	if amount <= 0 {
		return nil, NewGatewayError("cannot create a payment intent for an order with a grand total lower or equal to zero")
	}

	currency := order.Currency
	if currency == "" {
		currency = g.config.Currency
	}

	params := NewParams().
		Add("amount", strconv.FormatInt(amount, 10)).
		Add("currency", strings.ToLower(currency))

	captureMethod := opts.CaptureMethod
	if captureMethod == "" {
		captureMethod = g.config.CaptureMethod
	}
	if captureMethod != "" {
		params.Add("capture_method", string(captureMethod))
	}

	if opts.PaymentMethodID != "" {
		params.Add("payment_method", opts.PaymentMethodID)
	}

	if opts.Confirm != nil {
		params.Add("confirm", strconv.FormatBool(*opts.Confirm))
	}

	if order.ReturnURL != "" {
		params.Add("return_url", order.ReturnURL)
	}

	if order.CustomerEmail != "" {
		params.Add("receipt_email", order.CustomerEmail)
	}

	if order.Description != "" {
		params.Add("description", order.Description)
	}

	// automatic selection and an explicit type list are mutually exclusive;
	// automatic wins when both are configured
	if g.config.AutomaticPaymentMethods {
		params.Add("automatic_payment_methods[enabled]", "true")
	} else if len(g.config.PaymentMethodTypes) > 0 {
		for i, methodType := range g.config.PaymentMethodTypes {
			params.Add(fmt.Sprintf("payment_method_types[%d]", i), methodType)
		}
	}

	params.AddMetadata(g.buildMetadata(order))

	g.logger.Info("creating payment intent",
		"order_id", order.ID,
		"amount", amount,
		"currency", strings.ToLower(currency))

	raw, err := g.client.Request(ctx, paymentIntentPath, RequestOptions{
		Body:           params,
		IdempotencyKey: opts.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}

	return normalizePaymentIntent(raw), nil
}

// ConfirmPaymentIntent confirms an intent, optionally attaching a payment
// method collected on the client.
func (g *PaymentGateway) ConfirmPaymentIntent(ctx context.Context, paymentIntentID string, paymentMethodID string) (*PaymentIntentResult, error) {
	params := NewParams()
	if paymentMethodID != "" {
		params.Add("payment_method", paymentMethodID)
	}

	raw, err := g.client.Request(ctx, paymentIntentPath+"/"+paymentIntentID+"/confirm", RequestOptions{Body: params})
	if err != nil {
		return nil, err
	}

	return normalizePaymentIntent(raw), nil
}

// CapturePaymentIntent captures a manually held intent. A nil amount captures
// the full authorized amount; otherwise the major-unit amount is converted
// and sent as a partial capture.
func (g *PaymentGateway) CapturePaymentIntent(ctx context.Context, paymentIntentID string, amount *float64) (*CaptureResult, error) {
	params := NewParams()
	if amount != nil {
		params.Add("amount_to_capture", strconv.FormatInt(ToMinorUnits(*amount), 10))
	}

	raw, err := g.client.Request(ctx, paymentIntentPath+"/"+paymentIntentID+"/capture", RequestOptions{Body: params})
	if err != nil {
		return nil, err
	}

	return normalizeCaptureResult(raw), nil
}

// CancelPaymentIntent cancels an intent. The reason is forwarded verbatim
// when present.
func (g *PaymentGateway) CancelPaymentIntent(ctx context.Context, paymentIntentID string, reason string) (*PaymentIntentResult, error) {
	params := NewParams()
	if reason != "" {
		params.Add("cancellation_reason", reason)
	}

	raw, err := g.client.Request(ctx, paymentIntentPath+"/"+paymentIntentID+"/cancel", RequestOptions{Body: params})
	if err != nil {
		return nil, err
	}

	return normalizePaymentIntent(raw), nil
}

// RefundPayment refunds a payment intent. A nil amount refunds in full; the
// reason is forwarded verbatim when present.
func (g *PaymentGateway) RefundPayment(ctx context.Context, paymentIntentID string, amount *float64, reason string) (*RefundResult, error) {
	params := NewParams().Add("payment_intent", paymentIntentID)

	if amount != nil {
		params.Add("amount", strconv.FormatInt(ToMinorUnits(*amount), 10))
	}

	if reason != "" {
		params.Add("reason", reason)
	}

	g.logger.Info("refunding payment", "payment_intent_id", paymentIntentID)

	raw, err := g.client.Request(ctx, refundPath, RequestOptions{Body: params})
	if err != nil {
		return nil, err
	}

	return normalizeRefund(raw), nil
}

// buildMetadata merges the three metadata sources in increasing precedence:
// config defaults, order metadata, then the injected order identifiers.
func (g *PaymentGateway) buildMetadata(order OrderSummary) map[string]string {
	merged := make(map[string]string, len(g.config.Metadata)+len(order.Metadata)+3)

	for key, value := range g.config.Metadata {
		merged[key] = value
	}
	for key, value := range order.Metadata {
		merged[key] = value
	}

	merged["orderId"] = order.ID
	if order.OrderNumber != "" {
		merged["orderNumber"] = order.OrderNumber
	}
	if order.CustomerName != "" {
		merged["customerName"] = order.CustomerName
	}

	return merged
}

func normalizePaymentIntent(raw map[string]any) *PaymentIntentResult {
	status := stringField(raw, "status", "unknown")

	return &PaymentIntentResult{
		ID:             stringField(raw, "id", ""),
		ClientSecret:   stringField(raw, "client_secret", ""),
		Status:         status,
		Amount:         numberField(raw, "amount"),
		Currency:       stringField(raw, "currency", ""),
		RequiresAction: status == "requires_action" || status == "requires_source_action",
		NextAction:     nextActionType(raw),
		Raw:            raw,
	}
}

func normalizeCaptureResult(raw map[string]any) *CaptureResult {
	amount := numberField(raw, "amount_received")
	if _, ok := raw["amount_received"]; !ok {
		amount = numberField(raw, "amount_capturable")
	}

	return &CaptureResult{
		ID:             stringField(raw, "id", ""),
		Status:         stringField(raw, "status", "unknown"),
		AmountCaptured: amount,
		Raw:            raw,
	}
}

func normalizeRefund(raw map[string]any) *RefundResult {
	return &RefundResult{
		ID:             stringField(raw, "id", ""),
		Status:         stringField(raw, "status", "unknown"),
		AmountRefunded: numberField(raw, "amount"),
		Raw:            raw,
	}
}

func nextActionType(raw map[string]any) string {
	nextAction, ok := raw["next_action"].(map[string]any)
	if !ok {
		return ""
	}
	return stringField(nextAction, "type", "")
}

func stringField(m map[string]any, key, fallback string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return fallback
}

func numberField(m map[string]any, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}
