// Package payments adapts the Stripe API to the services.PaymentProvider
// contract: payment-intent creation with correlation metadata, and webhook
// signature verification with normalization of the event types this system
// consumes. Wire formats beyond the fields used here are Stripe's concern.
package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/paymentintent"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/unipath-labs/go-abroad-backend/internal/services"
)

// StripeProvider implements services.PaymentProvider against the Stripe API.
type StripeProvider struct {
	webhookSecret string
}

// NewStripeProvider configures the Stripe client with the account secret and
// returns a provider bound to the webhook signing secret.
func NewStripeProvider(secretKey, webhookSecret string) *StripeProvider {
	stripe.Key = secretKey
	return &StripeProvider{webhookSecret: webhookSecret}
}

// CreateIntent creates a Stripe PaymentIntent carrying the correlation
// metadata and returns the ids and client secret the frontend needs.
func (p *StripeProvider) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*services.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create payment intent: %w", err)
	}
	return &services.PaymentIntent{
		IntentID:     pi.ID,
		ClientSecret: pi.ClientSecret,
	}, nil
}

// VerifyWebhook verifies the Stripe-Signature header against the shared
// signing secret and normalizes the event into the shape the payment service
// consumes. Both a bad signature and an unparsable payload are verification
// errors; an unverified payload is never inspected further.
func (p *StripeProvider) VerifyWebhook(payload []byte, signatureHeader string) (*services.PaymentEvent, error) {
	event, err := webhook.ConstructEventWithOptions(
		payload,
		signatureHeader,
		p.webhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("stripe: signature verification: %w", err)
	}

	ev := &services.PaymentEvent{
		ID:       event.ID,
		Type:     string(event.Type),
		Metadata: map[string]string{},
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("stripe: parse checkout session: %w", err)
		}
		ev.SessionID = session.ID
		if session.PaymentIntent != nil {
			ev.IntentID = session.PaymentIntent.ID
		}
		ev.PaymentStatus = string(session.PaymentStatus)
		ev.Metadata = session.Metadata

	case stripe.EventTypePaymentIntentSucceeded:
		pi, err := parseIntent(event.Data.Raw)
		if err != nil {
			return nil, err
		}
		ev.IntentID = pi.ID
		ev.PaymentStatus = services.PaymentStatusPaid
		ev.Metadata = pi.Metadata

	case stripe.EventTypePaymentIntentPaymentFailed:
		pi, err := parseIntent(event.Data.Raw)
		if err != nil {
			return nil, err
		}
		ev.IntentID = pi.ID
		ev.PaymentStatus = "failed"
		ev.Metadata = pi.Metadata
		if pi.LastPaymentError != nil {
			ev.ErrorMessage = pi.LastPaymentError.Msg
		}

	case stripe.EventTypeChargeRefunded:
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return nil, fmt.Errorf("stripe: parse charge: %w", err)
		}
		if ch.PaymentIntent != nil {
			ev.IntentID = ch.PaymentIntent.ID
		}
		ev.PaymentStatus = services.PaymentStatusRefunded
		ev.Metadata = ch.Metadata
	}

	return ev, nil
}

func parseIntent(raw json.RawMessage) (*stripe.PaymentIntent, error) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(raw, &pi); err != nil {
		return nil, errors.New("stripe: parse payment intent: " + err.Error())
	}
	return &pi, nil
}
