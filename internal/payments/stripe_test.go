package payments

import (
	"fmt"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/unipath-labs/go-abroad-backend/internal/services"
)

const testSigningSecret = "whsec_test_secret"

// signPayload builds a Stripe-Signature header the way Stripe's SDK does.
func signPayload(t *testing.T, payload []byte, secret string) string {
	t.Helper()
	now := time.Now()
	sig := webhook.ComputeSignature(now, payload, secret)
	return fmt.Sprintf("t=%d,v1=%x", now.Unix(), sig)
}

func TestVerifyWebhook_PaymentIntentSucceeded(t *testing.T) {
	p := NewStripeProvider("sk_test_xxx", testSigningSecret)
	payload := []byte(`{
		"id": "evt_1",
		"type": "payment_intent.succeeded",
		"api_version": "2024-06-20",
		"data": {"object": {
			"id": "pi_1",
			"object": "payment_intent",
			"metadata": {"report_id": "r1", "user_id": "u1"}
		}}
	}`)

	ev, err := p.VerifyWebhook(payload, signPayload(t, payload, testSigningSecret))
	if err != nil {
		t.Fatalf("VerifyWebhook: %v", err)
	}
	if ev.ID != "evt_1" || ev.IntentID != "pi_1" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.PaymentStatus != services.PaymentStatusPaid {
		t.Fatalf("PaymentStatus = %q, want paid", ev.PaymentStatus)
	}
	if ev.Metadata[services.MetadataReportID] != "r1" {
		t.Fatalf("metadata not carried: %+v", ev.Metadata)
	}
}

func TestVerifyWebhook_PaymentFailedCarriesError(t *testing.T) {
	p := NewStripeProvider("sk_test_xxx", testSigningSecret)
	payload := []byte(`{
		"id": "evt_2",
		"type": "payment_intent.payment_failed",
		"data": {"object": {
			"id": "pi_2",
			"object": "payment_intent",
			"metadata": {"report_id": "r2"},
			"last_payment_error": {"message": "Your card was declined."}
		}}
	}`)

	ev, err := p.VerifyWebhook(payload, signPayload(t, payload, testSigningSecret))
	if err != nil {
		t.Fatalf("VerifyWebhook: %v", err)
	}
	if ev.PaymentStatus != "failed" || ev.ErrorMessage != "Your card was declined." {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestVerifyWebhook_ChargeRefunded(t *testing.T) {
	p := NewStripeProvider("sk_test_xxx", testSigningSecret)
	payload := []byte(`{
		"id": "evt_3",
		"type": "charge.refunded",
		"data": {"object": {
			"id": "ch_1",
			"object": "charge",
			"payment_intent": "pi_3",
			"metadata": {"report_id": "r3"}
		}}
	}`)

	ev, err := p.VerifyWebhook(payload, signPayload(t, payload, testSigningSecret))
	if err != nil {
		t.Fatalf("VerifyWebhook: %v", err)
	}
	if ev.IntentID != "pi_3" || ev.PaymentStatus != services.PaymentStatusRefunded {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestVerifyWebhook_BadSignature(t *testing.T) {
	p := NewStripeProvider("sk_test_xxx", testSigningSecret)
	payload := []byte(`{"id":"evt_4","type":"payment_intent.succeeded","data":{"object":{}}}`)

	if _, err := p.VerifyWebhook(payload, signPayload(t, payload, "whsec_other")); err == nil {
		t.Fatalf("wrong signing secret must fail verification")
	}
	if _, err := p.VerifyWebhook(payload, "t=0,v1=deadbeef"); err == nil {
		t.Fatalf("garbage signature must fail verification")
	}
	if _, err := p.VerifyWebhook(payload, ""); err == nil {
		t.Fatalf("missing signature must fail verification")
	}
}

func TestVerifyWebhook_TamperedPayload(t *testing.T) {
	p := NewStripeProvider("sk_test_xxx", testSigningSecret)
	payload := []byte(`{"id":"evt_5","type":"payment_intent.succeeded","data":{"object":{"id":"pi_5","object":"payment_intent"}}}`)
	header := signPayload(t, payload, testSigningSecret)

	tampered := []byte(`{"id":"evt_5","type":"payment_intent.succeeded","data":{"object":{"id":"pi_EVIL","object":"payment_intent"}}}`)
	if _, err := p.VerifyWebhook(tampered, header); err == nil {
		t.Fatalf("tampered payload must fail verification")
	}
}

func TestVerifyWebhook_UnhandledTypePassesThrough(t *testing.T) {
	p := NewStripeProvider("sk_test_xxx", testSigningSecret)
	payload := []byte(`{"id":"evt_6","type":"customer.created","data":{"object":{"id":"cus_1","object":"customer"}}}`)

	ev, err := p.VerifyWebhook(payload, signPayload(t, payload, testSigningSecret))
	if err != nil {
		t.Fatalf("VerifyWebhook: %v", err)
	}
	if ev.Type != "customer.created" || ev.IntentID != "" || ev.PaymentStatus != "" {
		t.Fatalf("unhandled type must normalize to an empty event shell: %+v", ev)
	}
}
