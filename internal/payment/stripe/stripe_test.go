package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bottega-next/internal/config"
	"github.com/bottega-next/internal/payment"
)

func testClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestInitiateCreatesCheckoutSession(t *testing.T) {
	var gotPath, gotAuth string
	var gotForm map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form failed: %v", err)
		}
		gotForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"cs_test_1","url":"https://checkout.stripe.com/c/pay/cs_test_1"}`)
	}))
	defer server.Close()

	client := New(config.StripePaymentConfig{
		SecretKey:  "sk_test_1",
		APIBaseURL: server.URL,
		SuccessURL: "https://shop.example.com/success",
		CancelURL:  "https://shop.example.com/cancel",
	})

	pending, err := client.Initiate(context.Background(), payment.InitiateInput{
		OrderID:  7,
		OrderNo:  "BN1",
		Amount:   "25.00",
		Currency: "EUR",
	})
	if err != nil {
		t.Fatalf("Initiate error: %v", err)
	}
	if pending.Ref != "cs_test_1" {
		t.Fatalf("expected session id ref, got %q", pending.Ref)
	}
	if pending.PayURL == "" {
		t.Fatalf("expected pay url")
	}
	if pending.Synchronous {
		t.Fatalf("stripe must be asynchronous")
	}

	if gotPath != "/v1/checkout/sessions" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotAuth != "Bearer sk_test_1" {
		t.Fatalf("unexpected auth header: %s", gotAuth)
	}
	if got := gotForm["line_items[0][price_data][unit_amount]"]; len(got) != 1 || got[0] != "2500" {
		t.Fatalf("expected minor amount 2500, got %v", got)
	}
	if got := gotForm["metadata[order_id]"]; len(got) != 1 || got[0] != "7" {
		t.Fatalf("expected order id metadata, got %v", got)
	}
}

func TestConfirmReadsPaymentStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/checkout/sessions/cs_test_1" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"cs_test_1","payment_status":"paid","created":1767225600}`)
	}))
	defer server.Close()

	client := New(config.StripePaymentConfig{SecretKey: "sk_test_1", APIBaseURL: server.URL})
	confirmation, err := client.Confirm(context.Background(), payment.ConfirmInput{Ref: "cs_test_1"})
	if err != nil {
		t.Fatalf("Confirm error: %v", err)
	}
	if !confirmation.Paid {
		t.Fatalf("expected paid confirmation")
	}
	if confirmation.PaidAt == nil {
		t.Fatalf("expected paid_at from created timestamp")
	}
}

func webhookPayload() []byte {
	return []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_test_1","payment_status":"paid","metadata":{"order_id":"7","order_no":"BN1"}}}}`)
}

func TestVerifyAndParseWebhook(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	client := New(config.StripePaymentConfig{
		WebhookSecret:           "whsec_test",
		WebhookToleranceSeconds: 300,
	}).WithClock(testClock(now))

	body := webhookPayload()
	timestamp := now.Unix()
	header := fmt.Sprintf("t=%d,v1=%s", timestamp, client.SignPayload(timestamp, body))

	event, err := client.VerifyAndParseWebhook(header, body)
	if err != nil {
		t.Fatalf("VerifyAndParseWebhook error: %v", err)
	}
	if event.EventID != "evt_1" {
		t.Fatalf("expected event id evt_1, got %q", event.EventID)
	}
	if event.OrderID != 7 || event.OrderNo != "BN1" {
		t.Fatalf("expected order metadata, got id=%d no=%q", event.OrderID, event.OrderNo)
	}
	if event.Ref != "cs_test_1" {
		t.Fatalf("expected session ref, got %q", event.Ref)
	}
	if !event.Paid {
		t.Fatalf("expected paid event")
	}
}

func TestVerifyAndParseWebhookRejectsBadSignature(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	client := New(config.StripePaymentConfig{
		WebhookSecret:           "whsec_test",
		WebhookToleranceSeconds: 300,
	}).WithClock(testClock(now))

	body := webhookPayload()
	header := fmt.Sprintf("t=%d,v1=%s", now.Unix(), "deadbeef")
	if _, err := client.VerifyAndParseWebhook(header, body); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected signature invalid, got: %v", err)
	}

	// 被篡改的 body 也必须拒绝
	valid := fmt.Sprintf("t=%d,v1=%s", now.Unix(), client.SignPayload(now.Unix(), body))
	tampered := append([]byte{}, body...)
	tampered[len(tampered)-2] = 'x'
	if _, err := client.VerifyAndParseWebhook(valid, tampered); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected signature invalid for tampered body, got: %v", err)
	}
}

func TestVerifyAndParseWebhookRejectsStaleTimestamp(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	client := New(config.StripePaymentConfig{
		WebhookSecret:           "whsec_test",
		WebhookToleranceSeconds: 300,
	}).WithClock(testClock(now))

	body := webhookPayload()
	stale := now.Add(-10 * time.Minute).Unix()
	header := fmt.Sprintf("t=%d,v1=%s", stale, client.SignPayload(stale, body))
	if _, err := client.VerifyAndParseWebhook(header, body); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected tolerance rejection, got: %v", err)
	}
}

func TestVerifyAndParseWebhookUnpaidStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	client := New(config.StripePaymentConfig{
		WebhookSecret:           "whsec_test",
		WebhookToleranceSeconds: 300,
	}).WithClock(testClock(now))

	body := []byte(`{"id":"evt_2","type":"checkout.session.completed","data":{"object":{"id":"cs_test_2","payment_status":"unpaid","metadata":{}}}}`)
	header := fmt.Sprintf("t=%d,v1=%s", now.Unix(), client.SignPayload(now.Unix(), body))
	event, err := client.VerifyAndParseWebhook(header, body)
	if err != nil {
		t.Fatalf("VerifyAndParseWebhook error: %v", err)
	}
	if event.Paid {
		t.Fatalf("expected unpaid event")
	}
}
