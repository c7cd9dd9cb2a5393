package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestBillingStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to BillingStatus
		allowed  bool
	}{
		{BillingStatusRegistered, BillingStatusPartialPaid, true},
		{BillingStatusRegistered, BillingStatusPaid, true},
		{BillingStatusPartialPaid, BillingStatusPaid, true},
		{BillingStatusPaid, BillingStatusPartialPaid, false},
		{BillingStatusPaid, BillingStatusRegistered, false},
		{BillingStatusPartialPaid, BillingStatusRegistered, false},
		{BillingStatusCancelled, BillingStatusPaid, false},
		{BillingStatusCancelled, BillingStatusPartialPaid, false},
		{BillingStatusPaid, BillingStatusPaid, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Errorf("%s -> %s = %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestWebhookEventStatusTerminal(t *testing.T) {
	if !WebhookEventStatusRejected.IsTerminal() || !WebhookEventStatusProcessed.IsTerminal() {
		t.Error("rejected and processed must be terminal")
	}
	if WebhookEventStatusReceived.IsTerminal() || WebhookEventStatusDispatched.IsTerminal() {
		t.Error("received and dispatched must not be terminal")
	}
}

func TestIdempotencyKeyStability(t *testing.T) {
	event := PaymentEvent{
		ProviderCode: "kbzpay",
		OurNumber:    "INV-1",
		AmountPaid:   decimal.NewFromInt(100),
		PaymentDate:  time.Date(2026, 8, 15, 10, 30, 0, 0, time.UTC),
		SourceType:   EventSourceWebhook,
	}
	key := event.IdempotencyKey()
	if len(key) != 64 {
		t.Fatalf("key length = %d, want 64 hex chars", len(key))
	}

	// Time of day must not matter, only the calendar date.
	shifted := event
	shifted.PaymentDate = time.Date(2026, 8, 15, 23, 59, 0, 0, time.UTC)
	if shifted.IdempotencyKey() != key {
		t.Error("same calendar date produced a different key")
	}

	nextDay := event
	nextDay.PaymentDate = nextDay.PaymentDate.AddDate(0, 0, 1)
	if nextDay.IdempotencyKey() == key {
		t.Error("different payment date produced the same key")
	}

	batch := event
	batch.SourceType = EventSourceBatch
	if batch.IdempotencyKey() == key {
		t.Error("different source type produced the same key")
	}

	otherProvider := event
	otherProvider.ProviderCode = "ayapay"
	if otherProvider.IdempotencyKey() == key {
		t.Error("different provider produced the same key")
	}
}

func TestPaymentEventValidate(t *testing.T) {
	valid := PaymentEvent{
		ProviderCode: "kbzpay",
		OurNumber:    "INV-1",
		AmountPaid:   decimal.NewFromInt(100),
		PaymentDate:  time.Now(),
		SourceType:   EventSourceWebhook,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid event rejected: %v", err)
	}

	negative := valid
	negative.AmountPaid = decimal.NewFromInt(-1)
	if negative.Validate() == nil {
		t.Error("negative amount accepted")
	}

	blank := valid
	blank.OurNumber = ""
	if blank.Validate() == nil {
		t.Error("blank our number accepted")
	}

	noDate := valid
	noDate.PaymentDate = time.Time{}
	if noDate.Validate() == nil {
		t.Error("zero payment date accepted")
	}
}
