package models

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentEvent is the canonical, provider-agnostic confirmation signal.
// Webhook adapters and the settlement file parser both produce this shape;
// the reconciliation engine consumes nothing else.
type PaymentEvent struct {
	ProviderCode       string          `json:"provider_code"`
	OurNumber          string          `json:"our_number"`
	AmountPaid         decimal.Decimal `json:"amount_paid"`
	PaymentDate        time.Time       `json:"payment_date"`
	CreditDate         *time.Time      `json:"credit_date,omitempty"`
	AuthenticationCode string          `json:"authentication_code,omitempty"`
	Channel            string          `json:"channel,omitempty"`
	SourceType         EventSourceType `json:"source_type"`
}

func (e PaymentEvent) Validate() error {
	if e.ProviderCode == "" {
		return errors.New("provider_code is required")
	}
	if e.OurNumber == "" {
		return errors.New("our_number is required")
	}
	if e.AmountPaid.IsNegative() {
		return fmt.Errorf("amount_paid must not be negative: %s", e.AmountPaid)
	}
	if e.PaymentDate.IsZero() {
		return errors.New("payment_date is required")
	}
	return nil
}

// IdempotencyKey derives the at-most-once ledger key. The same signal
// delivered N times (webhook retries, file re-submission) always maps to the
// same key; the unique index on ledger_entries does the rest.
func (e PaymentEvent) IdempotencyKey() string {
	manifest := fmt.Sprintf("%s|%s|%s|%s",
		e.ProviderCode,
		e.OurNumber,
		e.PaymentDate.UTC().Format("2006-01-02"),
		e.SourceType,
	)
	sum := sha256.Sum256([]byte(manifest))
	return hex.EncodeToString(sum[:])
}
