package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is an append-only financial posting. The unique idempotency_key
// index is the at-most-once guarantee: inserting a duplicate is detected as a
// MySQL 1062 error and treated as a safe no-op by the engine.
type LedgerEntry struct {
	ID             int             `gorm:"primary_key" json:"id"`
	BusinessId     string          `gorm:"size:64;not null;index" json:"business_id"`
	BillingId      int             `gorm:"not null;index" json:"billing_id"`
	Amount         decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	FineAmount     decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"fine_amount"`
	InterestAmount decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"interest_amount"`
	EntryDate      time.Time       `gorm:"not null" json:"entry_date"`
	SourceType     EventSourceType `gorm:"size:10;not null" json:"source_type"`
	Channel        string          `gorm:"size:20" json:"channel"`
	IdempotencyKey string          `gorm:"size:64;not null;uniqueIndex:uniq_ledger_idem" json:"idempotency_key"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}
