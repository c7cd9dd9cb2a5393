package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Billing is a locally issued payable instrument settled through a banking
// network. It is created by billing issuance (outside this service) and
// thereafter mutated only by the reconciliation engine; never deleted.
type Billing struct {
	ID             int             `gorm:"primary_key" json:"id"`
	BusinessId     string          `gorm:"size:64;not null;uniqueIndex:uniq_billing_number,priority:1" json:"business_id"`
	ProviderCode   string          `gorm:"size:20;not null;uniqueIndex:uniq_billing_number,priority:2" json:"provider_code"`
	OurNumber      string          `gorm:"size:35;not null;uniqueIndex:uniq_billing_number,priority:3" json:"our_number"`
	FinalAmount    decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"final_amount"`
	PaidAmount     decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"paid_amount"`
	FineAmount     decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"fine_amount"`
	InterestAmount decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"interest_amount"`
	Status         BillingStatus   `gorm:"size:20;not null;index" json:"status"`
	DueDate        *time.Time      `json:"due_date"`
	BatchId        *int            `gorm:"index" json:"batch_id"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// FindBillingByOurNumber looks up the billing for an incoming payment event.
// Tenant scoping comes from the context (tenant guard plugin); the natural
// key is (provider_code, our_number).
func FindBillingByOurNumber(ctx context.Context, tx *gorm.DB, providerCode, ourNumber string) (*Billing, error) {
	var billing Billing
	err := tx.WithContext(ctx).
		Where("provider_code = ? AND our_number = ?", providerCode, ourNumber).
		Take(&billing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBillingNotFound
		}
		return nil, err
	}
	return &billing, nil
}

// BillingBatch groups billings issued and tracked together as one settlement
// unit. Its status is derived from member statuses and never set directly.
type BillingBatch struct {
	ID         int           `gorm:"primary_key" json:"id"`
	BusinessId string        `gorm:"size:64;not null;index" json:"business_id"`
	Reference  string        `gorm:"size:100" json:"reference"`
	Status     BillingStatus `gorm:"size:20;not null" json:"status"`
	CreatedAt  time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}
