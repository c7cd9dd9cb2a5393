package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/billing_recon/config"
	"bitbucket.org/mmdatafocus/billing_recon/utils"
	"gorm.io/gorm"
)

// BankAccount is the originating bank-account configuration for one provider
// within a tenant: the webhook shared secret (or static access token) and the
// settlement file linkage.
type BankAccount struct {
	ID            int        `gorm:"primary_key" json:"id"`
	BusinessId    string     `gorm:"size:64;not null;uniqueIndex:uniq_bank_account,priority:1" json:"business_id"`
	ProviderCode  string     `gorm:"size:20;not null;uniqueIndex:uniq_bank_account,priority:2" json:"provider_code"`
	AccountNumber string     `gorm:"size:34" json:"account_number"`
	BranchCode    string     `gorm:"size:10" json:"branch_code"`
	SharedSecret  string     `gorm:"type:text" json:"-"`
	NotifyPhone   string     `gorm:"size:20" json:"notify_phone"`
	IsActive      *bool      `gorm:"default:true" json:"is_active"`
	LastFileAt    *time.Time `json:"last_file_at"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func bankAccountCacheKey(businessId, providerCode string) string {
	return fmt.Sprintf("BankAccount:%s:%s", businessId, providerCode)
}

// FindBankAccount resolves the bank-account configuration for a provider,
// Redis-cached since every webhook delivery needs it.
func FindBankAccount(ctx context.Context, businessId, providerCode string) (*BankAccount, error) {
	var account BankAccount
	exists, err := config.GetRedisObject(bankAccountCacheKey(businessId, providerCode), &account)
	if err == nil && exists {
		return &account, nil
	}

	db := config.GetDB()
	if db == nil {
		return nil, errors.New("db is nil")
	}
	err = db.WithContext(ctx).
		Where("business_id = ? AND provider_code = ?", businessId, providerCode).
		Take(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}

	// Cache failures are non-fatal.
	_ = config.SetRedisObject(bankAccountCacheKey(businessId, providerCode), &account, 10*time.Minute)
	return &account, nil
}

// FindBankAccountById loads a bank account by primary key within the tenant.
func FindBankAccountById(ctx context.Context, id int) (*BankAccount, error) {
	db := config.GetDB()
	if db == nil {
		return nil, errors.New("db is nil")
	}
	var account BankAccount
	err := db.WithContext(ctx).Where("id = ?", id).Take(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &account, nil
}

// InvalidateBankAccountCache drops the cached configuration after an update.
func InvalidateBankAccountCache(businessId, providerCode string) error {
	return config.RemoveRedisKey(bankAccountCacheKey(businessId, providerCode))
}
