package workflow

import (
	"fmt"

	"gorm.io/gorm"
)

// AcquireBillingPostingLock serializes postings per billing across instances using MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same *gorm.DB that will do the posting transaction.
func AcquireBillingPostingLock(tx *gorm.DB, billingId int) error {
	lockName := fmt.Sprintf("billing_posting:%d", billingId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire posting lock for billing_id=%d", billingId)
	}
	return nil
}

func ReleaseBillingPostingLock(tx *gorm.DB, billingId int) {
	lockName := fmt.Sprintf("billing_posting:%d", billingId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}
