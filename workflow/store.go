package workflow

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/billing_recon/models"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

// errCASMiss forces a rollback of the posting transaction when the billing
// row no longer matches the last-seen snapshot. It never escapes
// ApplyPayment.
var errCASMiss = errors.New("billing moved past last-seen snapshot")

// GormStore is the MySQL-backed Store. Each ApplyPayment call is one
// transaction: ledger insert, conditional billing update, batch aggregate
// recompute, and confirmation outbox append commit or roll back together.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) FindBilling(ctx context.Context, providerCode, ourNumber string) (*models.Billing, error) {
	return models.FindBillingByOurNumber(ctx, s.DB, providerCode, ourNumber)
}

func (s *GormStore) ApplyPayment(ctx context.Context, req ApplyPaymentRequest) (ApplyPaymentResult, error) {
	var result ApplyPaymentResult

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireBillingPostingLock(tx, req.Billing.ID); err != nil {
			return err
		}
		defer ReleaseBillingPostingLock(tx, req.Billing.ID)

		entry := models.LedgerEntry{
			BusinessId:     req.Billing.BusinessId,
			BillingId:      req.Billing.ID,
			Amount:         req.Event.AmountPaid,
			EntryDate:      req.Event.PaymentDate,
			SourceType:     req.Event.SourceType,
			Channel:        req.Event.Channel,
			IdempotencyKey: req.IdempotencyKey,
		}
		if err := tx.Create(&entry).Error; err != nil {
			if isDuplicateKeyErr(err) {
				// Same signal already posted. Commit nothing, change nothing.
				return nil
			}
			return err
		}
		result.LedgerInserted = true

		update := tx.Model(&models.Billing{}).
			Where("id = ? AND status = ? AND paid_amount = ?",
				req.Billing.ID, req.Billing.Status, req.Billing.PaidAmount).
			Updates(map[string]interface{}{
				"status":      req.NewStatus,
				"paid_amount": req.NewPaidAmount,
				"fine_amount": req.NewFineAmount,
				"updated_at":  time.Now().UTC(),
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			// Concurrent writer won. Roll back the ledger insert too so the
			// caller can retry against a fresh snapshot.
			return errCASMiss
		}
		result.BillingUpdated = true

		if req.Billing.BatchId != nil {
			if err := RecomputeBatchStatus(ctx, tx, *req.Billing.BatchId); err != nil {
				return err
			}
		}

		return models.QueueConfirmation(ctx, tx, models.ConfirmationPayload{
			BusinessId:   req.Billing.BusinessId,
			BillingId:    req.Billing.ID,
			ProviderCode: req.Event.ProviderCode,
			OurNumber:    req.Event.OurNumber,
			Amount:       req.Event.AmountPaid,
			NewStatus:    req.NewStatus,
			PaymentDate:  req.Event.PaymentDate,
			SourceType:   req.Event.SourceType,
		})
	})
	if errors.Is(err, errCASMiss) {
		return ApplyPaymentResult{StatusConflict: true}, nil
	}
	if err != nil {
		return ApplyPaymentResult{}, err
	}
	return result, nil
}
