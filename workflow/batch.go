package workflow

import (
	"context"

	"bitbucket.org/mmdatafocus/billing_recon/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AggregateStatus derives a batch status from its members' statuses read at
// update time. Cancelled members do not count toward "all paid". Returns
// false when the inputs imply no change (no member has advanced yet, or the
// batch has no members to consider).
func AggregateStatus(statuses []models.BillingStatus) (models.BillingStatus, bool) {
	allPaid := true
	anyAdvanced := false
	considered := 0
	for _, s := range statuses {
		if s == models.BillingStatusCancelled {
			continue
		}
		considered++
		switch s {
		case models.BillingStatusPaid:
			anyAdvanced = true
		case models.BillingStatusPartialPaid:
			anyAdvanced = true
			allPaid = false
		default:
			allPaid = false
		}
	}
	if considered == 0 || !anyAdvanced {
		return "", false
	}
	if allPaid {
		return models.BillingStatusPaid, true
	}
	return models.BillingStatusPartialPaid, true
}

// RecomputeBatchStatus re-reads every member billing inside the caller's
// transaction and writes the derived status. The batch row is locked first so
// concurrent reconciliations of sibling billings serialize their recomputes
// instead of racing to a stale aggregate.
func RecomputeBatchStatus(ctx context.Context, tx *gorm.DB, batchId int) error {
	var batch models.BillingBatch
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", batchId).
		Take(&batch).Error; err != nil {
		return err
	}

	var statuses []models.BillingStatus
	if err := tx.WithContext(ctx).
		Model(&models.Billing{}).
		Where("batch_id = ?", batchId).
		Pluck("status", &statuses).Error; err != nil {
		return err
	}

	next, changed := AggregateStatus(statuses)
	if !changed || next == batch.Status {
		return nil
	}
	return tx.WithContext(ctx).
		Model(&models.BillingBatch{}).
		Where("id = ?", batchId).
		Update("status", next).Error
}
