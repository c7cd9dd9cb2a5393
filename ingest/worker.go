package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/billing_recon/config"
	"bitbucket.org/mmdatafocus/billing_recon/models"
	"bitbucket.org/mmdatafocus/billing_recon/settlement"
	"bitbucket.org/mmdatafocus/billing_recon/utils"
	"bitbucket.org/mmdatafocus/billing_recon/workflow"
	"github.com/bsm/redislock"
	"gorm.io/gorm"
)

// ProcessRun executes one settlement file run end to end: load the archived
// file, parse it, reconcile every row, record per-row outcomes, and finalize
// the run counters. Rerunning the same file is safe; the ledger idempotency
// key turns already-applied rows into Skipped outcomes.
func ProcessRun(ctx context.Context, runId int, businessId string) (workflow.ProcessingSummary, error) {
	logger := config.GetLogger()
	ctx = utils.SetBusinessIdInContext(ctx, businessId)
	db := config.GetDB()
	if db == nil {
		return workflow.ProcessingSummary{}, errors.New("db is not connected")
	}

	// Best effort: keep two workers off the same run. Correctness does not
	// depend on the lock, only on per-row idempotency.
	if locker := config.GetRedisLock(); locker != nil {
		lock, err := locker.Obtain(ctx, fmt.Sprintf("settlement-run:%d", runId), 5*time.Minute, nil)
		if err == nil {
			defer func() { _ = lock.Release(ctx) }()
		} else if errors.Is(err, redislock.ErrNotObtained) {
			return workflow.ProcessingSummary{}, fmt.Errorf("run %d is already being processed", runId)
		}
	}

	var run models.SettlementFileRun
	if err := db.WithContext(ctx).Where("id = ?", runId).Take(&run).Error; err != nil {
		return workflow.ProcessingSummary{}, err
	}
	if run.Status == models.SettlementRunStatusRunning {
		return workflow.ProcessingSummary{}, fmt.Errorf("run %d is already running", runId)
	}

	account, err := models.FindBankAccountById(ctx, run.BankAccountId)
	if err != nil {
		return workflow.ProcessingSummary{}, fmt.Errorf("bank account %d: %w", run.BankAccountId, err)
	}

	raw, err := utils.ReadSettlementFile(ctx, run.StorageObject)
	if err != nil {
		markRunFailed(ctx, db, run.ID, err)
		return workflow.ProcessingSummary{}, fmt.Errorf("read archived file: %w", err)
	}

	started := time.Now().UTC()
	_ = db.WithContext(ctx).Model(&models.SettlementFileRun{}).
		Where("id = ?", run.ID).
		Updates(map[string]interface{}{
			"status":     models.SettlementRunStatusRunning,
			"started_at": &started,
		}).Error

	parsed, err := settlement.Parse(raw, account.ProviderCode)
	if err != nil {
		markRunFailed(ctx, db, run.ID, err)
		return workflow.ProcessingSummary{}, err
	}

	reconciler := workflow.NewReconciler(workflow.NewGormStore(db), logger)
	var summary workflow.ProcessingSummary

	for _, rowErr := range parsed.Errors {
		summary = summary.Record(models.OutcomeError)
		recordRowDetail(ctx, db, run, rowErr.LineNumber, "", models.OutcomeError, rowErr.Message)
	}
	for _, row := range parsed.Rows {
		outcome := reconciler.Apply(ctx, row.Event)
		summary = summary.Record(outcome.Kind)
		recordRowDetail(ctx, db, run, row.LineNumber, row.Event.OurNumber, outcome.Kind, outcome.Reason)
	}

	finished := time.Now().UTC()
	err = db.WithContext(ctx).Model(&models.SettlementFileRun{}).
		Where("id = ?", run.ID).
		Updates(map[string]interface{}{
			"status":         summary.RunStatus(),
			"layout":         parsed.Layout,
			"total_rows":     summary.Total,
			"processed_rows": summary.Succeeded,
			"skipped_rows":   summary.Skipped,
			"not_found_rows": summary.NotFound,
			"error_rows":     summary.Failed,
			"finished_at":    &finished,
			"duration_ms":    finished.Sub(started).Milliseconds(),
		}).Error
	if err != nil {
		config.LogError(logger, "ingest", "ProcessRun", "finalize run", run.ID, err)
		return summary, err
	}

	_ = db.WithContext(ctx).Model(&models.BankAccount{}).
		Where("id = ?", account.ID).
		Update("last_file_at", &finished).Error

	logger.WithField("run_id", run.ID).
		WithField("business_id", businessId).
		WithField("status", string(summary.RunStatus())).
		WithField("total_rows", summary.Total).
		Info("settlement run finished")
	return summary, nil
}

// recordRowDetail upserts the per-row outcome so a retried run overwrites its
// previous attempt instead of duplicating rows.
func recordRowDetail(ctx context.Context, db *gorm.DB, run models.SettlementFileRun, lineNumber int, ourNumber string, outcome models.OutcomeKind, message string) {
	detail := models.SettlementRowDetail{
		BusinessId: run.BusinessId,
		RunId:      run.ID,
		LineNumber: lineNumber,
		OurNumber:  ourNumber,
		Outcome:    outcome,
		Message:    message,
	}
	res := db.WithContext(ctx).Model(&models.SettlementRowDetail{}).
		Where("run_id = ? AND line_number = ?", run.ID, lineNumber).
		Updates(map[string]interface{}{
			"our_number": ourNumber,
			"outcome":    outcome,
			"message":    message,
		})
	if res.Error == nil && res.RowsAffected > 0 {
		return
	}
	if err := db.WithContext(ctx).Create(&detail).Error; err != nil {
		config.LogError(config.GetLogger(), "ingest", "recordRowDetail", "insert row detail", run.ID, err)
	}
}

func markRunFailed(ctx context.Context, db *gorm.DB, runId int, cause error) {
	now := time.Now().UTC()
	msg := cause.Error()
	_ = db.WithContext(ctx).Model(&models.SettlementFileRun{}).
		Where("id = ?", runId).
		Updates(map[string]interface{}{
			"status":      models.SettlementRunStatusFailed,
			"finished_at": &now,
		}).Error
	config.LogError(config.GetLogger(), "ingest", "ProcessRun", msg, runId, cause)
}
