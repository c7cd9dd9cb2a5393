package ingest

import (
	"errors"
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/billing_recon/config"
	"bitbucket.org/mmdatafocus/billing_recon/models"
	"bitbucket.org/mmdatafocus/billing_recon/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListRunsHandler pages through settlement runs for the tenant, newest first.
func ListRunsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, err := resolveBusinessID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		ctx := utils.SetBusinessIdInContext(c.Request.Context(), businessId)

		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		if limit <= 0 || limit > 200 {
			limit = 50
		}
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

		q := config.GetDB().WithContext(ctx).Model(&models.SettlementFileRun{})
		if status := c.Query("status"); status != "" {
			q = q.Where("status = ?", status)
		}
		if bankAccountId, err := strconv.Atoi(c.Query("bank_account_id")); err == nil && bankAccountId > 0 {
			q = q.Where("bank_account_id = ?", bankAccountId)
		}

		var runs []models.SettlementFileRun
		if err := q.Order("id DESC").Limit(limit).Offset(offset).Find(&runs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"runs": runs})
	}
}

// GetRunHandler returns one run with its per-row outcomes.
func GetRunHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, err := resolveBusinessID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		ctx := utils.SetBusinessIdInContext(c.Request.Context(), businessId)

		runId, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
			return
		}

		db := config.GetDB().WithContext(ctx)
		var run models.SettlementFileRun
		if err := db.Where("id = ?", runId).Take(&run).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		var rows []models.SettlementRowDetail
		if err := db.Where("run_id = ?", run.ID).Order("line_number ASC").Find(&rows).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, RunResponse{Run: run, Rows: rows})
	}
}

// RetryRunHandler creates a child run against the same archived file and
// processes it. Already-applied rows come back as Skipped via the ledger
// idempotency key, so a retry only moves the rows that previously failed.
func RetryRunHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		businessId, err := resolveBusinessID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		correlationId := c.GetHeader("X-Correlation-Id")
		if correlationId == "" {
			correlationId = uuid.NewString()
		}
		ctx := utils.SetBusinessIdInContext(c.Request.Context(), businessId)
		ctx = utils.SetCorrelationIdInContext(ctx, correlationId)

		runId, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
			return
		}

		db := config.GetDB()
		var parent models.SettlementFileRun
		if err := db.WithContext(ctx).Where("id = ?", runId).Take(&parent).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if parent.Status == models.SettlementRunStatusQueued || parent.Status == models.SettlementRunStatusRunning {
			c.JSON(http.StatusConflict, gin.H{"error": "run has not finished yet"})
			return
		}
		if parent.StorageObject == "" {
			c.JSON(http.StatusConflict, gin.H{"error": "run has no archived file"})
			return
		}

		child := models.SettlementFileRun{
			BusinessId:    businessId,
			BankAccountId: parent.BankAccountId,
			Filename:      parent.Filename,
			FileHash:      parent.FileHash,
			StorageObject: parent.StorageObject,
			Status:        models.SettlementRunStatusQueued,
			TriggeredBy:   models.RunTriggeredRetry,
			ParentRunId:   &parent.ID,
			CorrelationId: correlationId,
		}
		if err := db.WithContext(ctx).Create(&child).Error; err != nil {
			config.LogError(logger, "ingest", "RetryRunHandler", "create child run", parent.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create retry run"})
			return
		}

		summary, err := ProcessRun(ctx, child.ID, businessId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "run_id": child.ID})
			return
		}
		c.JSON(http.StatusOK, SubmitRunResponse{
			RunId:         child.ID,
			Status:        summary.RunStatus(),
			Summary:       &summary,
			CorrelationId: correlationId,
		})
	}
}
