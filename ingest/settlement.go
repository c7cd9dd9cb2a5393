package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/billing_recon/config"
	"bitbucket.org/mmdatafocus/billing_recon/models"
	"bitbucket.org/mmdatafocus/billing_recon/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxSettlementFile = 32 << 20 // 32 MiB

// SubmitSettlementHandler accepts one settlement file for a bank account.
// The raw file is archived to GCS before any processing so a crashed or
// partial run can always be retried from the original bytes. With
// ?async=true the run is queued onto Pub/Sub and answered 202; otherwise it
// is processed inline.
func SubmitSettlementHandler() gin.HandlerFunc {
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

		bankAccountId, err := strconv.Atoi(c.PostForm("bank_account_id"))
		if err != nil || bankAccountId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bank_account_id is required"})
			return
		}
		account, err := models.FindBankAccountById(ctx, bankAccountId)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "bank account not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if account.IsActive != nil && !*account.IsActive {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bank account is inactive"})
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}
		if fileHeader.Size > maxSettlementFile {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file too large"})
			return
		}
		f, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
			return
		}
		defer f.Close()
		raw, err := io.ReadAll(io.LimitReader(f, maxSettlementFile))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
			return
		}
		if len(raw) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is empty"})
			return
		}

		sum := sha256.Sum256(raw)
		run := models.SettlementFileRun{
			BusinessId:    businessId,
			BankAccountId: account.ID,
			Filename:      fileHeader.Filename,
			FileHash:      hex.EncodeToString(sum[:]),
			Status:        models.SettlementRunStatusQueued,
			TriggeredBy:   models.RunTriggeredManual,
			CorrelationId: correlationId,
		}
		db := config.GetDB()
		if err := db.WithContext(ctx).Create(&run).Error; err != nil {
			config.LogError(logger, "ingest", "SubmitSettlementHandler", "create run", businessId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create run"})
			return
		}

		objectName := fmt.Sprintf("settlements/%s/%d-%s", businessId, run.ID, fileHeader.Filename)
		if err := utils.ArchiveSettlementFile(ctx, objectName, raw); err != nil {
			config.LogError(logger, "ingest", "SubmitSettlementHandler", "archive file", objectName, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not archive file"})
			return
		}
		_ = db.WithContext(ctx).Model(&models.SettlementFileRun{}).
			Where("id = ?", run.ID).
			Update("storage_object", objectName).Error
		run.StorageObject = objectName

		if c.Query("async") == "true" {
			msg := config.SettlementRunMessage{
				RunId:         run.ID,
				BusinessId:    businessId,
				CorrelationId: correlationId,
			}
			if _, err := config.PublishSettlementRun(ctx, msg); err != nil {
				config.LogError(logger, "ingest", "SubmitSettlementHandler", "publish run", run.ID, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not queue run"})
				return
			}
			c.JSON(http.StatusAccepted, SubmitRunResponse{
				RunId:         run.ID,
				Status:        models.SettlementRunStatusQueued,
				CorrelationId: correlationId,
			})
			return
		}

		summary, err := ProcessRun(ctx, run.ID, businessId)
		if err != nil {
			config.LogError(logger, "ingest", "SubmitSettlementHandler", "process run", run.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "run_id": run.ID})
			return
		}

		// Synchronous submissions get the per-row outcomes inline; async
		// callers poll GET /settlements/runs/:id instead.
		var rows []models.SettlementRowDetail
		if err := db.WithContext(ctx).
			Where("run_id = ?", run.ID).
			Order("line_number").
			Find(&rows).Error; err != nil {
			config.LogError(logger, "ingest", "SubmitSettlementHandler", "load row detail", run.ID, err)
		}
		c.JSON(http.StatusOK, SubmitRunResponse{
			RunId:         run.ID,
			Status:        summary.RunStatus(),
			Summary:       &summary,
			Rows:          rows,
			CorrelationId: correlationId,
		})
	}
}
