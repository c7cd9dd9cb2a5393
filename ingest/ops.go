package ingest

import (
	"net/http"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/billing_recon/config"
	"bitbucket.org/mmdatafocus/billing_recon/models"
	"bitbucket.org/mmdatafocus/billing_recon/utils"
	"github.com/gin-gonic/gin"
)

type notificationReplayRequest struct {
	BusinessId string `json:"business_id"`
	RecordId   int    `json:"record_id"`
}

// NotificationReplayHandler re-arms a DEAD or FAILED confirmation outbox row
// so the dispatcher picks it up again.
func NotificationReplayHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req notificationReplayRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if req.BusinessId == "" || req.RecordId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "business_id and record_id are required"})
			return
		}

		db := config.GetDB()
		if db == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "db is nil"})
			return
		}
		now := time.Now().UTC()
		if err := db.WithContext(c.Request.Context()).
			Model(&models.NotificationRecord{}).
			Where("id = ? AND business_id = ?", req.RecordId, req.BusinessId).
			Updates(map[string]interface{}{
				"publish_status":     models.OutboxPublishStatusFailed,
				"next_attempt_at":    &now,
				"locked_at":          nil,
				"locked_by":          nil,
				"last_publish_error": nil,
			}).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"business_id":     req.BusinessId,
			"record_id":       req.RecordId,
			"publish_status":  models.OutboxPublishStatusFailed,
			"next_attempt_at": now.Format(time.RFC3339Nano),
		})
	}
}

type bankAccountUpsertRequest struct {
	ProviderCode  string `json:"provider_code" binding:"required"`
	AccountNumber string `json:"account_number"`
	BranchCode    string `json:"branch_code"`
	SharedSecret  string `json:"shared_secret"`
	NotifyPhone   string `json:"notify_phone"`
	PhoneRegion   string `json:"phone_region"`
	IsActive      *bool  `json:"is_active"`
}

// BankAccountUpsertHandler creates or updates the per-provider bank account
// configuration, including the webhook shared secret. The Redis cache entry
// is dropped so the next webhook delivery sees the new secret.
func BankAccountUpsertHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, err := resolveBusinessID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		ctx := utils.SetBusinessIdInContext(c.Request.Context(), businessId)

		var req bankAccountUpsertRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.BindingErrorMessage(err)})
			return
		}
		providerCode := strings.ToLower(strings.TrimSpace(req.ProviderCode))
		if providerCode == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "provider_code is required"})
			return
		}
		notifyPhone := ""
		if req.NotifyPhone != "" {
			normalized, err := utils.NormalizePhone(req.NotifyPhone, req.PhoneRegion)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "notify_phone: " + err.Error()})
				return
			}
			notifyPhone = normalized
		}

		db := config.GetDB().WithContext(ctx)
		var account models.BankAccount
		err = db.Where("business_id = ? AND provider_code = ?", businessId, providerCode).
			Take(&account).Error
		if err != nil {
			account = models.BankAccount{
				BusinessId:    businessId,
				ProviderCode:  providerCode,
				AccountNumber: req.AccountNumber,
				BranchCode:    req.BranchCode,
				SharedSecret:  req.SharedSecret,
				NotifyPhone:   notifyPhone,
				IsActive:      req.IsActive,
			}
			if err := db.Create(&account).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
		} else {
			update := map[string]interface{}{
				"account_number": req.AccountNumber,
				"branch_code":    req.BranchCode,
			}
			if notifyPhone != "" {
				update["notify_phone"] = notifyPhone
			}
			if req.SharedSecret != "" {
				update["shared_secret"] = req.SharedSecret
			}
			if req.IsActive != nil {
				update["is_active"] = req.IsActive
			}
			if err := db.Model(&account).Updates(update).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
		}

		_ = models.InvalidateBankAccountCache(businessId, providerCode)
		c.JSON(http.StatusOK, gin.H{"id": account.ID, "provider_code": providerCode})
	}
}
