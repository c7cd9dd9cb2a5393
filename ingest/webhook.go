package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"bitbucket.org/mmdatafocus/billing_recon/config"
	"bitbucket.org/mmdatafocus/billing_recon/models"
	"bitbucket.org/mmdatafocus/billing_recon/providers"
	"bitbucket.org/mmdatafocus/billing_recon/utils"
	"bitbucket.org/mmdatafocus/billing_recon/workflow"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxWebhookBody = 1 << 20 // 1 MiB

// WebhookHandler ingests one provider callback. Every delivery produces
// exactly one terminal, persisted WebhookEvent regardless of what happens in
// the engine: 200 once a terminal outcome is recorded (logical no-ops
// included), 401 on signature rejection, 500 only when the audit row itself
// cannot be persisted.
func WebhookHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		businessId := c.Param("business")
		providerCode := c.Param("provider")

		correlationId := c.GetHeader("X-Correlation-Id")
		if correlationId == "" {
			correlationId = uuid.NewString()
		}
		ctx := utils.SetBusinessIdInContext(c.Request.Context(), businessId)
		ctx = utils.SetCorrelationIdInContext(ctx, correlationId)
		ctx = utils.SetProviderCodeInContext(ctx, providerCode)

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
			return
		}

		headersJSON, _ := json.Marshal(c.Request.Header)
		event := models.WebhookEvent{
			BusinessId:    businessId,
			ProviderCode:  providerCode,
			RawPayload:    body,
			HeadersJSON:   headersJSON,
			Status:        models.WebhookEventStatusReceived,
			CorrelationId: correlationId,
		}
		db := config.GetDB()
		if db == nil || db.WithContext(ctx).Create(&event).Error != nil {
			// Without the audit row there is no terminal outcome to stand
			// on. This is the only path that asks the provider to redeliver.
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not persist event"})
			return
		}

		adapter, err := providers.Resolve(providerCode)
		if err != nil {
			finalizeRejected(ctx, &event, false, "unsupported provider: "+providerCode)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "correlation_id": correlationId})
			return
		}

		account, err := models.FindBankAccount(ctx, businessId, providerCode)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				finalizeRejected(ctx, &event, false, "no bank account configured")
				c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "correlation_id": correlationId})
				return
			}
			// The audit row is already durable, so the delivery still gets a
			// terminal outcome. The settlement file picks the payment up later.
			config.LogError(logger, "ingest", "WebhookHandler", "load bank account", businessId, err)
			finalizeProcessed(ctx, &event, models.OutcomeError, "bank account lookup failed: "+err.Error())
			c.JSON(http.StatusOK, terminalResponse(event))
			return
		}

		signatureValid := true
		if err := adapter.VerifySignature(body, c.Request.Header, account.SharedSecret); err != nil {
			if !config.SignatureBypassAllowed() {
				finalizeRejected(ctx, &event, false, "signature rejected: "+err.Error())
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature", "correlation_id": correlationId})
				return
			}
			signatureValid = false
			logger.WithField("provider_code", providerCode).
				WithField("business_id", businessId).
				WithField("correlation_id", correlationId).
				Warn("SIGNATURE_BYPASS active, accepting unverified webhook")
		}

		// Past the gate: from here on every outcome is terminal and answered
		// with 200.
		markDispatched(ctx, &event, signatureValid)

		paymentEvent, err := adapter.ParseEvent(body, c.Request.Header)
		if err != nil {
			finalizeProcessed(ctx, &event, models.OutcomeError, "payload parse failed: "+err.Error())
			c.JSON(http.StatusOK, terminalResponse(event))
			return
		}
		paymentEvent.SourceType = models.EventSourceWebhook

		reconciler := workflow.NewReconciler(workflow.NewGormStore(db), logger)
		outcome := reconciler.Apply(ctx, paymentEvent)
		finalizeProcessed(ctx, &event, outcome.Kind, outcome.Reason)

		c.JSON(http.StatusOK, terminalResponse(event))
	}
}

func terminalResponse(event models.WebhookEvent) WebhookResponse {
	return WebhookResponse{
		EventId:       event.ID,
		Status:        event.Status,
		Outcome:       event.Outcome,
		CorrelationId: event.CorrelationId,
	}
}

func markDispatched(ctx context.Context, event *models.WebhookEvent, signatureValid bool) {
	event.Status = models.WebhookEventStatusDispatched
	event.SignatureValid = signatureValid
	_ = config.GetDB().WithContext(ctx).
		Model(&models.WebhookEvent{}).
		Where("id = ?", event.ID).
		Updates(map[string]interface{}{
			"status":          event.Status,
			"signature_valid": signatureValid,
		}).Error
}

func finalizeRejected(ctx context.Context, event *models.WebhookEvent, signatureValid bool, summary string) {
	finalize(ctx, event, models.WebhookEventStatusRejected, models.OutcomeError, signatureValid, summary)
}

func finalizeProcessed(ctx context.Context, event *models.WebhookEvent, outcome models.OutcomeKind, summary string) {
	finalize(ctx, event, models.WebhookEventStatusProcessed, outcome, event.SignatureValid, summary)
}

// finalize performs the single terminal update of the audit row.
func finalize(ctx context.Context, event *models.WebhookEvent, status models.WebhookEventStatus, outcome models.OutcomeKind, signatureValid bool, summary string) {
	now := time.Now().UTC()
	event.Status = status
	event.Outcome = outcome
	event.OutcomeSummary = summary
	event.SignatureValid = signatureValid
	event.ProcessedAt = &now
	err := config.GetDB().WithContext(ctx).
		Model(&models.WebhookEvent{}).
		Where("id = ? AND status NOT IN ?", event.ID,
			[]models.WebhookEventStatus{models.WebhookEventStatusRejected, models.WebhookEventStatusProcessed}).
		Updates(map[string]interface{}{
			"status":          status,
			"outcome":         outcome,
			"outcome_summary": summary,
			"signature_valid": signatureValid,
			"processed_at":    &now,
		}).Error
	if err != nil {
		config.LogError(config.GetLogger(), "ingest", "finalize", "terminal update", event.ID, err)
	}
}
