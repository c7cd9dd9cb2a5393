package models

import (
	"context"
	"encoding/json"
	"time"

	"bitbucket.org/mmdatafocus/billing_recon/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ConfirmationPayload is the notification body published for a reconciled
// payment. Delivery content beyond this envelope is owned by the notifier
// service downstream.
type ConfirmationPayload struct {
	BusinessId    string          `json:"business_id"`
	BillingId     int             `json:"billing_id"`
	ProviderCode  string          `json:"provider_code"`
	OurNumber     string          `json:"our_number"`
	Amount        decimal.Decimal `json:"amount"`
	NewStatus     BillingStatus   `json:"new_status"`
	PaymentDate   time.Time       `json:"payment_date"`
	SourceType    EventSourceType `json:"source_type"`
	CorrelationId string          `json:"correlation_id"`
}

// QueueConfirmation implements the transactional outbox: it writes the
// notification record inside the caller's DB transaction but does NOT publish
// to Pub/Sub. Publishing is performed asynchronously by the outbox dispatcher
// after commit.
func QueueConfirmation(ctx context.Context, tx *gorm.DB, payload ConfirmationPayload) error {
	payload.CorrelationId = CorrelationIdFromContextOrNew(ctx)

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	record := NotificationRecord{
		BusinessId:    payload.BusinessId,
		BillingId:     payload.BillingId,
		Payload:       body,
		PublishStatus: OutboxPublishStatusPending,
		CorrelationId: payload.CorrelationId,
	}
	return tx.Create(&record).Error
}

func CorrelationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}
