package models

import "time"

// NotificationRecord is the transactional-outbox row for payment-confirmation
// notifications. It is written inside the reconciliation transaction and
// published asynchronously by the outbox dispatcher after commit, so a failed
// publish can never roll back a committed financial state change.
type NotificationRecord struct {
	ID               int        `gorm:"primary_key" json:"id"`
	BusinessId       string     `gorm:"size:64;not null;index" json:"business_id"`
	BillingId        int        `gorm:"not null;index" json:"billing_id"`
	Payload          []byte     `gorm:"type:json" json:"payload"`
	PublishStatus    string     `gorm:"size:20;not null;index;default:PENDING" json:"publish_status"`
	PublishAttempts  int        `gorm:"not null;default:0" json:"publish_attempts"`
	NextAttemptAt    *time.Time `json:"next_attempt_at"`
	LockedAt         *time.Time `json:"locked_at"`
	LockedBy         *string    `gorm:"size:64" json:"locked_by"`
	LastPublishError *string    `gorm:"type:text" json:"last_publish_error"`
	PubSubMessageId  *string    `gorm:"size:64" json:"pub_sub_message_id"`
	PublishedAt      *time.Time `json:"published_at"`
	CorrelationId    string     `gorm:"size:64" json:"correlation_id"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
