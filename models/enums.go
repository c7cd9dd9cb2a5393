package models

type BillingStatus string

const (
	BillingStatusRegistered  BillingStatus = "Registered"
	BillingStatusPartialPaid BillingStatus = "PartialPaid"
	BillingStatusPaid        BillingStatus = "Paid"
	BillingStatusCancelled   BillingStatus = "Cancelled"
)

// statusRank orders billing statuses for the monotonicity rule:
// a billing never moves to a lower-ranked status. Cancelled is terminal.
func (s BillingStatus) statusRank() int {
	switch s {
	case BillingStatusRegistered:
		return 0
	case BillingStatusPartialPaid:
		return 1
	case BillingStatusPaid:
		return 2
	case BillingStatusCancelled:
		return 3
	default:
		return -1
	}
}

// CanTransitionTo reports whether moving from s to next is a forward transition.
func (s BillingStatus) CanTransitionTo(next BillingStatus) bool {
	if s == BillingStatusCancelled || s == BillingStatusPaid {
		return false
	}
	return next.statusRank() > s.statusRank()
}

type EventSourceType string

const (
	EventSourceWebhook EventSourceType = "webhook"
	EventSourceBatch   EventSourceType = "batch"
)

type WebhookEventStatus string

const (
	WebhookEventStatusReceived   WebhookEventStatus = "Received"
	WebhookEventStatusRejected   WebhookEventStatus = "Rejected"
	WebhookEventStatusDispatched WebhookEventStatus = "Dispatched"
	WebhookEventStatusProcessed  WebhookEventStatus = "Processed"
)

// IsTerminal reports whether the ingestion state machine has finished.
// Rejected and Processed receive exactly one terminal update each.
func (s WebhookEventStatus) IsTerminal() bool {
	return s == WebhookEventStatusRejected || s == WebhookEventStatusProcessed
}

type OutcomeKind string

const (
	OutcomeSuccess  OutcomeKind = "Success"
	OutcomeSkipped  OutcomeKind = "Skipped"
	OutcomeNotFound OutcomeKind = "NotFound"
	OutcomeError    OutcomeKind = "Error"
)

type SettlementRunStatus string

const (
	SettlementRunStatusQueued  SettlementRunStatus = "Queued"
	SettlementRunStatusRunning SettlementRunStatus = "Running"
	SettlementRunStatusSuccess SettlementRunStatus = "Success"
	SettlementRunStatusPartial SettlementRunStatus = "Partial"
	SettlementRunStatusFailed  SettlementRunStatus = "Failed"
)

const (
	RunTriggeredManual = "manual"
	RunTriggeredRetry  = "retry"
	RunTriggeredSystem = "system"
)

const (
	OutboxPublishStatusPending    = "PENDING"
	OutboxPublishStatusProcessing = "PROCESSING"
	OutboxPublishStatusPublished  = "PUBLISHED"
	OutboxPublishStatusFailed     = "FAILED"
	OutboxPublishStatusDead       = "DEAD"
)
