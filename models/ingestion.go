package models

import "time"

// WebhookEvent is the audit row for one inbound provider callback.
// State machine: Received -> {Rejected | Dispatched} -> Processed.
// The row is immutable except for a single terminal update.
type WebhookEvent struct {
	ID             int                `gorm:"primary_key" json:"id"`
	BusinessId     string             `gorm:"size:64;not null;index" json:"business_id"`
	ProviderCode   string             `gorm:"size:20;not null;index" json:"provider_code"`
	RawPayload     []byte             `gorm:"type:mediumblob" json:"raw_payload"`
	HeadersJSON    []byte             `gorm:"type:json" json:"headers"`
	SignatureValid bool               `json:"signature_valid"`
	Status         WebhookEventStatus `gorm:"size:20;not null;index" json:"status"`
	Outcome        OutcomeKind        `gorm:"size:20" json:"outcome"`
	OutcomeSummary string             `gorm:"type:text" json:"outcome_summary"`
	CorrelationId  string             `gorm:"size:64" json:"correlation_id"`
	ReceivedAt     time.Time          `gorm:"autoCreateTime" json:"received_at"`
	ProcessedAt    *time.Time         `json:"processed_at"`
}

// SettlementFileRun is the audit row for one settlement file submission.
// A run can be retried; per-row ledger idempotency makes reruns safe.
type SettlementFileRun struct {
	ID             int                 `gorm:"primary_key" json:"id"`
	BusinessId     string              `gorm:"size:64;not null;index" json:"business_id"`
	BankAccountId  int                 `gorm:"not null;index" json:"bank_account_id"`
	Filename       string              `gorm:"size:255" json:"filename"`
	FileHash       string              `gorm:"size:64;index" json:"file_hash"`
	StorageObject  string              `gorm:"size:255" json:"storage_object"`
	Layout         int                 `json:"layout"`
	Status         SettlementRunStatus `gorm:"size:20;not null;index" json:"status"`
	TriggeredBy    string              `gorm:"size:20" json:"triggered_by"`
	TotalRows      int                 `json:"total_rows"`
	ProcessedRows  int                 `json:"processed_rows"`
	SkippedRows    int                 `json:"skipped_rows"`
	NotFoundRows   int                 `json:"not_found_rows"`
	ErrorRows      int                 `json:"error_rows"`
	ParentRunId    *int                `gorm:"index" json:"parent_run_id"`
	CorrelationId  string              `gorm:"size:64" json:"correlation_id"`
	StartedAt      *time.Time          `json:"started_at"`
	FinishedAt     *time.Time          `json:"finished_at"`
	DurationMs     int64               `json:"duration_ms"`
	CreatedAt      time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

// SettlementRowDetail records the per-row outcome of a run, including parse
// errors. One bad row never aborts the rest of the file.
type SettlementRowDetail struct {
	ID         int         `gorm:"primary_key" json:"id"`
	BusinessId string      `gorm:"size:64;not null;index" json:"business_id"`
	RunId      int         `gorm:"not null;index" json:"run_id"`
	LineNumber int         `json:"line_number"`
	OurNumber  string      `gorm:"size:35" json:"our_number"`
	Outcome    OutcomeKind `gorm:"size:20;not null" json:"outcome"`
	Message    string      `gorm:"type:text" json:"message"`
	CreatedAt  time.Time   `gorm:"autoCreateTime" json:"created_at"`
}
