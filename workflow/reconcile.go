// Package workflow holds the reconciliation engine: the code that turns
// canonical payment events into ledger entries and billing status changes.
// All financial writes in the service flow through Reconciler.Apply.
package workflow

import (
	"context"
	"errors"
	"fmt"

	"bitbucket.org/mmdatafocus/billing_recon/config"
	"bitbucket.org/mmdatafocus/billing_recon/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Store is the persistence boundary of the engine. The engine never issues
// ad hoc queries; everything it needs is one of these operations.
type Store interface {
	FindBilling(ctx context.Context, providerCode, ourNumber string) (*models.Billing, error)
	ApplyPayment(ctx context.Context, req ApplyPaymentRequest) (ApplyPaymentResult, error)
}

// ApplyPaymentRequest carries one conditional posting. Billing is the
// last-seen snapshot; the store must refuse the write if the row has moved
// past that snapshot (compare-and-swap, not a blind overwrite).
type ApplyPaymentRequest struct {
	Billing        models.Billing
	Event          models.PaymentEvent
	IdempotencyKey string
	NewPaidAmount  decimal.Decimal
	NewFineAmount  decimal.Decimal
	NewStatus      models.BillingStatus
}

type ApplyPaymentResult struct {
	// LedgerInserted is false when the idempotency key already existed,
	// which makes the whole call a safe no-op.
	LedgerInserted bool
	// StatusConflict means the billing row no longer matched the last-seen
	// snapshot. The store rolled everything back, ledger entry included.
	StatusConflict bool
	BillingUpdated bool
}

// Outcome is the per-event result recorded into the processing summary and
// the audit tables. A failing event yields an Outcome, never a panic or an
// abort of sibling events.
type Outcome struct {
	Kind      models.OutcomeKind
	BillingId int
	NewStatus models.BillingStatus
	Reason    string
}

type Reconciler struct {
	Store  Store
	Logger *logrus.Logger
}

func NewReconciler(store Store, logger *logrus.Logger) *Reconciler {
	return &Reconciler{Store: store, Logger: logger}
}

// casRetries bounds re-reads after a concurrent writer moved the billing
// between our read and our conditional write.
const casRetries = 2

// Apply reconciles one payment event. Delivery is at-least-once, so the same
// event may arrive any number of times; every path through this function is
// idempotent.
func (r *Reconciler) Apply(ctx context.Context, event models.PaymentEvent) Outcome {
	if err := event.Validate(); err != nil {
		return Outcome{Kind: models.OutcomeError, Reason: err.Error()}
	}

	for attempt := 0; attempt <= casRetries; attempt++ {
		billing, err := r.Store.FindBilling(ctx, event.ProviderCode, event.OurNumber)
		if errors.Is(err, models.ErrBillingNotFound) {
			return Outcome{Kind: models.OutcomeNotFound, Reason: fmt.Sprintf("no billing for our_number=%s provider=%s", event.OurNumber, event.ProviderCode)}
		}
		if err != nil {
			r.logError("Apply", "find billing", event, err)
			return Outcome{Kind: models.OutcomeError, Reason: err.Error()}
		}

		if billing.Status == models.BillingStatusPaid || billing.Status == models.BillingStatusCancelled {
			return Outcome{
				Kind:      models.OutcomeSkipped,
				BillingId: billing.ID,
				NewStatus: billing.Status,
				Reason:    models.ErrAlreadyProcessed.Error() + ": " + string(billing.Status),
			}
		}

		req := buildApplyRequest(*billing, event)
		result, err := r.Store.ApplyPayment(ctx, req)
		if err != nil {
			r.logError("Apply", "apply payment", event, err)
			return Outcome{Kind: models.OutcomeError, BillingId: billing.ID, Reason: err.Error()}
		}
		if !result.LedgerInserted {
			return Outcome{
				Kind:      models.OutcomeSkipped,
				BillingId: billing.ID,
				NewStatus: billing.Status,
				Reason:    "duplicate event, ledger entry already exists",
			}
		}
		if result.StatusConflict {
			// Another writer moved the billing first. Re-read and retry
			// with the fresh snapshot.
			continue
		}
		return Outcome{Kind: models.OutcomeSuccess, BillingId: billing.ID, NewStatus: req.NewStatus}
	}

	r.logError("Apply", "status conflict retries exhausted", event, models.ErrStatusConflict)
	return Outcome{Kind: models.OutcomeError, Reason: models.ErrStatusConflict.Error()}
}

// buildApplyRequest computes the target state for one event against a billing
// snapshot. Paid is reached on the cumulative paid amount, so partial
// payments accumulate across events. Amounts beyond the face amount fold into
// the fine column for reporting and never affect the paid decision.
func buildApplyRequest(billing models.Billing, event models.PaymentEvent) ApplyPaymentRequest {
	newPaid := billing.PaidAmount.Add(event.AmountPaid)

	newStatus := models.BillingStatusPartialPaid
	if newPaid.GreaterThanOrEqual(billing.FinalAmount) {
		newStatus = models.BillingStatusPaid
	}

	// Cumulative overage is reported as fine. Informational only.
	newFine := billing.FineAmount
	if excess := newPaid.Sub(billing.FinalAmount); excess.IsPositive() {
		newFine = excess
	}

	return ApplyPaymentRequest{
		Billing:        billing,
		Event:          event,
		IdempotencyKey: event.IdempotencyKey(),
		NewPaidAmount:  newPaid,
		NewFineAmount:  newFine,
		NewStatus:      newStatus,
	}
}

func (r *Reconciler) logError(funcName, context string, event models.PaymentEvent, err error) {
	if r.Logger == nil {
		return
	}
	config.LogError(r.Logger, "workflow", funcName, context, map[string]interface{}{
		"provider_code": event.ProviderCode,
		"our_number":    event.OurNumber,
		"source_type":   event.SourceType,
	}, err)
}
