package workflow

import (
	"context"
	"strings"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/billing_recon/models"
	"github.com/shopspring/decimal"
)

// NOTE: These tests are intentionally DB-free. The fake store reproduces the
// two guarantees the MySQL store provides: the unique ledger idempotency key
// and the conditional (compare-and-swap) billing update. Full DB integration
// tests need an environment that can run MySQL.

type fakeStore struct {
	billings map[string]*models.Billing // provider|ourNumber
	ledger   map[string]models.LedgerEntry
	applied  int
	// conflictsBeforeApply simulates a concurrent writer winning the race
	// for the first N ApplyPayment calls.
	conflictsBeforeApply int
}

func newFakeStore(billings ...*models.Billing) *fakeStore {
	s := &fakeStore{
		billings: map[string]*models.Billing{},
		ledger:   map[string]models.LedgerEntry{},
	}
	for _, b := range billings {
		s.billings[b.ProviderCode+"|"+b.OurNumber] = b
	}
	return s
}

func (s *fakeStore) FindBilling(_ context.Context, providerCode, ourNumber string) (*models.Billing, error) {
	b, ok := s.billings[providerCode+"|"+ourNumber]
	if !ok {
		return nil, models.ErrBillingNotFound
	}
	snapshot := *b
	return &snapshot, nil
}

func (s *fakeStore) ApplyPayment(_ context.Context, req ApplyPaymentRequest) (ApplyPaymentResult, error) {
	if _, dup := s.ledger[req.IdempotencyKey]; dup {
		return ApplyPaymentResult{}, nil
	}
	if s.conflictsBeforeApply > 0 {
		s.conflictsBeforeApply--
		return ApplyPaymentResult{StatusConflict: true}, nil
	}
	live := s.billings[req.Billing.ProviderCode+"|"+req.Billing.OurNumber]
	if live.Status != req.Billing.Status || !live.PaidAmount.Equal(req.Billing.PaidAmount) {
		return ApplyPaymentResult{StatusConflict: true}, nil
	}
	s.ledger[req.IdempotencyKey] = models.LedgerEntry{
		BillingId:      req.Billing.ID,
		Amount:         req.Event.AmountPaid,
		IdempotencyKey: req.IdempotencyKey,
	}
	live.Status = req.NewStatus
	live.PaidAmount = req.NewPaidAmount
	live.FineAmount = req.NewFineAmount
	s.applied++
	return ApplyPaymentResult{LedgerInserted: true, BillingUpdated: true}, nil
}

func money(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func paymentEvent(ourNumber, amount string) models.PaymentEvent {
	return models.PaymentEvent{
		ProviderCode: "kbzpay",
		OurNumber:    ourNumber,
		AmountPaid:   money(amount),
		PaymentDate:  time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
		SourceType:   models.EventSourceWebhook,
	}
}

func registeredBilling(ourNumber, finalAmount string) *models.Billing {
	return &models.Billing{
		ID:           1,
		BusinessId:   "biz-1",
		ProviderCode: "kbzpay",
		OurNumber:    ourNumber,
		FinalAmount:  money(finalAmount),
		PaidAmount:   decimal.Zero,
		Status:       models.BillingStatusRegistered,
	}
}

func TestApplyFullPaymentMarksPaid(t *testing.T) {
	store := newFakeStore(registeredBilling("123", "500.00"))
	r := NewReconciler(store, nil)

	outcome := r.Apply(context.Background(), paymentEvent("123", "500.00"))

	if outcome.Kind != models.OutcomeSuccess {
		t.Fatalf("outcome = %s (%s), want Success", outcome.Kind, outcome.Reason)
	}
	if outcome.NewStatus != models.BillingStatusPaid {
		t.Errorf("new status = %s, want Paid", outcome.NewStatus)
	}
	billing := store.billings["kbzpay|123"]
	if !billing.PaidAmount.Equal(money("500.00")) {
		t.Errorf("paid amount = %s, want 500.00", billing.PaidAmount)
	}
	if len(store.ledger) != 1 {
		t.Errorf("ledger entries = %d, want 1", len(store.ledger))
	}
}

func TestApplyReplayIsSkipped(t *testing.T) {
	store := newFakeStore(registeredBilling("123", "500.00"))
	r := NewReconciler(store, nil)
	event := paymentEvent("123", "500.00")

	first := r.Apply(context.Background(), event)
	if first.Kind != models.OutcomeSuccess {
		t.Fatalf("first outcome = %s", first.Kind)
	}
	second := r.Apply(context.Background(), event)
	if second.Kind != models.OutcomeSkipped {
		t.Fatalf("replay outcome = %s, want Skipped", second.Kind)
	}
	if store.billings["kbzpay|123"].Status != models.BillingStatusPaid {
		t.Errorf("replay changed status to %s", store.billings["kbzpay|123"].Status)
	}
	if len(store.ledger) != 1 {
		t.Errorf("replay added a ledger entry: %d entries", len(store.ledger))
	}
}

func TestApplyPartialPayment(t *testing.T) {
	store := newFakeStore(registeredBilling("123", "500.00"))
	r := NewReconciler(store, nil)

	outcome := r.Apply(context.Background(), paymentEvent("123", "300.00"))

	if outcome.Kind != models.OutcomeSuccess {
		t.Fatalf("outcome = %s", outcome.Kind)
	}
	if outcome.NewStatus != models.BillingStatusPartialPaid {
		t.Errorf("new status = %s, want PartialPaid", outcome.NewStatus)
	}
	if got := store.billings["kbzpay|123"].PaidAmount; !got.Equal(money("300.00")) {
		t.Errorf("paid amount = %s, want 300.00", got)
	}
}

func TestApplyPartialPaymentsAccumulate(t *testing.T) {
	store := newFakeStore(registeredBilling("123", "500.00"))
	r := NewReconciler(store, nil)

	first := paymentEvent("123", "300.00")
	second := paymentEvent("123", "200.00")
	second.PaymentDate = second.PaymentDate.AddDate(0, 0, 1)

	if out := r.Apply(context.Background(), first); out.Kind != models.OutcomeSuccess {
		t.Fatalf("first outcome = %s", out.Kind)
	}
	out := r.Apply(context.Background(), second)
	if out.Kind != models.OutcomeSuccess {
		t.Fatalf("second outcome = %s (%s)", out.Kind, out.Reason)
	}
	if out.NewStatus != models.BillingStatusPaid {
		t.Errorf("status after 300+200 = %s, want Paid", out.NewStatus)
	}
	if got := store.billings["kbzpay|123"].PaidAmount; !got.Equal(money("500.00")) {
		t.Errorf("paid amount = %s, want 500.00", got)
	}
}

func TestApplyUnknownBillingIsNotFound(t *testing.T) {
	store := newFakeStore()
	r := NewReconciler(store, nil)

	outcome := r.Apply(context.Background(), paymentEvent("missing", "100.00"))
	if outcome.Kind != models.OutcomeNotFound {
		t.Fatalf("outcome = %s, want NotFound", outcome.Kind)
	}
	if len(store.ledger) != 0 {
		t.Errorf("not-found event created a ledger entry")
	}
}

func TestApplyNeverRegressesStatus(t *testing.T) {
	paid := registeredBilling("123", "500.00")
	paid.Status = models.BillingStatusPaid
	paid.PaidAmount = money("500.00")
	store := newFakeStore(paid)
	r := NewReconciler(store, nil)

	event := paymentEvent("123", "100.00")
	event.PaymentDate = event.PaymentDate.AddDate(0, 0, 5)
	outcome := r.Apply(context.Background(), event)

	if outcome.Kind != models.OutcomeSkipped {
		t.Fatalf("outcome = %s, want Skipped", outcome.Kind)
	}
	if !strings.Contains(outcome.Reason, models.ErrAlreadyProcessed.Error()) {
		t.Errorf("reason = %q, want already-processed", outcome.Reason)
	}
	if store.billings["kbzpay|123"].Status != models.BillingStatusPaid {
		t.Errorf("paid billing regressed to %s", store.billings["kbzpay|123"].Status)
	}
}

func TestApplyCancelledBillingIsSkipped(t *testing.T) {
	cancelled := registeredBilling("123", "500.00")
	cancelled.Status = models.BillingStatusCancelled
	store := newFakeStore(cancelled)
	r := NewReconciler(store, nil)

	outcome := r.Apply(context.Background(), paymentEvent("123", "500.00"))
	if outcome.Kind != models.OutcomeSkipped {
		t.Fatalf("outcome = %s, want Skipped", outcome.Kind)
	}
	if len(store.ledger) != 0 {
		t.Errorf("cancelled billing got a ledger entry")
	}
}

func TestApplyRetriesOnStatusConflict(t *testing.T) {
	store := newFakeStore(registeredBilling("123", "500.00"))
	store.conflictsBeforeApply = 1
	r := NewReconciler(store, nil)

	outcome := r.Apply(context.Background(), paymentEvent("123", "500.00"))
	if outcome.Kind != models.OutcomeSuccess {
		t.Fatalf("outcome after one conflict = %s (%s), want Success", outcome.Kind, outcome.Reason)
	}
	if store.applied != 1 {
		t.Errorf("applied %d times, want 1", store.applied)
	}
}

func TestApplyGivesUpAfterRepeatedConflicts(t *testing.T) {
	store := newFakeStore(registeredBilling("123", "500.00"))
	store.conflictsBeforeApply = casRetries + 1
	r := NewReconciler(store, nil)

	outcome := r.Apply(context.Background(), paymentEvent("123", "500.00"))
	if outcome.Kind != models.OutcomeError {
		t.Fatalf("outcome = %s, want Error", outcome.Kind)
	}
}

func TestApplyOverpaymentFoldsIntoFine(t *testing.T) {
	store := newFakeStore(registeredBilling("123", "500.00"))
	r := NewReconciler(store, nil)

	outcome := r.Apply(context.Background(), paymentEvent("123", "520.00"))
	if outcome.Kind != models.OutcomeSuccess {
		t.Fatalf("outcome = %s", outcome.Kind)
	}
	if outcome.NewStatus != models.BillingStatusPaid {
		t.Errorf("status = %s, want Paid", outcome.NewStatus)
	}
	billing := store.billings["kbzpay|123"]
	if !billing.FineAmount.Equal(money("20.00")) {
		t.Errorf("fine amount = %s, want 20.00", billing.FineAmount)
	}
	if !billing.PaidAmount.Equal(money("520.00")) {
		t.Errorf("paid amount = %s, want 520.00", billing.PaidAmount)
	}
}

func TestApplyInvalidEventIsError(t *testing.T) {
	store := newFakeStore()
	r := NewReconciler(store, nil)

	outcome := r.Apply(context.Background(), models.PaymentEvent{})
	if outcome.Kind != models.OutcomeError {
		t.Fatalf("outcome = %s, want Error", outcome.Kind)
	}
}
