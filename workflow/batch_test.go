package workflow

import (
	"testing"

	"bitbucket.org/mmdatafocus/billing_recon/models"
)

func TestAggregateStatus(t *testing.T) {
	cases := []struct {
		name     string
		statuses []models.BillingStatus
		want     models.BillingStatus
		changed  bool
	}{
		{
			name:     "all paid",
			statuses: []models.BillingStatus{models.BillingStatusPaid, models.BillingStatusPaid},
			want:     models.BillingStatusPaid,
			changed:  true,
		},
		{
			name:     "mixed paid and registered",
			statuses: []models.BillingStatus{models.BillingStatusPaid, models.BillingStatusRegistered},
			want:     models.BillingStatusPartialPaid,
			changed:  true,
		},
		{
			name:     "partial member",
			statuses: []models.BillingStatus{models.BillingStatusPartialPaid, models.BillingStatusRegistered},
			want:     models.BillingStatusPartialPaid,
			changed:  true,
		},
		{
			name:     "nothing advanced",
			statuses: []models.BillingStatus{models.BillingStatusRegistered, models.BillingStatusRegistered},
			changed:  false,
		},
		{
			name:     "cancelled members ignored for all-paid",
			statuses: []models.BillingStatus{models.BillingStatusPaid, models.BillingStatusCancelled},
			want:     models.BillingStatusPaid,
			changed:  true,
		},
		{
			name:     "only cancelled members",
			statuses: []models.BillingStatus{models.BillingStatusCancelled},
			changed:  false,
		},
		{
			name:     "empty batch",
			statuses: nil,
			changed:  false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, changed := AggregateStatus(tc.statuses)
			if changed != tc.changed {
				t.Fatalf("changed = %v, want %v", changed, tc.changed)
			}
			if changed && got != tc.want {
				t.Errorf("status = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestAggregateStatusIsPure(t *testing.T) {
	statuses := []models.BillingStatus{models.BillingStatusPaid, models.BillingStatusRegistered}
	first, _ := AggregateStatus(statuses)
	second, _ := AggregateStatus(statuses)
	if first != second {
		t.Fatalf("same input produced %s then %s", first, second)
	}
	if statuses[0] != models.BillingStatusPaid || statuses[1] != models.BillingStatusRegistered {
		t.Fatal("input slice was mutated")
	}
}

func TestProcessingSummaryRecord(t *testing.T) {
	var s ProcessingSummary
	s = s.Record(models.OutcomeSuccess)
	s = s.Record(models.OutcomeSuccess)
	s = s.Record(models.OutcomeSkipped)
	s = s.Record(models.OutcomeNotFound)
	s = s.Record(models.OutcomeError)

	if s.Total != 5 || s.Succeeded != 2 || s.Skipped != 1 || s.NotFound != 1 || s.Failed != 1 {
		t.Fatalf("summary = %+v", s)
	}
}

func TestProcessingSummaryDoesNotMutateReceiver(t *testing.T) {
	base := ProcessingSummary{Total: 3, Succeeded: 3}
	_ = base.Record(models.OutcomeError)
	if base.Total != 3 || base.Failed != 0 {
		t.Fatalf("receiver mutated: %+v", base)
	}
}

func TestProcessingSummaryRunStatus(t *testing.T) {
	clean := ProcessingSummary{Total: 10, Succeeded: 8, Skipped: 2}
	if got := clean.RunStatus(); got != models.SettlementRunStatusSuccess {
		t.Errorf("clean run = %s, want Success", got)
	}

	degraded := ProcessingSummary{Total: 10, Succeeded: 8, NotFound: 2}
	if got := degraded.RunStatus(); got != models.SettlementRunStatusPartial {
		t.Errorf("degraded run = %s, want Partial", got)
	}

	dead := ProcessingSummary{Total: 3, Failed: 3}
	if got := dead.RunStatus(); got != models.SettlementRunStatusFailed {
		t.Errorf("all-failed run = %s, want Failed", got)
	}

	empty := ProcessingSummary{}
	if got := empty.RunStatus(); got != models.SettlementRunStatusSuccess {
		t.Errorf("empty run = %s, want Success", got)
	}
}
