package workflow

import "bitbucket.org/mmdatafocus/billing_recon/models"

// ProcessingSummary is the fold over per-event outcomes for one batch run or
// webhook stream. Value semantics: Record returns a new summary and never
// mutates the receiver, so partial summaries can be snapshotted mid-run.
type ProcessingSummary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Skipped   int `json:"skipped"`
	NotFound  int `json:"not_found"`
	Failed    int `json:"failed"`
}

func (s ProcessingSummary) Record(kind models.OutcomeKind) ProcessingSummary {
	s.Total++
	switch kind {
	case models.OutcomeSuccess:
		s.Succeeded++
	case models.OutcomeSkipped:
		s.Skipped++
	case models.OutcomeNotFound:
		s.NotFound++
	default:
		s.Failed++
	}
	return s
}

// RunStatus maps a finished summary onto the settlement run status. NotFound
// and parse failures degrade a run to Partial; a run where nothing at all
// could be applied is Failed.
func (s ProcessingSummary) RunStatus() models.SettlementRunStatus {
	if s.Failed == 0 && s.NotFound == 0 {
		return models.SettlementRunStatusSuccess
	}
	if s.Succeeded > 0 || s.Skipped > 0 {
		return models.SettlementRunStatusPartial
	}
	return models.SettlementRunStatusFailed
}
