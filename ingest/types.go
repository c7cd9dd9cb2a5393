// Package ingest is the inbound edge of the reconciliation service: provider
// webhook callbacks, settlement file submissions, and the run management API
// around them.
package ingest

import (
	"errors"
	"os"
	"strings"

	"bitbucket.org/mmdatafocus/billing_recon/models"
	"bitbucket.org/mmdatafocus/billing_recon/workflow"
	"github.com/gin-gonic/gin"
)

// PubSubPushEnvelope is the Pub/Sub push delivery wrapper. Data is
// base64-encoded on the wire; byte-slice unmarshalling decodes it.
type PubSubPushEnvelope struct {
	Message struct {
		Data       []byte            `json:"data,omitempty"`
		Attributes map[string]string `json:"attributes"`
		MessageId  string            `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// WebhookResponse is returned to the provider once the event reached a
// terminal state. Providers only act on the HTTP status code; the body is for
// operators replaying deliveries by hand.
type WebhookResponse struct {
	EventId       int                       `json:"event_id"`
	Status        models.WebhookEventStatus `json:"status"`
	Outcome       models.OutcomeKind        `json:"outcome,omitempty"`
	CorrelationId string                    `json:"correlation_id"`
}

type SubmitRunResponse struct {
	RunId         int                          `json:"run_id"`
	Status        models.SettlementRunStatus   `json:"status"`
	Summary       *workflow.ProcessingSummary  `json:"summary,omitempty"`
	Rows          []models.SettlementRowDetail `json:"rows,omitempty"`
	CorrelationId string                       `json:"correlation_id"`
}

type RunResponse struct {
	Run  models.SettlementFileRun     `json:"run"`
	Rows []models.SettlementRowDetail `json:"rows,omitempty"`
}

var errMissingBusiness = errors.New("business id is required")

// resolveBusinessID reads the tenant from the X-Business-Id header set by the
// internal gateway. Webhook routes carry it in the path instead, since
// providers cannot send custom headers.
func resolveBusinessID(c *gin.Context) (string, error) {
	businessId := strings.TrimSpace(c.GetHeader("X-Business-Id"))
	if businessId == "" {
		return "", errMissingBusiness
	}
	return businessId, nil
}

func envBoolDefault(key string, def bool) bool {
	val := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch val {
	case "true", "1", "yes", "y", "on":
		return true
	case "false", "0", "no", "n", "off":
		return false
	default:
		return def
	}
}
