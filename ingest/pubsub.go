package ingest

import (
	"encoding/json"
	"io"
	"net/http"

	"bitbucket.org/mmdatafocus/billing_recon/config"
	"bitbucket.org/mmdatafocus/billing_recon/utils"
	"github.com/gin-gonic/gin"
)

// PubSubPushHandler receives queued settlement runs from the Pub/Sub push
// subscription. Malformed envelopes are acked with 204 (redelivery cannot fix
// them); a processing failure answers 500 so Pub/Sub redelivers, which is
// safe because runs are idempotent per row.
func PubSubPushHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !envBoolDefault("ENABLE_SETTLEMENT_PUSH_ENDPOINT", true) {
			c.Status(http.StatusNoContent)
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(http.StatusNoContent)
			return
		}

		var envelope PubSubPushEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			c.Status(http.StatusNoContent)
			return
		}

		var msg config.SettlementRunMessage
		if err := json.Unmarshal(envelope.Message.Data, &msg); err != nil {
			c.Status(http.StatusNoContent)
			return
		}
		if msg.RunId == 0 || msg.BusinessId == "" {
			c.Status(http.StatusNoContent)
			return
		}

		ctx := c.Request.Context()
		if msg.CorrelationId != "" {
			ctx = utils.SetCorrelationIdInContext(ctx, msg.CorrelationId)
		}
		if _, err := ProcessRun(ctx, msg.RunId, msg.BusinessId); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
