package ingest

import (
	"encoding/base64"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"bitbucket.org/mmdatafocus/billing_recon/config"
	"github.com/gin-gonic/gin"
)

func TestResolveBusinessID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("POST", "/settlements", nil)
	if _, err := resolveBusinessID(c); err == nil {
		t.Error("missing header accepted")
	}

	c.Request.Header.Set("X-Business-Id", "  biz-1  ")
	businessId, err := resolveBusinessID(c)
	if err != nil {
		t.Fatalf("resolveBusinessID: %v", err)
	}
	if businessId != "biz-1" {
		t.Errorf("business id = %q", businessId)
	}
}

func TestPubSubPushEnvelopeDecodesBase64Data(t *testing.T) {
	inner, _ := json.Marshal(config.SettlementRunMessage{
		RunId:         7,
		BusinessId:    "biz-1",
		CorrelationId: "corr-1",
	})
	wire := []byte(`{"message":{"data":"` + base64.StdEncoding.EncodeToString(inner) + `","messageId":"m1"},"subscription":"s"}`)

	var envelope PubSubPushEnvelope
	if err := json.Unmarshal(wire, &envelope); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}

	var msg config.SettlementRunMessage
	if err := json.Unmarshal(envelope.Message.Data, &msg); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	if msg.RunId != 7 || msg.BusinessId != "biz-1" {
		t.Errorf("decoded message = %+v", msg)
	}
}

func TestEnvBoolDefault(t *testing.T) {
	t.Setenv("INGEST_TEST_FLAG", "")
	if !envBoolDefault("INGEST_TEST_FLAG", true) {
		t.Error("unset should fall back to default")
	}
	t.Setenv("INGEST_TEST_FLAG", "false")
	if envBoolDefault("INGEST_TEST_FLAG", true) {
		t.Error("explicit false ignored")
	}
	t.Setenv("INGEST_TEST_FLAG", "YES")
	if !envBoolDefault("INGEST_TEST_FLAG", false) {
		t.Error("yes not recognized")
	}
}
