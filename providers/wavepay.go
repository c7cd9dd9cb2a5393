package providers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/billing_recon/models"
	"github.com/shopspring/decimal"
)

// Wave Pay authenticates with a static access token rather than a
// per-request digest.
const wavepayHeaderToken = "X-Wave-Access-Token"

type wavepayAdapter struct{}

func init() {
	Register(wavepayAdapter{})
}

func (wavepayAdapter) Code() string { return "wavepay" }

func (wavepayAdapter) VerifySignature(body []byte, header http.Header, secret string) error {
	if secret == "" {
		return models.ErrMissingSecret
	}
	token := strings.TrimSpace(header.Get(wavepayHeaderToken))
	if token == "" {
		return fmt.Errorf("%w: missing %s header", models.ErrInvalidSignature, wavepayHeaderToken)
	}
	if !tokensEqual(secret, token) {
		return models.ErrInvalidSignature
	}
	return nil
}

type wavepayPayload struct {
	MerchantRef string `json:"merchant_ref"`
	Amount      string `json:"amount"`
	Timestamp   int64  `json:"timestamp"`
	Channel     string `json:"channel"`
}

func (wavepayAdapter) ParseEvent(body []byte, header http.Header) (models.PaymentEvent, error) {
	var p wavepayPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return models.PaymentEvent{}, fmt.Errorf("wavepay payload: %w", err)
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(p.Amount))
	if err != nil {
		return models.PaymentEvent{}, fmt.Errorf("wavepay amount %q: %w", p.Amount, err)
	}
	if p.Timestamp <= 0 {
		return models.PaymentEvent{}, fmt.Errorf("wavepay timestamp %d is invalid", p.Timestamp)
	}

	event := models.PaymentEvent{
		ProviderCode: "wavepay",
		OurNumber:    strings.TrimSpace(p.MerchantRef),
		AmountPaid:   amount,
		PaymentDate:  time.Unix(p.Timestamp, 0).UTC(),
		Channel:      p.Channel,
		SourceType:   models.EventSourceWebhook,
	}
	if err := event.Validate(); err != nil {
		return models.PaymentEvent{}, fmt.Errorf("wavepay event: %w", err)
	}
	return event, nil
}
