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

// AYA Pay signs the raw request body with HMAC-SHA256; amounts come in
// integer minor units (pya).
const ayapayHeaderSignature = "X-Aya-Signature"

type ayapayAdapter struct{}

func init() {
	Register(ayapayAdapter{})
}

func (ayapayAdapter) Code() string { return "ayapay" }

func (ayapayAdapter) VerifySignature(body []byte, header http.Header, secret string) error {
	if secret == "" {
		// An empty key is computable by anyone; never accept a digest over it.
		return models.ErrMissingSecret
	}
	signature := strings.TrimSpace(header.Get(ayapayHeaderSignature))
	if signature == "" {
		return fmt.Errorf("%w: missing %s header", models.ErrInvalidSignature, ayapayHeaderSignature)
	}
	want := hmacSHA256Hex(secret, body)
	if !digestsEqual(want, signature) {
		return models.ErrInvalidSignature
	}
	return nil
}

type ayapayPayload struct {
	ReferenceNumber string `json:"referenceNumber"`
	PaidAmount      int64  `json:"paidAmount"`
	PaymentDate     string `json:"paymentDate"`
	CreditDate      string `json:"creditDate"`
	AuthCode        string `json:"authCode"`
	Channel         string `json:"channel"`
}

func (ayapayAdapter) ParseEvent(body []byte, header http.Header) (models.PaymentEvent, error) {
	var p ayapayPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return models.PaymentEvent{}, fmt.Errorf("ayapay payload: %w", err)
	}

	paymentDate, err := time.Parse("20060102", p.PaymentDate)
	if err != nil {
		return models.PaymentEvent{}, fmt.Errorf("ayapay paymentDate %q: %w", p.PaymentDate, err)
	}

	event := models.PaymentEvent{
		ProviderCode:       "ayapay",
		OurNumber:          strings.TrimSpace(p.ReferenceNumber),
		AmountPaid:         decimal.New(p.PaidAmount, -2),
		PaymentDate:        paymentDate,
		AuthenticationCode: p.AuthCode,
		Channel:            p.Channel,
		SourceType:         models.EventSourceWebhook,
	}
	if p.CreditDate != "" {
		if creditDate, err := time.Parse("20060102", p.CreditDate); err == nil {
			event.CreditDate = &creditDate
		}
	}
	if err := event.Validate(); err != nil {
		return models.PaymentEvent{}, fmt.Errorf("ayapay event: %w", err)
	}
	return event, nil
}
