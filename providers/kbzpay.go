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

// KBZPay signs each callback with an HMAC-SHA256 digest over a manifest of
// event id + request id + timestamp, keyed by the merchant's shared secret.
const (
	kbzpayHeaderEventId   = "X-Kbzpay-Event-Id"
	kbzpayHeaderRequestId = "X-Kbzpay-Request-Id"
	kbzpayHeaderTimestamp = "X-Kbzpay-Timestamp"
	kbzpayHeaderSignature = "X-Kbzpay-Signature"
)

type kbzpayAdapter struct{}

func init() {
	Register(kbzpayAdapter{})
}

func (kbzpayAdapter) Code() string { return "kbzpay" }

func (kbzpayAdapter) VerifySignature(body []byte, header http.Header, secret string) error {
	if secret == "" {
		return models.ErrMissingSecret
	}
	eventId := header.Get(kbzpayHeaderEventId)
	requestId := header.Get(kbzpayHeaderRequestId)
	timestamp := header.Get(kbzpayHeaderTimestamp)
	signature := strings.TrimSpace(header.Get(kbzpayHeaderSignature))
	if eventId == "" || requestId == "" || timestamp == "" || signature == "" {
		return fmt.Errorf("%w: missing kbzpay signature headers", models.ErrInvalidSignature)
	}

	manifest := eventId + requestId + timestamp
	want := hmacSHA256Hex(secret, []byte(manifest))
	if !digestsEqual(want, signature) {
		return models.ErrInvalidSignature
	}
	return nil
}

type kbzpayPayload struct {
	EventId    string `json:"eventId"`
	MerchRefNo string `json:"merchRefNo"`
	Amount     string `json:"amount"`
	TransTime  string `json:"transTime"`
	SettleTime string `json:"settleTime"`
	Channel    string `json:"channel"`
	AuthCode   string `json:"authCode"`
}

func (kbzpayAdapter) ParseEvent(body []byte, header http.Header) (models.PaymentEvent, error) {
	var p kbzpayPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return models.PaymentEvent{}, fmt.Errorf("kbzpay payload: %w", err)
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(p.Amount))
	if err != nil {
		return models.PaymentEvent{}, fmt.Errorf("kbzpay amount %q: %w", p.Amount, err)
	}
	paymentDate, err := time.Parse(time.RFC3339, p.TransTime)
	if err != nil {
		return models.PaymentEvent{}, fmt.Errorf("kbzpay transTime %q: %w", p.TransTime, err)
	}

	event := models.PaymentEvent{
		ProviderCode:       "kbzpay",
		OurNumber:          strings.TrimSpace(p.MerchRefNo),
		AmountPaid:         amount,
		PaymentDate:        paymentDate,
		AuthenticationCode: p.AuthCode,
		Channel:            p.Channel,
		SourceType:         models.EventSourceWebhook,
	}
	if p.SettleTime != "" {
		if creditDate, err := time.Parse(time.RFC3339, p.SettleTime); err == nil {
			event.CreditDate = &creditDate
		}
	}
	if err := event.Validate(); err != nil {
		return models.PaymentEvent{}, fmt.Errorf("kbzpay event: %w", err)
	}
	return event, nil
}
