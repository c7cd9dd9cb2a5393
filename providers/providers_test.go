package providers

import (
	"errors"
	"net/http"
	"testing"

	"bitbucket.org/mmdatafocus/billing_recon/models"
)

func TestResolveKnownCodes(t *testing.T) {
	for _, code := range []string{"kbzpay", "ayapay", "wavepay", "KBZPay", " kbzpay "} {
		a, err := Resolve(code)
		if err != nil {
			t.Errorf("Resolve(%q) failed: %v", code, err)
			continue
		}
		if a == nil {
			t.Errorf("Resolve(%q) returned nil adapter", code)
		}
	}
}

func TestResolveUnknownCode(t *testing.T) {
	_, err := Resolve("cbpay")
	if !errors.Is(err, models.ErrUnsupportedProvider) {
		t.Fatalf("err = %v, want ErrUnsupportedProvider", err)
	}
}

func TestCodesSorted(t *testing.T) {
	codes := Codes()
	if len(codes) < 3 {
		t.Fatalf("codes = %v", codes)
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Fatalf("codes not sorted: %v", codes)
		}
	}
}

func kbzpayHeaders(secret, eventId, requestId, timestamp string) http.Header {
	h := http.Header{}
	h.Set(kbzpayHeaderEventId, eventId)
	h.Set(kbzpayHeaderRequestId, requestId)
	h.Set(kbzpayHeaderTimestamp, timestamp)
	h.Set(kbzpayHeaderSignature, hmacSHA256Hex(secret, []byte(eventId+requestId+timestamp)))
	return h
}

func TestKbzpayVerifySignature(t *testing.T) {
	const secret = "merchant-secret"
	a := kbzpayAdapter{}

	h := kbzpayHeaders(secret, "evt-1", "req-1", "1765000000")
	if err := a.VerifySignature(nil, h, secret); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}

	if err := a.VerifySignature(nil, h, "other-secret"); !errors.Is(err, models.ErrInvalidSignature) {
		t.Errorf("wrong secret: err = %v", err)
	}

	tampered := kbzpayHeaders(secret, "evt-1", "req-1", "1765000000")
	tampered.Set(kbzpayHeaderEventId, "evt-2")
	if err := a.VerifySignature(nil, tampered, secret); !errors.Is(err, models.ErrInvalidSignature) {
		t.Errorf("tampered manifest: err = %v", err)
	}

	if err := a.VerifySignature(nil, http.Header{}, secret); !errors.Is(err, models.ErrInvalidSignature) {
		t.Errorf("missing headers: err = %v", err)
	}
}

func TestKbzpayParseEvent(t *testing.T) {
	body := []byte(`{
		"eventId": "evt-1",
		"merchRefNo": "INV-2026-0001",
		"amount": "15500.00",
		"transTime": "2026-08-15T10:30:00Z",
		"settleTime": "2026-08-17T00:00:00Z",
		"channel": "QR",
		"authCode": "KBZ-9001"
	}`)
	event, err := kbzpayAdapter{}.ParseEvent(body, http.Header{})
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	if event.OurNumber != "INV-2026-0001" {
		t.Errorf("our number = %q", event.OurNumber)
	}
	if event.AmountPaid.String() != "15500" {
		t.Errorf("amount = %s", event.AmountPaid)
	}
	if event.CreditDate == nil {
		t.Error("settle time not mapped to credit date")
	}
	if event.SourceType != models.EventSourceWebhook {
		t.Errorf("source type = %s", event.SourceType)
	}

	if _, err := (kbzpayAdapter{}).ParseEvent([]byte(`{"merchRefNo":""}`), http.Header{}); err == nil {
		t.Error("blank reference accepted")
	}
}

func TestAyapayVerifySignature(t *testing.T) {
	const secret = "aya-secret"
	body := []byte(`{"referenceNumber":"INV-1","paidAmount":50000,"paymentDate":"20260815"}`)
	a := ayapayAdapter{}

	h := http.Header{}
	h.Set(ayapayHeaderSignature, hmacSHA256Hex(secret, body))
	if err := a.VerifySignature(body, h, secret); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}

	if err := a.VerifySignature([]byte(`{"paidAmount":999999}`), h, secret); !errors.Is(err, models.ErrInvalidSignature) {
		t.Errorf("tampered body: err = %v", err)
	}
	if err := a.VerifySignature(body, http.Header{}, secret); !errors.Is(err, models.ErrInvalidSignature) {
		t.Errorf("missing header: err = %v", err)
	}
}

func TestAyapayParseEventMinorUnits(t *testing.T) {
	body := []byte(`{"referenceNumber":"INV-1","paidAmount":50000,"paymentDate":"20260815","channel":"APP"}`)
	event, err := ayapayAdapter{}.ParseEvent(body, http.Header{})
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	if event.AmountPaid.String() != "500" {
		t.Errorf("amount = %s, want 500 from 50000 minor units", event.AmountPaid)
	}
	if event.PaymentDate.Format("20060102") != "20260815" {
		t.Errorf("payment date = %s", event.PaymentDate)
	}
}

func TestWavepayVerifySignature(t *testing.T) {
	a := wavepayAdapter{}

	h := http.Header{}
	h.Set(wavepayHeaderToken, "static-token")
	if err := a.VerifySignature(nil, h, "static-token"); err != nil {
		t.Fatalf("valid token rejected: %v", err)
	}
	if err := a.VerifySignature(nil, h, "another-token"); !errors.Is(err, models.ErrInvalidSignature) {
		t.Errorf("wrong token: err = %v", err)
	}
	if err := a.VerifySignature(nil, http.Header{}, "static-token"); !errors.Is(err, models.ErrInvalidSignature) {
		t.Errorf("missing token: err = %v", err)
	}
}

func TestWavepayParseEvent(t *testing.T) {
	body := []byte(`{"merchant_ref":"CTR-9","amount":"1200.50","timestamp":1765782600,"channel":"APP"}`)
	event, err := wavepayAdapter{}.ParseEvent(body, http.Header{})
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	if event.AmountPaid.String() != "1200.5" {
		t.Errorf("amount = %s", event.AmountPaid)
	}
	if _, err := (wavepayAdapter{}).ParseEvent([]byte(`{"merchant_ref":"x","amount":"1","timestamp":0}`), http.Header{}); err == nil {
		t.Error("zero timestamp accepted")
	}
}

func TestEmptySecretFailsClosed(t *testing.T) {
	body := []byte(`{"referenceNumber":"INV-1","paidAmount":50000,"paymentDate":"20260815"}`)

	// A digest over the empty key is computable by anyone, so a correctly
	// forged signature must still be rejected.
	forgedAya := http.Header{}
	forgedAya.Set(ayapayHeaderSignature, hmacSHA256Hex("", body))
	if err := (ayapayAdapter{}).VerifySignature(body, forgedAya, ""); !errors.Is(err, models.ErrMissingSecret) {
		t.Errorf("ayapay empty secret: err = %v, want ErrMissingSecret", err)
	}

	forgedKbz := kbzpayHeaders("", "evt-1", "req-1", "1765000000")
	if err := (kbzpayAdapter{}).VerifySignature(nil, forgedKbz, ""); !errors.Is(err, models.ErrMissingSecret) {
		t.Errorf("kbzpay empty secret: err = %v, want ErrMissingSecret", err)
	}

	forgedWave := http.Header{}
	forgedWave.Set(wavepayHeaderToken, "")
	if err := (wavepayAdapter{}).VerifySignature(nil, forgedWave, ""); !errors.Is(err, models.ErrMissingSecret) {
		t.Errorf("wavepay empty token: err = %v, want ErrMissingSecret", err)
	}
}

func TestDigestsEqual(t *testing.T) {
	d := hmacSHA256Hex("k", []byte("m"))
	if !digestsEqual(d, d) {
		t.Error("equal digests compared unequal")
	}
	if digestsEqual(d, hmacSHA256Hex("k", []byte("n"))) {
		t.Error("different digests compared equal")
	}
	if digestsEqual(d, "not-hex") {
		t.Error("malformed hex compared equal")
	}
}
