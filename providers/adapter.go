// Package providers holds one adapter per payment provider / banking gateway.
// An adapter knows two things about its provider: how to authenticate a
// callback and how to translate the payload into a canonical PaymentEvent.
// Adding a provider means registering a new adapter, never editing dispatch
// logic elsewhere.
package providers

import (
	"net/http"

	"bitbucket.org/mmdatafocus/billing_recon/models"
)

type Adapter interface {
	// Code is the provider code this adapter serves, e.g. "kbzpay".
	Code() string

	// VerifySignature authenticates the raw request against the bank
	// account's shared secret. Returns models.ErrInvalidSignature on
	// mismatch. Comparisons must be constant-time.
	VerifySignature(body []byte, header http.Header, secret string) error

	// ParseEvent decodes the provider payload into the canonical event.
	ParseEvent(body []byte, header http.Header) (models.PaymentEvent, error)
}
