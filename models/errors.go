package models

import "errors"

// Error taxonomy for the reconciliation pipeline. Every inbound event is
// resolved to exactly one of these classes (or succeeds); none of them may
// abort sibling events in the same batch or stream.
var (
	// ErrUnsupportedProvider: no adapter is registered for the provider code.
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrInvalidSignature: the payload failed authenticity verification.
	// Rejections must leave billings and ledger entries untouched.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrMissingSecret: no shared secret is configured for the bank account.
	// Fails closed outside the explicit non-production bypass.
	ErrMissingSecret = errors.New("no shared secret configured")

	// ErrBillingNotFound: no billing matches (provider_code, our_number)
	// within the tenant.
	ErrBillingNotFound = errors.New("billing not found")

	// ErrAlreadyProcessed: the billing is already settled; the event is an
	// idempotent no-op.
	ErrAlreadyProcessed = errors.New("billing already processed")

	// ErrStatusConflict: the conditional status update lost a race with a
	// concurrent writer; the caller re-reads and retries.
	ErrStatusConflict = errors.New("billing status changed concurrently")
)
