package config

import (
	"os"
	"strings"
)

func IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production")
}

// SignatureBypassAllowed reports whether webhook signature verification may be
// skipped for bank accounts with no shared secret configured.
//
// The bypass is an explicit debug mode:
// - SIGNATURE_BYPASS=true must be set, AND
// - GO_ENV must not be "production".
//
// In production a missing secret always fails closed. Every bypassed request
// is logged by the caller.
func SignatureBypassAllowed() bool {
	if IsProduction() {
		return false
	}
	return boolFromEnv("SIGNATURE_BYPASS")
}

func boolFromEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
