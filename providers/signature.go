package providers

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// hmacSHA256Hex returns the lowercase hex HMAC-SHA256 digest of message.
func hmacSHA256Hex(secret string, message []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}

// digestsEqual compares two hex digests in constant time. Plain string
// equality leaks a timing side-channel; never use it for signatures.
func digestsEqual(want, got string) bool {
	a, err := hex.DecodeString(want)
	if err != nil {
		return false
	}
	b, err := hex.DecodeString(got)
	if err != nil {
		return false
	}
	return hmac.Equal(a, b)
}

// tokensEqual compares two bearer tokens in constant time.
func tokensEqual(want, got string) bool {
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}
