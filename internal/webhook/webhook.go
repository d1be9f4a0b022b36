// Package webhook implements the Webhook Validators of spec §4.10: a
// shared-secret HMAC check over the exact, pre-deserialisation raw
// request body.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
)

// SignatureHeader names the HTTP header a provider carries its
// precomputed signature in.
type SignatureHeader string

const (
	HeaderCalendly  SignatureHeader = "Calendly-Webhook-Signature"
	HeaderWhatsApp  SignatureHeader = "X-Hub-Signature-256"
)

// Validate reports whether rawBody's HMAC-SHA256 under sharedSecret
// matches the signature carried in header. Comparison is constant-time
// via hmac.Equal. rawBody MUST be the exact bytes received on the wire,
// before any JSON/form decoding — decoding and re-marshalling can
// reorder fields or change whitespace and silently break the signature.
func Validate(headers http.Header, header SignatureHeader, rawBody []byte, sharedSecret string) bool {
	if sharedSecret == "" {
		return false
	}
	provided := headers.Get(string(header))
	if provided == "" {
		return false
	}
	provided = stripSchemePrefix(provided)

	expected := computeHMAC(rawBody, sharedSecret)
	decoded, err := hex.DecodeString(provided)
	if err != nil {
		return false
	}
	return hmac.Equal(decoded, expected)
}

func computeHMAC(rawBody []byte, sharedSecret string) []byte {
	mac := hmac.New(sha256.New, []byte(sharedSecret))
	mac.Write(rawBody)
	return mac.Sum(nil)
}

// stripSchemePrefix removes a "sha256=" style prefix some providers
// (e.g. WhatsApp/Meta's X-Hub-Signature-256) prepend to the hex digest.
func stripSchemePrefix(signature string) string {
	const prefix = "sha256="
	if len(signature) > len(prefix) && signature[:len(prefix)] == prefix {
		return signature[len(prefix):]
	}
	return signature
}
