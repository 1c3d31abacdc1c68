// Package webhook receives signed series pushes from the metrics collector.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// SignatureHeader carries the payload HMAC, in GitHub's "sha256=<hex>" form.
const SignatureHeader = "X-Hub-Signature-256"

// VerifySignature validates the X-Hub-Signature-256 header against the payload.
func VerifySignature(payload []byte, signature string, secret []byte) error {
	if !strings.HasPrefix(signature, "sha256=") {
		return fmt.Errorf("invalid signature format")
	}
	sig, err := hex.DecodeString(signature[7:])
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}

	if !hmac.Equal(sig, Sign(payload, secret)) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}

// Sign returns the raw HMAC-SHA256 of payload.
func Sign(payload, secret []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return mac.Sum(nil)
}

// SignatureFor formats the header value for payload.
func SignatureFor(payload, secret []byte) string {
	return "sha256=" + hex.EncodeToString(Sign(payload, secret))
}
