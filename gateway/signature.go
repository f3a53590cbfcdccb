package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignWebhookPayload computes the hex HMAC-SHA256 of the raw payload with the
// shared webhook secret. Used by the simulator's outbound callbacks and by
// tests to fabricate valid deliveries.
func (s *Simulator) SignWebhookPayload(payload []byte) string {
	mac := hmac.New(sha256.New, s.WebhookSecret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// ValidateWebhookSignature checks the supplied hex signature against the
// HMAC-SHA256 of the raw payload. The comparison is constant-time for
// equal-length inputs; length mismatches and undecodable signatures fail.
func (s *Simulator) ValidateWebhookSignature(payload []byte, signature string) error {
	provided, err := hex.DecodeString(signature)
	if err != nil {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, s.WebhookSecret)
	mac.Write(payload)
	expected := mac.Sum(nil)

	if !hmac.Equal(expected, provided) {
		return ErrInvalidSignature
	}
	return nil
}
