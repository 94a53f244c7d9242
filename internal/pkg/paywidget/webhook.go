package paywidget

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw webhook body.
const SignatureHeader = "X-Signature"

// Webhook event types
const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
)

// WebhookEvent is the provider notification envelope
type WebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data Intent `json:"data"`
}

// ParseWebhook decodes a webhook body
func ParseWebhook(payload []byte) (*WebhookEvent, error) {
	var ev WebhookEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("invalid webhook payload: %w", err)
	}
	if ev.Type == "" || ev.Data.ID == "" {
		return nil, fmt.Errorf("invalid webhook payload: missing type or intent id")
	}
	return &ev, nil
}

// VerifySignature validates HMAC-SHA256 signature from the provider webhook
func VerifySignature(payload []byte, signature string, secretKey string) bool {
	if secretKey == "" || signature == "" {
		return false
	}

	h := hmac.New(sha256.New, []byte(secretKey))
	h.Write(payload)
	expected := h.Sum(nil)

	given, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	return hmac.Equal(given, expected)
}

// GenerateSignature creates HMAC-SHA256 signature for testing
func GenerateSignature(payload []byte, secretKey string) string {
	if secretKey == "" {
		return ""
	}

	h := hmac.New(sha256.New, []byte(secretKey))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
