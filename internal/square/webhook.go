package square

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
)

const (
	SignatureHeader = "X-Square-Hmacsha256-Signature"

	EventCatalogVersionUpdated = "catalog.version.updated"
	EventInventoryCountUpdated = "inventory.count.updated"
)

type WebhookEvent struct {
	MerchantID string          `json:"merchant_id"`
	Type       string          `json:"type"`
	EventID    string          `json:"event_id"`
	CreatedAt  string          `json:"created_at"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// AffectsMenu reports whether the event can change what the menu shows.
func (e WebhookEvent) AffectsMenu() bool {
	switch strings.TrimSpace(e.Type) {
	case EventCatalogVersionUpdated, EventInventoryCountUpdated:
		return true
	}
	return false
}

// VerifyWebhookSignature checks Square's base64 HMAC-SHA256 signature over
// the notification URL followed by the raw body.
func VerifyWebhookSignature(signatureKey, notificationURL string, body []byte, signature string) bool {
	signature = strings.TrimSpace(signature)
	if signatureKey == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(signatureKey))
	mac.Write([]byte(notificationURL))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
