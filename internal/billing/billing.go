// Package billing applies payment provider webhook events to account tiers.
package billing

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"dailybit/internal/profile/models"
)

// Subscription events the webhook acts on.
const (
	EventCreated        = "subscription_created"
	EventResumed        = "subscription_resumed"
	EventUpdated        = "subscription_updated"
	EventCancelled      = "subscription_cancelled"
	EventExpired        = "subscription_expired"
	EventPaymentSuccess = "subscription_payment_success"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw body.
const SignatureHeader = "X-Signature"

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature is the HMAC of body under secret.
func Verify(secret string, body []byte, signature string) bool {
	want, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), want)
}

// Event is the subset of the webhook payload this service reads.
type Event struct {
	Meta struct {
		EventName  string `json:"event_name"`
		CustomData struct {
			UserID string `json:"user_id"`
		} `json:"custom_data"`
	} `json:"meta"`
	Data struct {
		ID         flexibleID `json:"id"`
		Attributes struct {
			Status string `json:"status"`
		} `json:"attributes"`
	} `json:"data"`
}

// flexibleID accepts a JSON string or number.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexibleID(n.String())
	return nil
}

// Transition maps an event to the subscription state it implies. ok is false
// for events that do not change the tier.
func Transition(event, subscriptionID, status string) (sub models.Subscription, ok bool) {
	sub = models.Subscription{ID: subscriptionID, Status: status}
	switch event {
	case EventCreated, EventResumed, EventUpdated:
		sub.Tier = models.TierFree
		if status == "active" || status == "on_trial" {
			sub.Tier = models.TierPro
		}
	case EventCancelled, EventExpired:
		sub.Tier = models.TierFree
	case EventPaymentSuccess:
		sub.Tier = models.TierPro
		sub.Status = "active"
	default:
		return models.Subscription{}, false
	}
	return sub, true
}
