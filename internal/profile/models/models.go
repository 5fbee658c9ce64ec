package models

import (
	"time"

	id "dailybit/pkg/domain"
)

// Tier is the subscription level of an account.
type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

// MsgProRequired is shown when a free account reaches a Pro-only write.
const MsgProRequired = "此功能需要 Pro 订阅"

// Profile is the account row the agent layer reads. Accounts themselves are
// created by the sign-in flow, outside this service.
type Profile struct {
	ID                 id.AccountID
	Email              string
	APIToken           string
	Tier               Tier
	SubscriptionID     string
	SubscriptionStatus string
	CustomSkillMD      string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Subscription is the billing state written by the payment webhook.
type Subscription struct {
	Tier   Tier
	ID     string
	Status string
}

// IsPro reports whether the account has an active paid tier.
func (p *Profile) IsPro() bool {
	return p != nil && p.Tier == TierPro
}
