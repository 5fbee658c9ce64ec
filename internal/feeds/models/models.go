package models

import (
	"time"

	"github.com/google/uuid"

	id "dailybit/pkg/domain"
)

// Kind distinguishes preset feeds from feeds an account added itself.
type Kind string

const (
	KindDefault Kind = "default"
	KindCustom  Kind = "custom"
)

// MaxCustomFeeds caps the custom feeds per account.
const MaxCustomFeeds = 200

// FeedItem is one entry of an account's effective feed list. ID is the feed
// URL for presets and the record UUID for custom feeds.
type FeedItem struct {
	Type      Kind    `json:"type"`
	ID        string  `json:"id"`
	FeedURL   string  `json:"feed_url"`
	FeedTitle *string `json:"feed_title"`
	HTMLURL   string  `json:"html_url,omitempty"`
	Category  string  `json:"category,omitempty"`
}

// CustomFeed is a feed an account subscribed to by URL.
type CustomFeed struct {
	ID        uuid.UUID
	AccountID id.AccountID
	FeedURL   string
	FeedTitle *string
	CreatedAt time.Time
}

// Item renders the feed as a list entry.
func (f CustomFeed) Item() FeedItem {
	return FeedItem{
		Type:      KindCustom,
		ID:        f.ID.String(),
		FeedURL:   f.FeedURL,
		FeedTitle: f.FeedTitle,
	}
}
