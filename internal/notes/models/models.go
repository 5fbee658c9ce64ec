package models

import (
	"time"

	id "dailybit/pkg/domain"
)

// MaxListed caps how many notes a listing returns.
const MaxListed = 100

// Note is a user's annotation of one article. Both text fields are optional
// and are stored as given, with nil clearing the field.
type Note struct {
	AccountID     id.AccountID `json:"user_id"`
	ArticleID     string       `json:"article_id"`
	CustomSummary *string      `json:"custom_summary"`
	Note          *string      `json:"note"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}
