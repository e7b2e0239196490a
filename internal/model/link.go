package model

import "time"

// Link represents a shortened URL owned by a user. The short code is
// assigned exactly once at creation and is unique across all links.
type Link struct {
	ID             int64      `json:"id" db:"id"`
	UserID         int64      `json:"user_id" db:"user_id"`
	OriginalURL    string     `json:"original_url" db:"original_url"`
	ShortCode      string     `json:"short_code" db:"short_code"`
	RedirectsCount int64      `json:"redirects_count" db:"redirects_count"`
	ExpiredAt      *time.Time `json:"expired_at,omitempty" db:"expired_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}
