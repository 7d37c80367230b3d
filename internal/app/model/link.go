package model

import "time"

// Link describes a short-code-to-destination mapping stored in Postgres.
// ShortCode and CustomAlias share one uniqueness namespace: a lookup by
// either must resolve to exactly one link.
type Link struct {
	ID          int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	OriginalURL string     `json:"originalUrl" gorm:"type:text;not null"`
	ShortCode   string     `json:"shortCode" gorm:"size:32;not null;uniqueIndex"`
	CustomAlias string     `json:"customAlias,omitempty" gorm:"size:64;index"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty" gorm:"index"`
	CreatedAt   time.Time  `json:"createdAt" gorm:"autoCreateTime"`
	IsActive    bool       `json:"isActive" gorm:"not null;default:true"`
	UserID      string     `json:"userId" gorm:"size:64;index;not null"`
}

// LinkWithStats is a Link enriched with per-link click aggregates for listings.
type LinkWithStats struct {
	Link
	ClickCount   int64 `json:"clickCount"`
	RecentClicks int64 `json:"recentClicks"`
}

// ClickStats holds aggregate click counters over fixed trailing windows.
type ClickStats struct {
	Total    int64 `json:"total"`
	Today    int64 `json:"today"`
	ThisWeek int64 `json:"thisWeek"`
}
