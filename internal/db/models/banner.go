package models

import "time"

// Banner defaults used until an admin saves the banner for the first time.
const (
	DefaultBannerText  = "Coach Connect 2025-2026, Coach Camps, Coach Summit (Spring)"
	DefaultBannerColor = "#28b6ea"
)

// Banner is the site-wide scrolling announcement. There is at most one.
type Banner struct {
	Text      string    `json:"text"`
	Color     string    `json:"color"`
	Hyperlink string    `json:"hyperlink"`
	IsActive  bool      `json:"isActive"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DefaultBanner returns the banner shown when none has been stored.
func DefaultBanner() *Banner {
	return &Banner{
		Text:     DefaultBannerText,
		Color:    DefaultBannerColor,
		IsActive: true,
	}
}

// BannerUpdate carries a partial banner change; nil fields are left alone.
type BannerUpdate struct {
	Text      *string
	Color     *string
	Hyperlink *string
	IsActive  *bool
}

// Apply copies the non-nil fields of u onto b.
func (u BannerUpdate) Apply(b *Banner) {
	if u.Text != nil {
		b.Text = *u.Text
	}
	if u.Color != nil {
		b.Color = *u.Color
	}
	if u.Hyperlink != nil {
		b.Hyperlink = *u.Hyperlink
	}
	if u.IsActive != nil {
		b.IsActive = *u.IsActive
	}
}
