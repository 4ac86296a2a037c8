package models

import "time"

// SiteSettings holds the site-wide password gate. PasswordHash is a bcrypt hash.
type SiteSettings struct {
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"isActive"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
