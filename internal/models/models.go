// Package models contains the request and response bodies of the HTTP API.
package models

import (
	"time"

	"github.com/google/uuid"

	dbmodels "github.com/wellness-in-schools/video-library/internal/db/models"
)

// VideoRequest is an admin create or update body. It binds from JSON and from
// multipart forms, where subcategory may repeat.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type VideoRequest struct {
	Title              string                 `json:"title" form:"title" binding:"max=200"`
	Description        string                 `json:"description" form:"description" binding:"max=5000"`
	Category           string                 `json:"category" form:"category"`
	Subcategory        dbmodels.Subcategories `json:"subcategory" form:"subcategory"`
	ExternalContentURL string                 `json:"externalContentUrl" form:"externalContentUrl" binding:"max=2048"`
	DurationSeconds    *int                   `json:"durationSeconds" form:"durationSeconds" binding:"omitempty,min=0"`
	Instructor         string                 `json:"instructor" form:"instructor" binding:"max=200"`
	AgeGroup           string                 `json:"ageGroup" form:"ageGroup"`
	Tags               string                 `json:"tags" form:"tags"`
	Featured           bool                   `json:"featured" form:"featured"`
	Order              int                    `json:"order" form:"order"`
	ThumbnailURL       *string                `json:"thumbnailUrl" form:"thumbnailUrl"`
	IsActive           *bool                  `json:"isActive" form:"isActive"`
}

// ProfileRequest is a partial profile update.
type ProfileRequest struct {
	Username   *string `json:"username"`
	SchoolName *string `json:"schoolName"`
	Address    *string `json:"address"`
}

// BannerRequest is a partial banner update.
type BannerRequest struct {
	Text      *string `json:"text"`
	Color     *string `json:"color"`
	Hyperlink *string `json:"hyperlink"`
	IsActive  *bool   `json:"isActive"`
}

// UserStatusRequest activates or deactivates a user.
type UserStatusRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// PasswordRequest carries a site password for verification or replacement.
type PasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

// VerifyResponse is the site gate verdict.
type VerifyResponse struct {
	Verified bool   `json:"verified"`
	Message  string `json:"message,omitempty"`
}

// ViewResponse reports a tracked view. Stale is set when the view was recorded
// but the leaderboard could not be refreshed.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type ViewResponse struct {
	Message    string    `json:"message"`
	VideoID    uuid.UUID `json:"videoId"`
	ViewCount  int64     `json:"viewCount"`
	TotalViews int64     `json:"totalViews"`
	FirstView  bool      `json:"firstView"`
	ViewedAt   time.Time `json:"viewedAt"`
	Stale      bool      `json:"leaderboardStale,omitempty"`
}

// SavedResponse answers whether a video is in the caller's saved list.
type SavedResponse struct {
	IsSaved bool   `json:"isSaved"`
	Message string `json:"message,omitempty"`
}

// ThumbnailResponse returns the reference of an uploaded thumbnail.
type ThumbnailResponse struct {
	ThumbnailURL string `json:"thumbnailUrl"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// FieldErrorDTO is one field-level validation failure.
type FieldErrorDTO struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type ErrorResponse struct {
	Timestamp time.Time       `json:"timestamp"`
	Status    int             `json:"status"`
	Error     string          `json:"error"`
	Message   string          `json:"message"`
	Errors    []FieldErrorDTO `json:"errors,omitempty"`
	Path      string          `json:"path"`
}
