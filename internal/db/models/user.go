package models

import (
	"time"

	"github.com/google/uuid"
)

// User roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the catalog's view of an account. Credentials live with the auth
// collaborator and never pass through here.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type User struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	SchoolName string    `json:"schoolName"`
	Address    string    `json:"address"`
	Role       string    `json:"role"`
	TotalViews int64     `json:"totalViews"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ViewedVideo is one entry of a user's view history. Video is populated by
// queries that join the catalog.
type ViewedVideo struct {
	VideoID  uuid.UUID `json:"videoId"`
	ViewedAt time.Time `json:"viewedAt"`
	Video    *Video    `json:"video,omitempty"`
}

// LeaderboardEntry is one ranked row of the views leaderboard.
type LeaderboardEntry struct {
	UserID     uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	SchoolName string    `json:"schoolName"`
	TotalViews int64     `json:"totalViews"`
}

// UserSummary is a user row annotated with the number of distinct videos watched.
type UserSummary struct {
	User
	VideosWatchedCount int `json:"videosWatchedCount"`
}

// UserDetails is a user with their full view history.
type UserDetails struct {
	User
	ViewedVideos []ViewedVideo `json:"viewedVideos"`
}

// UserStats summarises a user's viewing.
type UserStats struct {
	TotalViews        int64          `json:"totalViews"`
	VideosViewed      int            `json:"videosViewed"`
	CategoryBreakdown map[string]int `json:"categoryBreakdown"`
	RecentViews       []ViewedVideo  `json:"recentViews"`
}

// ProfileUpdate carries optional profile changes; nil fields are left alone.
type ProfileUpdate struct {
	Username   *string
	SchoolName *string
	Address    *string
}
