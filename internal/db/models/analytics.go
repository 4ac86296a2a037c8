package models

import (
	"time"

	"github.com/google/uuid"
)

// Analytics is the admin dashboard summary.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type Analytics struct {
	TotalUsers     int64              `json:"totalUsers"`
	TotalVideos    int64              `json:"totalVideos"`
	TotalViews     int64              `json:"totalViews"`
	TopUsers       []LeaderboardEntry `json:"topUsers"`
	TopVideos      []VideoRank        `json:"topVideos"`
	RecentActivity []RecentUser       `json:"recentActivity"`
}

// VideoRank is a video reduced to what the dashboard ranks by.
type VideoRank struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	ViewCount int64     `json:"viewCount"`
}

// RecentUser is a recently registered user.
type RecentUser struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	SchoolName string    `json:"schoolName"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CategoryViewStats aggregates active videos of one category.
type CategoryViewStats struct {
	Category   string  `json:"category"`
	TotalViews int64   `json:"totalViews"`
	VideoCount int64   `json:"videoCount"`
	AvgViews   float64 `json:"avgViews"`
}

// UserActivityDay aggregates users who signed up on Date (YYYY-MM-DD).
type UserActivityDay struct {
	Date       string `json:"date"`
	NewUsers   int64  `json:"newUsers"`
	TotalViews int64  `json:"totalViews"`
}
