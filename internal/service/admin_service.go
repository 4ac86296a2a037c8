package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wellness-in-schools/video-library/internal/db/models"
	"github.com/wellness-in-schools/video-library/internal/db/repository"
	"github.com/wellness-in-schools/video-library/pkg/logger"
)

const (
	analyticsTopLimit    = 5
	analyticsRecentLimit = 10
)

// AdminService serves the admin dashboard and user management.
type AdminService struct {
	users     repository.UserRepository
	analytics repository.AnalyticsRepository

	// onStatusChange rebuilds whatever caches list users, such as the
	// leaderboard snapshot. May be nil.
	onStatusChange func(context.Context) error
}

// NewAdminService creates an AdminService. onStatusChange runs after a user is
// activated or deactivated.
func NewAdminService(users repository.UserRepository, analytics repository.AnalyticsRepository, onStatusChange func(context.Context) error) *AdminService {
	return &AdminService{
		users:          users,
		analytics:      analytics,
		onStatusChange: onStatusChange,
	}
}

// ListUsers returns active users by total views with their distinct watch count.
func (s *AdminService) ListUsers(ctx context.Context) ([]models.UserSummary, error) {
	return s.users.ListActiveWithCounts(ctx)
}

// GetUser returns a user with their view history.
func (s *AdminService) GetUser(ctx context.Context, id uuid.UUID) (*models.UserDetails, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "user", id.String())
	}
	history, err := s.users.ListViewHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.UserDetails{User: *user, ViewedVideos: history}, nil
}

// SetUserStatus activates or deactivates a user.
func (s *AdminService) SetUserStatus(ctx context.Context, id uuid.UUID, active bool) error {
	if err := s.users.SetActive(ctx, id, active); err != nil {
		return notFoundOr(err, "user", id.String())
	}
	logger.L().Info("User status changed", zap.String("userId", id.String()), zap.Bool("isActive", active))

	if s.onStatusChange != nil {
		if err := s.onStatusChange(ctx); err != nil {
			// The snapshot expires on its own; the status change stands.
			logger.L().Warn("Failed to refresh leaderboard after status change",
				zap.String("userId", id.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}

// Analytics assembles the dashboard summary.
func (s *AdminService) Analytics(ctx context.Context) (*models.Analytics, error) {
	var (
		out models.Analytics
		err error
	)

	if out.TotalUsers, err = s.analytics.CountActiveUsers(ctx); err != nil {
		return nil, err
	}
	if out.TotalVideos, err = s.analytics.CountActiveVideos(ctx); err != nil {
		return nil, err
	}
	if out.TotalViews, err = s.analytics.SumActiveUserViews(ctx); err != nil {
		return nil, err
	}
	if out.TopUsers, err = s.users.Leaderboard(ctx, analyticsTopLimit); err != nil {
		return nil, err
	}
	if out.TopVideos, err = s.analytics.TopVideos(ctx, analyticsTopLimit); err != nil {
		return nil, err
	}
	if out.RecentActivity, err = s.analytics.RecentUsers(ctx, analyticsRecentLimit); err != nil {
		return nil, err
	}
	return &out, nil
}

// VideoViewStats returns per-category view totals, busiest first.
func (s *AdminService) VideoViewStats(ctx context.Context) ([]models.CategoryViewStats, error) {
	return s.analytics.CategoryViewStats(ctx)
}

// UserActivity returns signups and their views per day, optionally bounded.
func (s *AdminService) UserActivity(ctx context.Context, from, to *time.Time) ([]models.UserActivityDay, error) {
	if from != nil && to != nil && to.Before(*from) {
		return nil, newValidationError("endDate", "endDate must not be before startDate")
	}
	return s.analytics.UserActivity(ctx, from, to)
}
