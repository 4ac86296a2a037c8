package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wellness-in-schools/video-library/internal/db"
	"github.com/wellness-in-schools/video-library/internal/db/models"
	"github.com/wellness-in-schools/video-library/internal/db/repository"
	"github.com/wellness-in-schools/video-library/internal/validation"
	"github.com/wellness-in-schools/video-library/pkg/logger"
)

const recentViewsLimit = 5

// UserService covers the signed-in user's own profile, stats and saved list.
type UserService struct {
	users     repository.UserRepository
	videos    repository.VideoRepository
	validator *validation.Validator
}

// NewUserService creates a UserService.
func NewUserService(users repository.UserRepository, videos repository.VideoRepository, validator *validation.Validator) *UserService {
	return &UserService{
		users:     users,
		videos:    videos,
		validator: validator,
	}
}

// Profile returns the user.
func (s *UserService) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "user", userID.String())
	}
	return user, nil
}

// UpdateProfile applies the non-nil fields of update.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, update models.ProfileUpdate) (*models.User, error) {
	verr := &ValidationError{}
	if update.Username != nil {
		name := strings.TrimSpace(*update.Username)
		if !s.validator.IsValidUsername(name) {
			verr.add("username", "username must be 3-30 characters of letters, numbers and underscores")
		}
		update.Username = &name
	}
	if update.SchoolName != nil {
		if err := s.validator.ValidateRequiredText("schoolName", *update.SchoolName); err != nil {
			verr.add("schoolName", err.Error())
		}
	}
	if update.Address != nil {
		if err := s.validator.ValidateRequiredText("address", *update.Address); err != nil {
			verr.add("address", err.Error())
		}
	}
	if err := verr.errOrNil(); err != nil {
		return nil, err
	}

	user, err := s.users.UpdateProfile(ctx, userID, update)
	if err != nil {
		if db.IsDuplicateKey(err) {
			return nil, &ConflictError{Message: "username is already taken"}
		}
		return nil, notFoundOr(err, "user", userID.String())
	}
	return user, nil
}

// Stats summarises the user's viewing.
func (s *UserService) Stats(ctx context.Context, userID uuid.UUID) (*models.UserStats, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "user", userID.String())
	}

	history, err := s.users.ListViewHistory(ctx, userID)
	if err != nil {
		return nil, err
	}

	breakdown := make(map[string]int)
	for _, h := range history {
		if h.Video != nil {
			breakdown[h.Video.Category]++
		}
	}

	recent := history
	if len(recent) > recentViewsLimit {
		recent = recent[:recentViewsLimit]
	}

	return &models.UserStats{
		TotalViews:        user.TotalViews,
		VideosViewed:      len(history),
		CategoryBreakdown: breakdown,
		RecentViews:       recent,
	}, nil
}

// IsSaved reports whether the user saved the video.
func (s *UserService) IsSaved(ctx context.Context, userID, videoID uuid.UUID) (bool, error) {
	return s.users.IsSaved(ctx, userID, videoID)
}

// SaveVideo adds an active video to the saved set. Saving twice is not an
// error; created reports whether anything changed.
func (s *UserService) SaveVideo(ctx context.Context, userID, videoID uuid.UUID) (created bool, err error) {
	video, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		return false, notFoundOr(err, "video", videoID.String())
	}
	if !video.IsActive {
		return false, &NotFoundError{Resource: "video", ID: videoID.String()}
	}

	created, err = s.users.SaveVideo(ctx, userID, videoID)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return false, &NotFoundError{Resource: "user", ID: userID.String()}
		}
		return false, err
	}
	if created {
		logger.L().Debug("Video saved", zap.String("userId", userID.String()), zap.String("videoId", videoID.String()))
	}
	return created, nil
}

// UnsaveVideo removes the video from the saved set. Removing a video that
// was not saved is not an error.
func (s *UserService) UnsaveVideo(ctx context.Context, userID, videoID uuid.UUID) (removed bool, err error) {
	return s.users.UnsaveVideo(ctx, userID, videoID)
}
