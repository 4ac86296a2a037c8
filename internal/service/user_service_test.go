package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wellness-in-schools/video-library/internal/db"
	"github.com/wellness-in-schools/video-library/internal/db/models"
	"github.com/wellness-in-schools/video-library/internal/validation"
)

func strPtr(s string) *string { return &s }

func TestUserService_UpdateProfile(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name       string
		update     models.ProfileUpdate
		repoErr    error
		wantFields []string
		wantErr    func(error) bool
	}{
		{name: "valid", update: models.ProfileUpdate{Username: strPtr(" coach_kim "), SchoolName: strPtr("Lincoln")}},
		{name: "short username", update: models.ProfileUpdate{Username: strPtr("ab")}, wantFields: []string{"username"}},
		{name: "blank school", update: models.ProfileUpdate{SchoolName: strPtr(" ")}, wantFields: []string{"schoolName"}},
		{name: "blank address", update: models.ProfileUpdate{Address: strPtr("")}, wantFields: []string{"address"}},
		{
			name:    "taken username",
			update:  models.ProfileUpdate{Username: strPtr("coach_kim")},
			repoErr: fmt.Errorf("update profile: %w", db.ErrDuplicateKey),
			wantErr: func(err error) bool {
				var c *ConflictError
				return errors.As(err, &c)
			},
		},
		{
			name:    "missing user",
			update:  models.ProfileUpdate{Username: strPtr("coach_kim")},
			repoErr: errNotFound(),
			wantErr: func(err error) bool {
				var nf *NotFoundError
				return errors.As(err, &nf)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(mockUserRepo)
			if tt.wantFields == nil {
				var ret any
				if tt.repoErr == nil {
					ret = &models.User{ID: userID, Username: "coach_kim"}
				}
				users.On("UpdateProfile", mock.Anything, userID, mock.Anything).Return(ret, tt.repoErr)
			}
			svc := NewUserService(users, new(mockVideoRepo), validation.New(0))

			user, err := svc.UpdateProfile(context.Background(), userID, tt.update)

			switch {
			case tt.wantFields != nil:
				assert.Equal(t, tt.wantFields, fieldNames(err))
				users.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything)
			case tt.wantErr != nil:
				assert.True(t, tt.wantErr(err), "unexpected error %v", err)
			default:
				require.NoError(t, err)
				assert.Equal(t, "coach_kim", user.Username)
				users.AssertCalled(t, "UpdateProfile", mock.Anything, userID, mock.MatchedBy(func(u models.ProfileUpdate) bool {
					return *u.Username == "coach_kim"
				}))
			}
		})
	}
}

func TestUserService_Stats(t *testing.T) {
	userID := uuid.New()
	now := time.Now()
	history := make([]models.ViewedVideo, 0, 7)
	for i, cat := range []string{"yoga", "yoga", "mindfulness", "dance-move", "yoga", "mindfulness", "workout-sports"} {
		history = append(history, models.ViewedVideo{
			VideoID:  uuid.New(),
			ViewedAt: now.Add(-time.Duration(i) * time.Minute),
			Video:    &models.Video{Category: cat},
		})
	}

	users := new(mockUserRepo)
	users.On("GetByID", mock.Anything, userID).Return(&models.User{ID: userID, TotalViews: 12}, nil)
	users.On("ListViewHistory", mock.Anything, userID).Return(history, nil)
	svc := NewUserService(users, new(mockVideoRepo), validation.New(0))

	stats, err := svc.Stats(context.Background(), userID)

	require.NoError(t, err)
	assert.Equal(t, int64(12), stats.TotalViews)
	assert.Equal(t, 7, stats.VideosViewed)
	assert.GreaterOrEqual(t, stats.TotalViews, int64(stats.VideosViewed))
	assert.Equal(t, map[string]int{"yoga": 3, "mindfulness": 2, "dance-move": 1, "workout-sports": 1}, stats.CategoryBreakdown)
	assert.Len(t, stats.RecentViews, 5)
	assert.Equal(t, history[0].VideoID, stats.RecentViews[0].VideoID)
}

func TestUserService_SaveVideo(t *testing.T) {
	userID := uuid.New()
	active := models.NewVideo("a", "yoga", "a", "u")
	inactive := models.NewVideo("b", "yoga", "b", "u")
	inactive.IsActive = false
	missing := uuid.New()

	videos := new(mockVideoRepo)
	videos.On("GetByID", mock.Anything, active.ID).Return(active, nil)
	videos.On("GetByID", mock.Anything, inactive.ID).Return(inactive, nil)
	videos.On("GetByID", mock.Anything, missing).Return(nil, errNotFound())
	users := new(mockUserRepo)
	users.On("SaveVideo", mock.Anything, userID, active.ID).Return(true, nil).Once()
	users.On("SaveVideo", mock.Anything, userID, active.ID).Return(false, nil).Once()
	svc := NewUserService(users, videos, validation.New(0))
	ctx := context.Background()

	created, err := svc.SaveVideo(ctx, userID, active.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.SaveVideo(ctx, userID, active.ID)
	require.NoError(t, err, "saving twice succeeds")
	assert.False(t, created)

	var nf *NotFoundError
	_, err = svc.SaveVideo(ctx, userID, inactive.ID)
	assert.ErrorAs(t, err, &nf)
	_, err = svc.SaveVideo(ctx, userID, missing)
	assert.ErrorAs(t, err, &nf)

	users.AssertNumberOfCalls(t, "SaveVideo", 2)
}

func TestUserService_UnsaveVideo(t *testing.T) {
	userID, videoID := uuid.New(), uuid.New()
	users := new(mockUserRepo)
	users.On("UnsaveVideo", mock.Anything, userID, videoID).Return(false, nil)
	svc := NewUserService(users, new(mockVideoRepo), validation.New(0))

	removed, err := svc.UnsaveVideo(context.Background(), userID, videoID)

	require.NoError(t, err)
	assert.False(t, removed)
}
