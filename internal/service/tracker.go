package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wellness-in-schools/video-library/internal/db"
	"github.com/wellness-in-schools/video-library/internal/db/models"
	"github.com/wellness-in-schools/video-library/internal/db/repository"
	"github.com/wellness-in-schools/video-library/internal/metrics"
	"github.com/wellness-in-schools/video-library/internal/retry"
	"github.com/wellness-in-schools/video-library/pkg/logger"
)

const (
	// DefaultLeaderboardLimit is used when a caller does not ask for a size.
	DefaultLeaderboardLimit = 10

	// LeaderboardSnapshotSize is how many ranked users the cached snapshot holds.
	LeaderboardSnapshotSize = 100
)

// ViewResult describes a committed view.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type ViewResult struct {
	VideoID    uuid.UUID `json:"videoId"`
	ViewCount  int64     `json:"viewCount"`
	TotalViews int64     `json:"totalViews"`
	FirstView  bool      `json:"firstView"`
	ViewedAt   time.Time `json:"viewedAt"`
}

// Tracker records video views and maintains the leaderboard.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type Tracker struct {
	tx        db.Transactor
	videos    repository.VideoRepository
	users     repository.UserRepository
	board     LeaderboardCache
	publisher EventPublisher
	policy    retry.Policy
	metrics   metrics.Recorder
	now       func() time.Time
}

// NewTracker creates a Tracker. Nil board, publisher or recorder fall back to
// no-op implementations.
func NewTracker(tx db.Transactor, videos repository.VideoRepository, users repository.UserRepository, board LeaderboardCache, publisher EventPublisher, policy retry.Policy, rec metrics.Recorder) *Tracker {
	if board == nil {
		board = NoopLeaderboardCache{}
	}
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	if rec == nil {
		rec = metrics.Noop()
	}
	return &Tracker{
		tx:        tx,
		videos:    videos,
		users:     users,
		board:     board,
		publisher: publisher,
		policy:    policy,
		metrics:   rec,
		now:       time.Now,
	}
}

// TrackView records one view of videoID by userID. The video counter, the
// user's total and the user's history entry are written in one transaction.
// The leaderboard refresh runs after commit; if it fails the view stands and
// a PartialFailureError is returned alongside the result.
//
// Writes are never retried here: a second attempt could count twice.
func (t *Tracker) TrackView(ctx context.Context, userID, videoID uuid.UUID) (*ViewResult, error) {
	result := &ViewResult{VideoID: videoID, ViewedAt: t.now().UTC()}

	err := t.tx.InTx(ctx, func(ctx context.Context) error {
		viewCount, err := t.videos.IncrementViewCount(ctx, videoID)
		if err != nil {
			return notFoundOr(err, "video", videoID.String())
		}

		totalViews, err := t.users.IncrementTotalViews(ctx, userID)
		if err != nil {
			return notFoundOr(err, "user", userID.String())
		}

		inserted, err := t.users.UpsertViewedVideo(ctx, userID, videoID, result.ViewedAt)
		if err != nil {
			return err
		}

		result.ViewCount = viewCount
		result.TotalViews = totalViews
		result.FirstView = inserted
		return nil
	})
	if err != nil {
		return nil, err
	}

	t.metrics.IncViewsTracked()
	logger.L().Debug("View tracked",
		zap.String("userId", userID.String()),
		zap.String("videoId", videoID.String()),
		zap.Int64("viewCount", result.ViewCount),
		zap.Int64("totalViews", result.TotalViews),
		zap.Bool("firstView", result.FirstView),
	)

	t.publish(ctx, userID, result)

	if err := t.RefreshLeaderboard(ctx); err != nil {
		t.metrics.IncLeaderboardRefreshFailures()
		logger.L().Warn("Leaderboard refresh failed after view",
			zap.String("userId", userID.String()),
			zap.Error(err),
		)
		return result, &PartialFailureError{Message: "view recorded but leaderboard refresh failed", Cause: err}
	}

	return result, nil
}

// RefreshLeaderboard recomputes the top users and replaces the cached snapshot.
func (t *Tracker) RefreshLeaderboard(ctx context.Context) error {
	entries, err := t.users.Leaderboard(ctx, LeaderboardSnapshotSize)
	if err != nil {
		return err
	}
	return t.board.Store(ctx, entries)
}

// Leaderboard returns the top limit users by total views. It serves the
// cached snapshot when it can and falls back to the database on a miss or a
// cache error, repopulating the snapshot on the way.
func (t *Tracker) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}

	if limit <= LeaderboardSnapshotSize {
		entries, ok, err := t.board.Load(ctx)
		switch {
		case err != nil:
			t.metrics.IncCacheMisses("leaderboard")
			logger.L().Warn("Leaderboard cache read failed, using database", zap.Error(err))
		case ok:
			t.metrics.IncCacheHits("leaderboard")
			return head(entries, limit), nil
		default:
			t.metrics.IncCacheMisses("leaderboard")
		}
	}

	size := max(limit, LeaderboardSnapshotSize)
	entries, err := retry.Value(ctx, t.policy, transientRetry(t.metrics, "leaderboard"), func(ctx context.Context) ([]models.LeaderboardEntry, error) {
		return t.users.Leaderboard(ctx, size)
	})
	if err != nil {
		return nil, readError(t.policy, "leaderboard", err)
	}

	if size == LeaderboardSnapshotSize {
		if err := t.board.Store(ctx, entries); err != nil {
			logger.L().Warn("Failed to repopulate leaderboard cache", zap.Error(err))
		}
	}

	return head(entries, limit), nil
}

func (t *Tracker) publish(ctx context.Context, userID uuid.UUID, result *ViewResult) {
	event := &ViewEvent{
		ID:         uuid.New(),
		VideoID:    result.VideoID,
		UserID:     userID,
		ViewedAt:   result.ViewedAt,
		TotalViews: result.TotalViews,
		ViewCount:  result.ViewCount,
	}
	if err := t.publisher.PublishViewEvent(ctx, event); err != nil {
		t.metrics.IncEventsPublished("error")
		logger.L().Warn("Failed to publish view event",
			zap.String("videoId", result.VideoID.String()),
			zap.Error(err),
		)
		return
	}
	t.metrics.IncEventsPublished("ok")
}

func head(entries []models.LeaderboardEntry, limit int) []models.LeaderboardEntry {
	if entries == nil {
		return []models.LeaderboardEntry{}
	}
	if len(entries) > limit {
		return entries[:limit]
	}
	return entries
}
