package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wellness-in-schools/video-library/internal/catalog"
	"github.com/wellness-in-schools/video-library/internal/db"
	"github.com/wellness-in-schools/video-library/internal/db/models"
	"github.com/wellness-in-schools/video-library/internal/db/repository"
	"github.com/wellness-in-schools/video-library/internal/metrics"
	"github.com/wellness-in-schools/video-library/internal/retry"
	"github.com/wellness-in-schools/video-library/pkg/logger"
)

const (
	cacheKeyFeatured       = "videos:featured"
	cacheKeyCategoryPrefix = "videos:category:"
	listCacheName          = "catalog"
)

// CatalogService answers the read-only catalog queries. Lists never fail
// because nothing matched; they come back empty.
type CatalogService struct {
	videos  repository.VideoRepository
	users   repository.UserRepository
	cache   ListCache
	policy  retry.Policy
	metrics metrics.Recorder
}

// NewCatalogService creates a CatalogService. A nil cache or recorder
// disables caching or metrics.
func NewCatalogService(videos repository.VideoRepository, users repository.UserRepository, cache ListCache, policy retry.Policy, rec metrics.Recorder) *CatalogService {
	if cache == nil {
		cache = NoopListCache()
	}
	if rec == nil {
		rec = metrics.Noop()
	}
	return &CatalogService{
		videos:  videos,
		users:   users,
		cache:   cache,
		policy:  policy,
		metrics: rec,
	}
}

// Categories returns the fixed taxonomy.
func (s *CatalogService) Categories() []catalog.Category {
	return catalog.Categories
}

// ListByCategory returns the active videos of category, narrowed by any
// subcategory selectors. Multiple selectors are OR-combined.
func (s *CatalogService) ListByCategory(ctx context.Context, category string, subcategories []string) ([]*models.Video, error) {
	if !catalog.IsCategory(category) {
		return []*models.Video{}, nil
	}

	videos, err := s.cachedList(ctx, "list_by_category", cacheKeyCategoryPrefix+category, func(ctx context.Context) ([]*models.Video, error) {
		return s.videos.ListByCategory(ctx, category)
	})
	if err != nil {
		return nil, err
	}

	return catalog.FilterAny(videos, category, subcategories), nil
}

// ListFeatured returns the active featured videos.
func (s *CatalogService) ListFeatured(ctx context.Context) ([]*models.Video, error) {
	return s.cachedList(ctx, "list_featured", cacheKeyFeatured, s.videos.ListFeatured)
}

// ListBySubcategories returns active videos tagged with any of the grade bands.
func (s *CatalogService) ListBySubcategories(ctx context.Context, bands []string) ([]*models.Video, error) {
	cleaned := make([]string, 0, len(bands))
	for _, b := range bands {
		if b = strings.TrimSpace(b); b != "" {
			cleaned = append(cleaned, b)
		}
	}
	if len(cleaned) == 0 {
		return []*models.Video{}, nil
	}

	return s.read(ctx, "list_by_subcategories", func(ctx context.Context) ([]*models.Video, error) {
		return s.videos.ListBySubcategories(ctx, cleaned)
	})
}

// ListSaved returns the user's saved videos that are still active.
func (s *CatalogService) ListSaved(ctx context.Context, userID uuid.UUID) ([]*models.Video, error) {
	return s.read(ctx, "list_saved", func(ctx context.Context) ([]*models.Video, error) {
		return s.videos.ListSavedByUser(ctx, userID)
	})
}

// Search matches query case-insensitively against title, description,
// instructor and tags. A blank query matches nothing.
func (s *CatalogService) Search(ctx context.Context, query string) ([]*models.Video, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*models.Video{}, nil
	}

	return s.read(ctx, "search", func(ctx context.Context) ([]*models.Video, error) {
		return s.videos.Search(ctx, query)
	})
}

// GetByID returns an active video. Inactive videos are reported as not found.
func (s *CatalogService) GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	video, err := retry.Value(ctx, s.policy, s.retryable("get_video"), func(ctx context.Context) (*models.Video, error) {
		return s.videos.GetByID(ctx, id)
	})
	if err != nil {
		return nil, s.readError("get_video", notFoundOr(err, "video", id.String()))
	}
	if !video.IsActive {
		return nil, &NotFoundError{Resource: "video", ID: id.String()}
	}
	return video, nil
}

// History returns the user's viewed videos joined to catalog data, most
// recent first.
func (s *CatalogService) History(ctx context.Context, userID uuid.UUID) ([]models.ViewedVideo, error) {
	history, err := retry.Value(ctx, s.policy, s.retryable("view_history"), func(ctx context.Context) ([]models.ViewedVideo, error) {
		return s.users.ListViewHistory(ctx, userID)
	})
	if err != nil {
		return nil, s.readError("view_history", err)
	}
	return history, nil
}

// Invalidate drops every cached list. Writers call it after changing videos.
func (s *CatalogService) Invalidate() {
	s.cache.Clear()
}

func (s *CatalogService) cachedList(ctx context.Context, op, key string, fetch func(context.Context) ([]*models.Video, error)) ([]*models.Video, error) {
	if data, ok := s.cache.Get(key); ok {
		videos, err := decodeVideos(data)
		if err == nil {
			s.metrics.IncCacheHits(listCacheName)
			return videos, nil
		}
		logger.L().Warn("Discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
	}
	s.metrics.IncCacheMisses(listCacheName)

	videos, err := s.read(ctx, op, fetch)
	if err != nil {
		return nil, err
	}

	if data, err := encodeVideos(videos); err == nil {
		s.cache.Set(key, data)
	}
	return videos, nil
}

func (s *CatalogService) read(ctx context.Context, op string, fetch func(context.Context) ([]*models.Video, error)) ([]*models.Video, error) {
	videos, err := retry.Value(ctx, s.policy, s.retryable(op), fetch)
	if err != nil {
		return nil, s.readError(op, err)
	}
	if videos == nil {
		videos = []*models.Video{}
	}
	return videos, nil
}

// retryable retries transient storage errors and counts each retry.
func (s *CatalogService) retryable(op string) func(error) bool {
	return transientRetry(s.metrics, op)
}

func (s *CatalogService) readError(op string, err error) error {
	return readError(s.policy, op, err)
}

func transientRetry(rec metrics.Recorder, op string) func(error) bool {
	return func(err error) bool {
		if !db.IsTransient(err) {
			return false
		}
		rec.IncReadRetries(op)
		return true
	}
}

// readError wraps an exhausted transient failure so callers can tell
// throttling apart from other failures.
func readError(policy retry.Policy, op string, err error) error {
	if db.IsTransient(err) {
		logger.L().Warn("Read failed after retries", zap.String("operation", op), zap.Error(err))
		return &TransientError{Operation: op, RetryAfter: policy.BaseDelay, Cause: err}
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		logger.L().Error("Read failed", zap.String("operation", op), zap.Error(err))
	}
	return err
}
