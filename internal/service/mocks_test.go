package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/wellness-in-schools/video-library/internal/db"
	"github.com/wellness-in-schools/video-library/internal/db/models"
)

func errNotFound() error {
	return fmt.Errorf("lookup: %w", db.ErrNotFound)
}

func errTransient() error {
	return fmt.Errorf("query: %w [53300]: too many connections", db.ErrTransient)
}

// Mock repositories
type mockVideoRepo struct {
	mock.Mock
}

func (m *mockVideoRepo) videos(args mock.Arguments) ([]*models.Video, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Video), args.Error(1)
}

func (m *mockVideoRepo) ListByCategory(ctx context.Context, category string) ([]*models.Video, error) {
	return m.videos(m.Called(ctx, category))
}

func (m *mockVideoRepo) ListFeatured(ctx context.Context) ([]*models.Video, error) {
	return m.videos(m.Called(ctx))
}

func (m *mockVideoRepo) ListBySubcategories(ctx context.Context, bands []string) ([]*models.Video, error) {
	return m.videos(m.Called(ctx, bands))
}

func (m *mockVideoRepo) ListSavedByUser(ctx context.Context, userID uuid.UUID) ([]*models.Video, error) {
	return m.videos(m.Called(ctx, userID))
}

func (m *mockVideoRepo) Search(ctx context.Context, query string) ([]*models.Video, error) {
	return m.videos(m.Called(ctx, query))
}

func (m *mockVideoRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Video), args.Error(1)
}

func (m *mockVideoRepo) ListAll(ctx context.Context) ([]*models.Video, error) {
	return m.videos(m.Called(ctx))
}

func (m *mockVideoRepo) Create(ctx context.Context, video *models.Video) error {
	args := m.Called(ctx, video)
	return args.Error(0)
}

func (m *mockVideoRepo) Update(ctx context.Context, video *models.Video) error {
	args := m.Called(ctx, video)
	return args.Error(0)
}

func (m *mockVideoRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

func (m *mockVideoRepo) IncrementViewCount(ctx context.Context, id uuid.UUID) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, id uuid.UUID, update models.ProfileUpdate) (*models.User, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

func (m *mockUserRepo) IncrementTotalViews(ctx context.Context, id uuid.UUID) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockUserRepo) UpsertViewedVideo(ctx context.Context, userID, videoID uuid.UUID, viewedAt time.Time) (bool, error) {
	args := m.Called(ctx, userID, videoID, viewedAt)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepo) ListViewHistory(ctx context.Context, userID uuid.UUID) ([]models.ViewedVideo, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ViewedVideo), args.Error(1)
}

func (m *mockUserRepo) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LeaderboardEntry), args.Error(1)
}

func (m *mockUserRepo) ListActiveWithCounts(ctx context.Context) ([]models.UserSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UserSummary), args.Error(1)
}

func (m *mockUserRepo) SaveVideo(ctx context.Context, userID, videoID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, videoID)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepo) UnsaveVideo(ctx context.Context, userID, videoID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, videoID)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepo) IsSaved(ctx context.Context, userID, videoID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, videoID)
	return args.Bool(0), args.Error(1)
}

type mockAnalyticsRepo struct {
	mock.Mock
}

func (m *mockAnalyticsRepo) CountActiveUsers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAnalyticsRepo) CountActiveVideos(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAnalyticsRepo) SumActiveUserViews(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAnalyticsRepo) TopVideos(ctx context.Context, limit int) ([]models.VideoRank, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]models.VideoRank), args.Error(1)
}

func (m *mockAnalyticsRepo) RecentUsers(ctx context.Context, limit int) ([]models.RecentUser, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]models.RecentUser), args.Error(1)
}

func (m *mockAnalyticsRepo) CategoryViewStats(ctx context.Context) ([]models.CategoryViewStats, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.CategoryViewStats), args.Error(1)
}

func (m *mockAnalyticsRepo) UserActivity(ctx context.Context, from, to *time.Time) ([]models.UserActivityDay, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]models.UserActivityDay), args.Error(1)
}

type mockBannerRepo struct {
	mock.Mock
}

func (m *mockBannerRepo) Get(ctx context.Context) (*models.Banner, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Banner), args.Error(1)
}

func (m *mockBannerRepo) Save(ctx context.Context, banner *models.Banner) error {
	args := m.Called(ctx, banner)
	return args.Error(0)
}

// memSiteRepo keeps the singleton in memory so hashing round-trips can be
// exercised end to end.
type memSiteRepo struct {
	settings *models.SiteSettings
	saves    int
}

func (r *memSiteRepo) Get(_ context.Context) (*models.SiteSettings, error) {
	if r.settings == nil {
		return nil, errNotFound()
	}
	cp := *r.settings
	return &cp, nil
}

func (r *memSiteRepo) Save(_ context.Context, s *models.SiteSettings) error {
	cp := *s
	r.settings = &cp
	r.saves++
	return nil
}

func (r *memSiteRepo) CreateIfMissing(_ context.Context, s *models.SiteSettings) (*models.SiteSettings, error) {
	if r.settings == nil {
		cp := *s
		r.settings = &cp
	}
	cp := *r.settings
	return &cp, nil
}

// passthroughTx runs fn without a real transaction.
type passthroughTx struct {
	calls int
}

func (t *passthroughTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

type mockBoard struct {
	mock.Mock
}

func (m *mockBoard) Load(ctx context.Context) ([]models.LeaderboardEntry, bool, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]models.LeaderboardEntry), args.Bool(1), args.Error(2)
}

func (m *mockBoard) Store(ctx context.Context, entries []models.LeaderboardEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *mockBoard) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishViewEvent(ctx context.Context, event *ViewEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type mockThumbnails struct {
	mock.Mock
}

func (m *mockThumbnails) Save(ctx context.Context, upload ThumbnailUpload) (string, error) {
	args := m.Called(ctx, upload)
	return args.String(0), args.Error(1)
}

func (m *mockThumbnails) Remove(ctx context.Context, ref string) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}
