package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wellness-in-schools/video-library/internal/catalog"
	dbmodels "github.com/wellness-in-schools/video-library/internal/db/models"
	"github.com/wellness-in-schools/video-library/internal/metrics"
	"github.com/wellness-in-schools/video-library/internal/middleware"
	"github.com/wellness-in-schools/video-library/internal/service"
)

const testSecret = "handler-test-secret"

type mockCatalog struct {
	mock.Mock
}

func videosOf(args mock.Arguments) ([]*dbmodels.Video, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dbmodels.Video), args.Error(1)
}

func (m *mockCatalog) Categories() []catalog.Category {
	return catalog.Categories
}

func (m *mockCatalog) ListByCategory(ctx context.Context, category string, subcategories []string) ([]*dbmodels.Video, error) {
	return videosOf(m.Called(ctx, category, subcategories))
}

func (m *mockCatalog) ListFeatured(ctx context.Context) ([]*dbmodels.Video, error) {
	return videosOf(m.Called(ctx))
}

func (m *mockCatalog) ListBySubcategories(ctx context.Context, bands []string) ([]*dbmodels.Video, error) {
	return videosOf(m.Called(ctx, bands))
}

func (m *mockCatalog) ListSaved(ctx context.Context, userID uuid.UUID) ([]*dbmodels.Video, error) {
	return videosOf(m.Called(ctx, userID))
}

func (m *mockCatalog) Search(ctx context.Context, query string) ([]*dbmodels.Video, error) {
	return videosOf(m.Called(ctx, query))
}

func (m *mockCatalog) GetByID(ctx context.Context, id uuid.UUID) (*dbmodels.Video, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbmodels.Video), args.Error(1)
}

func (m *mockCatalog) History(ctx context.Context, userID uuid.UUID) ([]dbmodels.ViewedVideo, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dbmodels.ViewedVideo), args.Error(1)
}

type mockTracker struct {
	mock.Mock
}

func (m *mockTracker) TrackView(ctx context.Context, userID, videoID uuid.UUID) (*service.ViewResult, error) {
	args := m.Called(ctx, userID, videoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ViewResult), args.Error(1)
}

func (m *mockTracker) Leaderboard(ctx context.Context, limit int) ([]dbmodels.LeaderboardEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dbmodels.LeaderboardEntry), args.Error(1)
}

type mockEditor struct {
	mock.Mock
	// uploaded holds the bytes of the last thumbnail handed to the editor.
	uploaded []byte
}

func (m *mockEditor) List(ctx context.Context) ([]*dbmodels.Video, error) {
	return videosOf(m.Called(ctx))
}

func (m *mockEditor) readUpload(thumbnail *service.ThumbnailUpload) {
	if thumbnail != nil && thumbnail.Content != nil {
		m.uploaded, _ = io.ReadAll(thumbnail.Content)
	}
}

func (m *mockEditor) Create(ctx context.Context, draft *service.VideoDraft, thumbnail *service.ThumbnailUpload) (*dbmodels.Video, error) {
	m.readUpload(thumbnail)
	args := m.Called(ctx, draft, thumbnail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbmodels.Video), args.Error(1)
}

func (m *mockEditor) Update(ctx context.Context, id uuid.UUID, draft *service.VideoDraft, thumbnail *service.ThumbnailUpload) (*dbmodels.Video, error) {
	m.readUpload(thumbnail)
	args := m.Called(ctx, id, draft, thumbnail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbmodels.Video), args.Error(1)
}

func (m *mockEditor) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockEditor) UploadThumbnail(ctx context.Context, upload service.ThumbnailUpload) (string, error) {
	m.readUpload(&upload)
	args := m.Called(ctx, upload.Filename, upload.Size)
	return args.String(0), args.Error(1)
}

type mockUsers struct {
	mock.Mock
}

func (m *mockUsers) Profile(ctx context.Context, userID uuid.UUID) (*dbmodels.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbmodels.User), args.Error(1)
}

func (m *mockUsers) UpdateProfile(ctx context.Context, userID uuid.UUID, update dbmodels.ProfileUpdate) (*dbmodels.User, error) {
	args := m.Called(ctx, userID, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbmodels.User), args.Error(1)
}

func (m *mockUsers) Stats(ctx context.Context, userID uuid.UUID) (*dbmodels.UserStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbmodels.UserStats), args.Error(1)
}

func (m *mockUsers) IsSaved(ctx context.Context, userID, videoID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, videoID)
	return args.Bool(0), args.Error(1)
}

func (m *mockUsers) SaveVideo(ctx context.Context, userID, videoID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, videoID)
	return args.Bool(0), args.Error(1)
}

func (m *mockUsers) UnsaveVideo(ctx context.Context, userID, videoID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, videoID)
	return args.Bool(0), args.Error(1)
}

type mockReports struct {
	mock.Mock
}

func (m *mockReports) ListUsers(ctx context.Context) ([]dbmodels.UserSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dbmodels.UserSummary), args.Error(1)
}

func (m *mockReports) GetUser(ctx context.Context, id uuid.UUID) (*dbmodels.UserDetails, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbmodels.UserDetails), args.Error(1)
}

func (m *mockReports) SetUserStatus(ctx context.Context, id uuid.UUID, active bool) error {
	return m.Called(ctx, id, active).Error(0)
}

func (m *mockReports) Analytics(ctx context.Context) (*dbmodels.Analytics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbmodels.Analytics), args.Error(1)
}

func (m *mockReports) VideoViewStats(ctx context.Context) ([]dbmodels.CategoryViewStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dbmodels.CategoryViewStats), args.Error(1)
}

func (m *mockReports) UserActivity(ctx context.Context, from, to *time.Time) ([]dbmodels.UserActivityDay, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dbmodels.UserActivityDay), args.Error(1)
}

type mockBanners struct {
	mock.Mock
}

func (m *mockBanners) Get(ctx context.Context) (*dbmodels.Banner, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbmodels.Banner), args.Error(1)
}

func (m *mockBanners) Update(ctx context.Context, update dbmodels.BannerUpdate) (*dbmodels.Banner, error) {
	args := m.Called(ctx, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbmodels.Banner), args.Error(1)
}

type mockGate struct {
	mock.Mock
}

func (m *mockGate) VerifyPassword(ctx context.Context, password string) (bool, error) {
	args := m.Called(ctx, password)
	return args.Bool(0), args.Error(1)
}

func (m *mockGate) Status(ctx context.Context) (*service.SiteStatus, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SiteStatus), args.Error(1)
}

func (m *mockGate) SetPassword(ctx context.Context, password string) error {
	return m.Called(ctx, password).Error(0)
}

func (m *mockGate) Toggle(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

// testServer wires every handler to mocks behind the real router.
type testServer struct {
	router  *gin.Engine
	auth    *middleware.JWTAuth
	catalog *mockCatalog
	tracker *mockTracker
	editor  *mockEditor
	users   *mockUsers
	reports *mockReports
	banners *mockBanners
	gate    *mockGate
}

func newTestServer(t *testing.T, checks ...HealthChecker) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &testServer{
		auth:    middleware.NewJWTAuth(testSecret),
		catalog: &mockCatalog{},
		tracker: &mockTracker{},
		editor:  &mockEditor{},
		users:   &mockUsers{},
		reports: &mockReports{},
		banners: &mockBanners{},
		gate:    &mockGate{},
	}
	s.router = NewRouter(RouterConfig{
		Auth:     s.auth,
		Recorder: metrics.Noop(),
		Videos:   NewVideoHandler(s.catalog, s.tracker, 0),
		Users:    NewUserHandler(s.users, s.catalog),
		Admin:    NewAdminHandler(s.editor, s.reports),
		Settings: NewSettingsHandler(s.banners, s.gate),
		Health:   NewHealthHandler(checks...),
	})

	t.Cleanup(func() {
		s.catalog.AssertExpectations(t)
		s.tracker.AssertExpectations(t)
		s.editor.AssertExpectations(t)
		s.users.AssertExpectations(t)
		s.reports.AssertExpectations(t)
		s.banners.AssertExpectations(t)
		s.gate.AssertExpectations(t)
	})
	return s
}

func (s *testServer) token(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	token, err := s.auth.Sign(userID, role, time.Hour)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
