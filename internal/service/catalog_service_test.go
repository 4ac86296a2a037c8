package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wellness-in-schools/video-library/internal/catalog"
	"github.com/wellness-in-schools/video-library/internal/db/models"
	"github.com/wellness-in-schools/video-library/internal/retry"
)

func fastPolicy() retry.Policy {
	return retry.Policy{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func testVideo(title, category string, seconds int, bands ...string) *models.Video {
	v := models.NewVideo(title, category, "id-"+title, "https://drive.google.com/file/d/id-"+title+"/view")
	v.Subcategory = bands
	v.DurationSeconds = &seconds
	return v
}

func TestCatalogService_ListByCategory(t *testing.T) {
	videos := []*models.Video{
		testVideo("stretch", catalog.CategoryYoga, 300, "grades-3-4"),
		testVideo("flow", catalog.CategoryYoga, 600, "grades-3-4"),
		testVideo("warrior", catalog.CategoryYoga, 300, "high-school"),
	}

	tests := []struct {
		name          string
		subcategories []string
		want          []string
	}{
		{"no selector", nil, []string{"stretch", "flow", "warrior"}},
		{"grade band and duration", []string{"grades-3-4-5min"}, []string{"stretch"}},
		{"longer duration excluded", []string{"grades-3-4-10min"}, []string{"flow"}},
		{"or-combined selectors", []string{"grades-3-4-10min", "high-school-5min"}, []string{"flow", "warrior"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockVideoRepo)
			repo.On("ListByCategory", mock.Anything, catalog.CategoryYoga).Return(videos, nil).Once()

			svc := NewCatalogService(repo, nil, nil, fastPolicy(), nil)
			got, err := svc.ListByCategory(context.Background(), catalog.CategoryYoga, tt.subcategories)

			require.NoError(t, err)
			titles := make([]string, 0, len(got))
			for _, v := range got {
				titles = append(titles, v.Title)
			}
			assert.Equal(t, tt.want, titles)
			repo.AssertExpectations(t)
		})
	}
}

func TestCatalogService_UnknownCategoryIsEmpty(t *testing.T) {
	repo := new(mockVideoRepo)
	svc := NewCatalogService(repo, nil, nil, fastPolicy(), nil)

	got, err := svc.ListByCategory(context.Background(), "pottery", nil)

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	repo.AssertNotCalled(t, "ListByCategory", mock.Anything, mock.Anything)
}

func TestCatalogService_CachesCategoryLists(t *testing.T) {
	videos := []*models.Video{testVideo("stretch", catalog.CategoryYoga, 300, "grades-3-4")}
	repo := new(mockVideoRepo)
	repo.On("ListByCategory", mock.Anything, catalog.CategoryYoga).Return(videos, nil).Twice()

	svc := NewCatalogService(repo, nil, NewListCache(1, time.Minute), fastPolicy(), nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := svc.ListByCategory(ctx, catalog.CategoryYoga, nil)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, videos[0].ID, got[0].ID)
	}
	repo.AssertNumberOfCalls(t, "ListByCategory", 1)

	svc.Invalidate()
	_, err := svc.ListByCategory(ctx, catalog.CategoryYoga, nil)
	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "ListByCategory", 2)
}

func TestCatalogService_RetriesTransientReads(t *testing.T) {
	featured := []*models.Video{testVideo("featured", catalog.CategoryDanceMove, 600, "pre-k-2")}
	repo := new(mockVideoRepo)
	repo.On("ListFeatured", mock.Anything).Return(nil, errTransient()).Twice()
	repo.On("ListFeatured", mock.Anything).Return(featured, nil).Once()

	svc := NewCatalogService(repo, nil, nil, fastPolicy(), nil)
	got, err := svc.ListFeatured(context.Background())

	require.NoError(t, err)
	assert.Len(t, got, 1)
	repo.AssertNumberOfCalls(t, "ListFeatured", 3)
}

func TestCatalogService_TransientAfterRetries(t *testing.T) {
	repo := new(mockVideoRepo)
	repo.On("Search", mock.Anything, "yoga").Return(nil, errTransient())

	svc := NewCatalogService(repo, nil, nil, fastPolicy(), nil)
	_, err := svc.Search(context.Background(), "  yoga ")

	var te *TransientError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "search", te.Operation)
	repo.AssertNumberOfCalls(t, "Search", 3)
}

func TestCatalogService_DoesNotRetryOtherErrors(t *testing.T) {
	boom := errors.New("boom")
	userID := uuid.New()
	repo := new(mockVideoRepo)
	repo.On("ListSavedByUser", mock.Anything, userID).Return(nil, boom)

	svc := NewCatalogService(repo, nil, nil, fastPolicy(), nil)
	_, err := svc.ListSaved(context.Background(), userID)

	assert.ErrorIs(t, err, boom)
	repo.AssertNumberOfCalls(t, "ListSavedByUser", 1)
}

func TestCatalogService_BlankSearchIsEmpty(t *testing.T) {
	repo := new(mockVideoRepo)
	svc := NewCatalogService(repo, nil, nil, fastPolicy(), nil)

	got, err := svc.Search(context.Background(), "   ")

	require.NoError(t, err)
	assert.Empty(t, got)
	repo.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestCatalogService_ListBySubcategories(t *testing.T) {
	repo := new(mockVideoRepo)
	repo.On("ListBySubcategories", mock.Anything, []string{"pre-k-2", "high-school"}).Return([]*models.Video{}, nil)

	svc := NewCatalogService(repo, nil, nil, fastPolicy(), nil)
	got, err := svc.ListBySubcategories(context.Background(), []string{" pre-k-2", "", "high-school"})

	require.NoError(t, err)
	assert.NotNil(t, got)
	repo.AssertExpectations(t)
}

func TestCatalogService_GetByID(t *testing.T) {
	active := testVideo("active", catalog.CategoryYoga, 300, "pre-k-2")
	inactive := testVideo("inactive", catalog.CategoryYoga, 300, "pre-k-2")
	inactive.IsActive = false
	missing := uuid.New()

	repo := new(mockVideoRepo)
	repo.On("GetByID", mock.Anything, active.ID).Return(active, nil)
	repo.On("GetByID", mock.Anything, inactive.ID).Return(inactive, nil)
	repo.On("GetByID", mock.Anything, missing).Return(nil, errNotFound())

	svc := NewCatalogService(repo, nil, nil, fastPolicy(), nil)
	ctx := context.Background()

	got, err := svc.GetByID(ctx, active.ID)
	require.NoError(t, err)
	assert.Equal(t, active.ID, got.ID)

	var nf *NotFoundError
	_, err = svc.GetByID(ctx, inactive.ID)
	assert.ErrorAs(t, err, &nf)

	_, err = svc.GetByID(ctx, missing)
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "video", nf.Resource)
	repo.AssertNumberOfCalls(t, "GetByID", 3)
}

func TestCatalogService_History(t *testing.T) {
	userID := uuid.New()
	history := []models.ViewedVideo{{VideoID: uuid.New(), ViewedAt: time.Now()}}
	users := new(mockUserRepo)
	users.On("ListViewHistory", mock.Anything, userID).Return(history, nil)

	svc := NewCatalogService(new(mockVideoRepo), users, nil, fastPolicy(), nil)
	got, err := svc.History(context.Background(), userID)

	require.NoError(t, err)
	assert.Equal(t, history, got)
}

func TestCatalogService_Categories(t *testing.T) {
	svc := NewCatalogService(nil, nil, nil, fastPolicy(), nil)
	cats := svc.Categories()

	require.Len(t, cats, 4)
	assert.Equal(t, catalog.Category{ID: "workout-sports", Name: "Workout & Sports", Color: "#28b6ea"}, cats[0])
}
