package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wellness-in-schools/video-library/internal/models"
	"github.com/wellness-in-schools/video-library/internal/service"
)

const maxLeaderboardLimit = 1000

// VideoHandler serves the public catalog, view tracking and the leaderboard.
type VideoHandler struct {
	catalog          CatalogReader
	tracker          ViewTracker
	leaderboardLimit int
}

// NewVideoHandler creates a new VideoHandler instance. leaderboardLimit is
// used when a request does not name one.
func NewVideoHandler(catalog CatalogReader, tracker ViewTracker, leaderboardLimit int) *VideoHandler {
	if leaderboardLimit <= 0 {
		leaderboardLimit = service.DefaultLeaderboardLimit
	}
	return &VideoHandler{
		catalog:          catalog,
		tracker:          tracker,
		leaderboardLimit: leaderboardLimit,
	}
}

// Categories handles GET /videos/categories.
func (h *VideoHandler) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Categories())
}

// ListByCategory handles GET /videos/category/:category?subcategory=.
// Repeated and comma separated subcategory values are OR-combined.
func (h *VideoHandler) ListByCategory(c *gin.Context) {
	selectors := splitValues(c.QueryArray("subcategory"))

	videos, err := h.catalog.ListByCategory(c.Request.Context(), c.Param("category"), selectors)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, videos)
}

// ListFeatured handles GET /videos/featured.
func (h *VideoHandler) ListFeatured(c *gin.Context) {
	videos, err := h.catalog.ListFeatured(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, videos)
}

// ListBySubcategories handles GET /videos/subcategory/:list.
func (h *VideoHandler) ListBySubcategories(c *gin.Context) {
	bands := splitValues([]string{c.Param("list")})

	videos, err := h.catalog.ListBySubcategories(c.Request.Context(), bands)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, videos)
}

// Search handles GET /videos/search/:query.
func (h *VideoHandler) Search(c *gin.Context) {
	videos, err := h.catalog.Search(c.Request.Context(), c.Param("query"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, videos)
}

// Get handles GET /videos/:id.
func (h *VideoHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	video, err := h.catalog.GetByID(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, video)
}

// TrackView handles POST /videos/:id/view. A view whose leaderboard refresh
// failed is still reported as tracked.
func (h *VideoHandler) TrackView(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	videoID, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.tracker.TrackView(c.Request.Context(), userID, videoID)
	stale := false
	if err != nil {
		if !service.IsPartialFailure(err) || result == nil {
			handleError(c, err)
			return
		}
		stale = true
	}

	c.JSON(http.StatusOK, models.ViewResponse{
		Message:    "View tracked successfully",
		VideoID:    result.VideoID,
		ViewCount:  result.ViewCount,
		TotalViews: result.TotalViews,
		FirstView:  result.FirstView,
		ViewedAt:   result.ViewedAt,
		Stale:      stale,
	})
}

// Leaderboard handles GET /videos/leaderboard/top?limit=.
func (h *VideoHandler) Leaderboard(c *gin.Context) {
	limit := h.leaderboardLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = min(n, maxLeaderboardLimit)
		}
	}

	entries, err := h.tracker.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// History handles GET /videos/history/user.
func (h *VideoHandler) History(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	history, err := h.catalog.History(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

// splitValues flattens comma separated values and drops blanks.
func splitValues(raw []string) []string {
	var out []string
	for _, r := range raw {
		for _, v := range strings.Split(r, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}
