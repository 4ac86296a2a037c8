package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wellness-in-schools/video-library/internal/metrics"
	"github.com/wellness-in-schools/video-library/internal/middleware"
)

// RouterConfig collects everything the router mounts. Optional fields may be
// left empty.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type RouterConfig struct {
	Auth     *middleware.JWTAuth
	Recorder metrics.Recorder

	Videos   *VideoHandler
	Users    *UserHandler
	Admin    *AdminHandler
	Settings *SettingsHandler
	Health   *HealthHandler

	// MetricsPath and MetricsHandler expose prometheus when both are set.
	MetricsPath    string
	MetricsHandler http.Handler

	// UploadURLPrefix is served from UploadDir when both are set.
	UploadURLPrefix string
	UploadDir       string

	// MaxMultipartMemory bounds the in-memory part of multipart bodies.
	MaxMultipartMemory int64
}

// NewRouter builds the gin engine with every API route under /api.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	// Match on the escaped path so "%2F" inside a search query stays in :query.
	r.UseRawPath = true
	r.UnescapePathValues = true
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog())
	if cfg.Recorder != nil {
		r.Use(middleware.Metrics(cfg.Recorder))
	}
	if cfg.MaxMultipartMemory > 0 {
		r.MaxMultipartMemory = cfg.MaxMultipartMemory
	}
	r.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "Route not found", nil)
	})

	if cfg.MetricsPath != "" && cfg.MetricsHandler != nil {
		r.GET(cfg.MetricsPath, gin.WrapH(cfg.MetricsHandler))
	}
	if cfg.UploadURLPrefix != "" && cfg.UploadDir != "" {
		r.Static(cfg.UploadURLPrefix, cfg.UploadDir)
	}

	requireUser := cfg.Auth.RequireUser()
	requireAdmin := cfg.Auth.RequireAdmin()

	api := r.Group("/api")

	health := api.Group("/health")
	health.GET("", cfg.Health.LivenessProbe)
	health.GET("/ready", cfg.Health.ReadinessProbe)

	videos := api.Group("/videos")
	videos.GET("/categories", cfg.Videos.Categories)
	videos.GET("/featured", cfg.Videos.ListFeatured)
	videos.GET("/category/:category", cfg.Videos.ListByCategory)
	videos.GET("/subcategory/:list", cfg.Videos.ListBySubcategories)
	videos.GET("/search/:query", cfg.Videos.Search)
	videos.GET("/leaderboard/top", cfg.Videos.Leaderboard)
	videos.GET("/history/user", requireUser, cfg.Videos.History)
	videos.GET("/:id", cfg.Videos.Get)
	videos.POST("/:id/view", requireUser, cfg.Videos.TrackView)

	users := api.Group("/users", requireUser)
	users.GET("/profile", cfg.Users.Profile)
	users.PUT("/profile", cfg.Users.UpdateProfile)
	users.GET("/stats", cfg.Users.Stats)
	users.GET("/saved-videos", cfg.Users.SavedVideos)
	users.GET("/saved-videos/:id", cfg.Users.IsSaved)
	users.POST("/saved-videos/:id", cfg.Users.SaveVideo)
	users.DELETE("/saved-videos/:id", cfg.Users.UnsaveVideo)

	admin := api.Group("/admin", requireUser, requireAdmin)
	admin.GET("/videos", cfg.Admin.ListVideos)
	admin.POST("/videos", cfg.Admin.CreateVideo)
	admin.POST("/videos/upload-thumbnail", cfg.Admin.UploadThumbnail)
	admin.PUT("/videos/:id", cfg.Admin.UpdateVideo)
	admin.DELETE("/videos/:id", cfg.Admin.DeleteVideo)
	admin.GET("/users", cfg.Admin.ListUsers)
	admin.GET("/users/:id", cfg.Admin.GetUser)
	admin.PATCH("/users/:id/status", cfg.Admin.SetUserStatus)
	admin.GET("/analytics", cfg.Admin.Analytics)
	admin.GET("/stats/video-views", cfg.Admin.VideoViewStats)
	admin.GET("/stats/user-activity", cfg.Admin.UserActivity)

	api.GET("/banner", cfg.Settings.GetBanner)
	api.PUT("/banner", requireUser, requireAdmin, cfg.Settings.UpdateBanner)

	site := api.Group("/site-settings")
	site.POST("/verify-password", cfg.Settings.VerifyPassword)
	site.GET("", requireUser, requireAdmin, cfg.Settings.SiteStatus)
	site.PUT("/password", requireUser, requireAdmin, cfg.Settings.SetPassword)
	site.PUT("/toggle", requireUser, requireAdmin, cfg.Settings.ToggleGate)

	return r
}
