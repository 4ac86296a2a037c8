// Package handler provides HTTP request handlers for the application.
package handler

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wellness-in-schools/video-library/internal/catalog"
	dbmodels "github.com/wellness-in-schools/video-library/internal/db/models"
	"github.com/wellness-in-schools/video-library/internal/middleware"
	"github.com/wellness-in-schools/video-library/internal/models"
	"github.com/wellness-in-schools/video-library/internal/service"
	"github.com/wellness-in-schools/video-library/pkg/logger"
)

// CatalogReader serves the public catalog.
type CatalogReader interface {
	Categories() []catalog.Category
	ListByCategory(ctx context.Context, category string, subcategories []string) ([]*dbmodels.Video, error)
	ListFeatured(ctx context.Context) ([]*dbmodels.Video, error)
	ListBySubcategories(ctx context.Context, bands []string) ([]*dbmodels.Video, error)
	ListSaved(ctx context.Context, userID uuid.UUID) ([]*dbmodels.Video, error)
	Search(ctx context.Context, query string) ([]*dbmodels.Video, error)
	GetByID(ctx context.Context, id uuid.UUID) (*dbmodels.Video, error)
	History(ctx context.Context, userID uuid.UUID) ([]dbmodels.ViewedVideo, error)
}

// ViewTracker records views and serves the leaderboard.
type ViewTracker interface {
	TrackView(ctx context.Context, userID, videoID uuid.UUID) (*service.ViewResult, error)
	Leaderboard(ctx context.Context, limit int) ([]dbmodels.LeaderboardEntry, error)
}

// CatalogEditor is the admin write path of the catalog.
type CatalogEditor interface {
	List(ctx context.Context) ([]*dbmodels.Video, error)
	Create(ctx context.Context, draft *service.VideoDraft, thumbnail *service.ThumbnailUpload) (*dbmodels.Video, error)
	Update(ctx context.Context, id uuid.UUID, draft *service.VideoDraft, thumbnail *service.ThumbnailUpload) (*dbmodels.Video, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UploadThumbnail(ctx context.Context, upload service.ThumbnailUpload) (string, error)
}

// UserAccounts serves the signed-in user's own data.
type UserAccounts interface {
	Profile(ctx context.Context, userID uuid.UUID) (*dbmodels.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, update dbmodels.ProfileUpdate) (*dbmodels.User, error)
	Stats(ctx context.Context, userID uuid.UUID) (*dbmodels.UserStats, error)
	IsSaved(ctx context.Context, userID, videoID uuid.UUID) (bool, error)
	SaveVideo(ctx context.Context, userID, videoID uuid.UUID) (bool, error)
	UnsaveVideo(ctx context.Context, userID, videoID uuid.UUID) (bool, error)
}

// AdminReports serves user management and analytics.
type AdminReports interface {
	ListUsers(ctx context.Context) ([]dbmodels.UserSummary, error)
	GetUser(ctx context.Context, id uuid.UUID) (*dbmodels.UserDetails, error)
	SetUserStatus(ctx context.Context, id uuid.UUID, active bool) error
	Analytics(ctx context.Context) (*dbmodels.Analytics, error)
	VideoViewStats(ctx context.Context) ([]dbmodels.CategoryViewStats, error)
	UserActivity(ctx context.Context, from, to *time.Time) ([]dbmodels.UserActivityDay, error)
}

// Banners reads and edits the site banner.
type Banners interface {
	Get(ctx context.Context) (*dbmodels.Banner, error)
	Update(ctx context.Context, update dbmodels.BannerUpdate) (*dbmodels.Banner, error)
}

// SiteGate manages the site password.
type SiteGate interface {
	VerifyPassword(ctx context.Context, password string) (bool, error)
	Status(ctx context.Context) (*service.SiteStatus, error)
	SetPassword(ctx context.Context, password string) error
	Toggle(ctx context.Context) (bool, error)
}

// handleError maps service errors onto the error envelope.
func handleError(c *gin.Context, err error) {
	var (
		validationErr *service.ValidationError
		notFoundErr   *service.NotFoundError
		conflictErr   *service.ConflictError
		transientErr  *service.TransientError
	)

	switch {
	case errors.As(err, &validationErr):
		logger.L().Warn("Validation error",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
		)
		fields := make([]models.FieldErrorDTO, 0, len(validationErr.Fields))
		for _, f := range validationErr.Fields {
			fields = append(fields, models.FieldErrorDTO{Field: f.Field, Message: f.Message})
		}
		writeError(c, http.StatusBadRequest, "Validation failed", fields)
	case errors.As(err, &notFoundErr):
		writeError(c, http.StatusNotFound, notFoundErr.Error(), nil)
	case errors.As(err, &conflictErr):
		writeError(c, http.StatusConflict, conflictErr.Message, nil)
	case errors.As(err, &transientErr):
		logger.L().Warn("Read throttled after retries",
			zap.Error(err),
			zap.String("operation", transientErr.Operation),
			zap.String("path", c.Request.URL.Path),
		)
		if transientErr.RetryAfter > 0 {
			seconds := int(math.Ceil(transientErr.RetryAfter.Seconds()))
			c.Header("Retry-After", strconv.Itoa(seconds))
		}
		writeError(c, http.StatusTooManyRequests, "Too many requests, please try again shortly", nil)
	case errors.Is(err, context.Canceled):
		c.Abort()
	default:
		logger.L().Error("Unexpected error",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
			zap.String("requestId", middleware.GetRequestID(c)),
		)
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "Server error", nil)
	}
}

func writeError(c *gin.Context, status int, message string, fields []models.FieldErrorDTO) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Errors:    fields,
		Timestamp: time.Now(),
		Path:      c.Request.URL.Path,
	})
}

func badRequest(c *gin.Context, message string) {
	writeError(c, http.StatusBadRequest, message, nil)
}

// pathID parses the named uuid path parameter, answering 400 when it is malformed.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// currentUser returns the caller set by the auth middleware.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "No token, authorization denied", nil)
		return uuid.Nil, false
	}
	return id, true
}
