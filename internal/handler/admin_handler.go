package handler

import (
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wellness-in-schools/video-library/internal/models"
	"github.com/wellness-in-schools/video-library/internal/service"
	"github.com/wellness-in-schools/video-library/pkg/logger"
)

const thumbnailField = "thumbnail"

// AdminHandler serves catalog editing, user management and analytics.
type AdminHandler struct {
	editor  CatalogEditor
	reports AdminReports
}

// NewAdminHandler creates a new AdminHandler instance.
func NewAdminHandler(editor CatalogEditor, reports AdminReports) *AdminHandler {
	return &AdminHandler{editor: editor, reports: reports}
}

// ListVideos handles GET /admin/videos, inactive videos included.
func (h *AdminHandler) ListVideos(c *gin.Context) {
	videos, err := h.editor.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, videos)
}

// CreateVideo handles POST /admin/videos. Multipart bodies may carry a
// thumbnail file, which is stored before the video is.
func (h *AdminHandler) CreateVideo(c *gin.Context) {
	draft, thumbnail, closeFn, ok := h.bindDraft(c)
	if !ok {
		return
	}
	defer closeFn()

	video, err := h.editor.Create(c.Request.Context(), draft, thumbnail)
	if err != nil {
		handleError(c, err)
		return
	}

	logger.L().Info("Video created",
		zap.String("videoId", video.ID.String()),
		zap.String("category", video.Category),
	)
	c.JSON(http.StatusCreated, video)
}

// UpdateVideo handles PUT /admin/videos/:id.
func (h *AdminHandler) UpdateVideo(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	draft, thumbnail, closeFn, ok := h.bindDraft(c)
	if !ok {
		return
	}
	defer closeFn()

	video, err := h.editor.Update(c.Request.Context(), id, draft, thumbnail)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, video)
}

// DeleteVideo handles DELETE /admin/videos/:id. The video is deactivated,
// not removed.
func (h *AdminHandler) DeleteVideo(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.editor.Delete(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Video deleted successfully"})
}

// UploadThumbnail handles POST /admin/videos/upload-thumbnail.
func (h *AdminHandler) UploadThumbnail(c *gin.Context) {
	header, err := c.FormFile(thumbnailField)
	if err != nil {
		badRequest(c, "No file uploaded")
		return
	}

	upload, closeFn, err := openUpload(header)
	if err != nil {
		handleError(c, err)
		return
	}
	defer closeFn()

	ref, err := h.editor.UploadThumbnail(c.Request.Context(), *upload)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ThumbnailResponse{ThumbnailURL: ref})
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.reports.ListUsers(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *AdminHandler) GetUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	user, err := h.reports.GetUser(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// SetUserStatus handles PATCH /admin/users/:id/status.
func (h *AdminHandler) SetUserStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.UserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	if err := h.reports.SetUserStatus(c.Request.Context(), id, *req.IsActive); err != nil {
		handleError(c, err)
		return
	}

	message := "User deactivated successfully"
	if *req.IsActive {
		message = "User activated successfully"
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: message})
}

func (h *AdminHandler) Analytics(c *gin.Context) {
	analytics, err := h.reports.Analytics(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, analytics)
}

func (h *AdminHandler) VideoViewStats(c *gin.Context) {
	stats, err := h.reports.VideoViewStats(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// UserActivity handles GET /admin/stats/user-activity?startDate=&endDate=.
// Dates are YYYY-MM-DD or RFC 3339.
func (h *AdminHandler) UserActivity(c *gin.Context) {
	from, ok := queryDate(c, "startDate")
	if !ok {
		return
	}
	to, ok := queryDate(c, "endDate")
	if !ok {
		return
	}

	days, err := h.reports.UserActivity(c.Request.Context(), from, to)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, days)
}

// bindDraft reads a video body from JSON or a multipart form. The returned
// close func releases the optional thumbnail and must always be called.
func (h *AdminHandler) bindDraft(c *gin.Context) (*service.VideoDraft, *service.ThumbnailUpload, func(), bool) {
	noop := func() {}

	var req models.VideoRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return nil, nil, noop, false
	}
	draft := toDraft(&req)

	if !strings.HasPrefix(c.ContentType(), gin.MIMEMultipartPOSTForm) {
		return draft, nil, noop, true
	}

	header, err := c.FormFile(thumbnailField)
	if err != nil {
		// thumbnail is optional
		return draft, nil, noop, true
	}
	upload, closeFn, err := openUpload(header)
	if err != nil {
		handleError(c, err)
		return nil, nil, noop, false
	}
	return draft, upload, closeFn, true
}

func toDraft(req *models.VideoRequest) *service.VideoDraft {
	return &service.VideoDraft{
		Title:              req.Title,
		Description:        req.Description,
		Category:           req.Category,
		Subcategory:        splitValues(req.Subcategory),
		ExternalContentURL: req.ExternalContentURL,
		DurationSeconds:    req.DurationSeconds,
		Instructor:         req.Instructor,
		AgeGroup:           req.AgeGroup,
		Tags:               req.Tags,
		Featured:           req.Featured,
		Order:              req.Order,
		ThumbnailURL:       req.ThumbnailURL,
		IsActive:           req.IsActive,
	}
}

func openUpload(header *multipart.FileHeader) (*service.ThumbnailUpload, func(), error) {
	f, err := header.Open()
	if err != nil {
		return nil, func() {}, err
	}
	closeFn := func() {
		if err := f.Close(); err != nil {
			logger.L().Warn("Failed to close uploaded file", zap.Error(err))
		}
	}
	return &service.ThumbnailUpload{
		Filename: header.Filename,
		Size:     header.Size,
		Content:  f,
	}, closeFn, nil
}

func queryDate(c *gin.Context, name string) (*time.Time, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, true
		}
	}
	badRequest(c, name+" must be a date (YYYY-MM-DD)")
	return nil, false
}
