package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	dbmodels "github.com/wellness-in-schools/video-library/internal/db/models"
	"github.com/wellness-in-schools/video-library/internal/models"
)

// UserHandler serves the signed-in user's profile, stats and saved videos.
type UserHandler struct {
	users   UserAccounts
	catalog CatalogReader
}

// NewUserHandler creates a new UserHandler instance.
func NewUserHandler(users UserAccounts, catalog CatalogReader) *UserHandler {
	return &UserHandler{users: users, catalog: catalog}
}

func (h *UserHandler) Profile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.users.Profile(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), userID, dbmodels.ProfileUpdate{
		Username:   req.Username,
		SchoolName: req.SchoolName,
		Address:    req.Address,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Stats(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	stats, err := h.users.Stats(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// SavedVideos handles GET /users/saved-videos.
func (h *UserHandler) SavedVideos(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	videos, err := h.catalog.ListSaved(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, videos)
}

// IsSaved handles GET /users/saved-videos/:id.
func (h *UserHandler) IsSaved(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	videoID, ok := pathID(c, "id")
	if !ok {
		return
	}

	saved, err := h.users.IsSaved(c.Request.Context(), userID, videoID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SavedResponse{IsSaved: saved})
}

// SaveVideo handles POST /users/saved-videos/:id. Saving twice succeeds.
func (h *UserHandler) SaveVideo(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	videoID, ok := pathID(c, "id")
	if !ok {
		return
	}

	created, err := h.users.SaveVideo(c.Request.Context(), userID, videoID)
	if err != nil {
		handleError(c, err)
		return
	}

	message := "Video saved successfully"
	if !created {
		message = "Video already saved"
	}
	c.JSON(http.StatusOK, models.SavedResponse{IsSaved: true, Message: message})
}

// UnsaveVideo handles DELETE /users/saved-videos/:id.
func (h *UserHandler) UnsaveVideo(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	videoID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if _, err := h.users.UnsaveVideo(c.Request.Context(), userID, videoID); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SavedResponse{IsSaved: false, Message: "Video removed from saved videos"})
}
