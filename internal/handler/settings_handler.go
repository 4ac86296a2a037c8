package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	dbmodels "github.com/wellness-in-schools/video-library/internal/db/models"
	"github.com/wellness-in-schools/video-library/internal/models"
	"github.com/wellness-in-schools/video-library/pkg/logger"
)

// SettingsHandler serves the banner and the site password gate.
type SettingsHandler struct {
	banners Banners
	gate    SiteGate
}

// NewSettingsHandler creates a new SettingsHandler instance.
func NewSettingsHandler(banners Banners, gate SiteGate) *SettingsHandler {
	return &SettingsHandler{banners: banners, gate: gate}
}

// GetBanner handles GET /banner.
func (h *SettingsHandler) GetBanner(c *gin.Context) {
	banner, err := h.banners.Get(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, banner)
}

// UpdateBanner handles PUT /banner with a partial body.
func (h *SettingsHandler) UpdateBanner(c *gin.Context) {
	var req models.BannerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	banner, err := h.banners.Update(c.Request.Context(), dbmodels.BannerUpdate{
		Text:      req.Text,
		Color:     req.Color,
		Hyperlink: req.Hyperlink,
		IsActive:  req.IsActive,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, banner)
}

// VerifyPassword handles POST /site-settings/verify-password.
func (h *SettingsHandler) VerifyPassword(c *gin.Context) {
	var req models.PasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Password is required")
		return
	}

	ok, err := h.gate.VerifyPassword(c.Request.Context(), req.Password)
	if err != nil {
		handleError(c, err)
		return
	}
	if !ok {
		logger.L().Info("Site password rejected", zap.String("clientIp", c.ClientIP()))
		c.JSON(http.StatusUnauthorized, models.VerifyResponse{Verified: false, Message: "Incorrect password"})
		return
	}
	c.JSON(http.StatusOK, models.VerifyResponse{Verified: true})
}

// SiteStatus handles GET /site-settings.
func (h *SettingsHandler) SiteStatus(c *gin.Context) {
	status, err := h.gate.Status(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// SetPassword handles PUT /site-settings/password.
func (h *SettingsHandler) SetPassword(c *gin.Context) {
	var req models.PasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Password is required")
		return
	}

	if err := h.gate.SetPassword(c.Request.Context(), req.Password); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Site password updated successfully"})
}

// ToggleGate handles PUT /site-settings/toggle.
func (h *SettingsHandler) ToggleGate(c *gin.Context) {
	active, err := h.gate.Toggle(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}

	message := "Password protection disabled"
	if active {
		message = "Password protection enabled"
	}
	c.JSON(http.StatusOK, gin.H{"isActive": active, "message": message})
}
