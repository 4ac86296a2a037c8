package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wellness-in-schools/video-library/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker is a named readiness probe.
type HealthChecker struct {
	Name  string
	Check func(ctx context.Context) error
}

// PingCheck wraps a Pinger.
func PingCheck(name string, p Pinger) HealthChecker {
	return HealthChecker{Name: name, Check: p.Ping}
}

// FlagCheck wraps a boolean health report such as a broker connection state.
func FlagCheck(name string, healthy func() bool) HealthChecker {
	return HealthChecker{Name: name, Check: func(context.Context) error {
		if !healthy() {
			return errors.New("unhealthy")
		}
		return nil
	}}
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	checks []HealthChecker
}

// NewHealthHandler creates a new HealthHandler instance.
func NewHealthHandler(checks ...HealthChecker) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// LivenessProbe checks if the application is running.
func (h *HealthHandler) LivenessProbe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "OK",
		"message": "Wellness in Schools API is running",
		"time":    time.Now(),
	})
}

// ReadinessProbe checks every configured dependency.
func (h *HealthHandler) ReadinessProbe(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	body := gin.H{"time": time.Now()}
	status := http.StatusOK
	for _, check := range h.checks {
		if err := check.Check(ctx); err != nil {
			logger.L().Warn("Readiness check failed",
				zap.String("dependency", check.Name),
				zap.Error(err),
			)
			body[check.Name] = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		body[check.Name] = "healthy"
	}

	body["status"] = "UP"
	if status != http.StatusOK {
		body["status"] = "DOWN"
	}
	c.JSON(status, body)
}
