package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellness-in-schools/video-library/internal/models"
	"github.com/wellness-in-schools/video-library/internal/service"
)

func TestHandleError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		err            error
		wantStatus     int
		wantMessage    string
		wantFields     []models.FieldErrorDTO
		wantRetryAfter string
	}{
		{
			name: "validation",
			err: &service.ValidationError{Fields: []service.FieldError{
				{Field: "title", Message: "title is required"},
				{Field: "subcategory", Message: "select at least one grade band"},
			}},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Validation failed",
			wantFields: []models.FieldErrorDTO{
				{Field: "title", Message: "title is required"},
				{Field: "subcategory", Message: "select at least one grade band"},
			},
		},
		{
			name:        "not found",
			err:         &service.NotFoundError{Resource: "video", ID: "abc"},
			wantStatus:  http.StatusNotFound,
			wantMessage: "video abc not found",
		},
		{
			name:        "wrapped conflict",
			err:         fmt.Errorf("create: %w", &service.ConflictError{Message: "a video with this content id already exists"}),
			wantStatus:  http.StatusConflict,
			wantMessage: "a video with this content id already exists",
		},
		{
			name:           "transient",
			err:            &service.TransientError{Operation: "featured", RetryAfter: 1500 * time.Millisecond, Cause: errors.New("busy")},
			wantStatus:     http.StatusTooManyRequests,
			wantMessage:    "Too many requests, please try again shortly",
			wantRetryAfter: "2",
		},
		{
			name:        "unexpected",
			err:         errors.New("connection reset"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/api/videos/featured", nil)

			handleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantRetryAfter, w.Header().Get("Retry-After"))

			body := decode[models.ErrorResponse](t, w)
			assert.Equal(t, tt.wantStatus, body.Status)
			assert.Equal(t, tt.wantMessage, body.Message)
			assert.Equal(t, "/api/videos/featured", body.Path)
			assert.Equal(t, tt.wantFields, body.Errors)
		})
	}
}

func TestSplitValues(t *testing.T) {
	assert.Nil(t, splitValues(nil))
	assert.Equal(t,
		[]string{"grades-k-2", "grades-3-4-5min", "grades-6-8"},
		splitValues([]string{"grades-k-2, grades-3-4-5min", "", " grades-6-8 "}),
	)
}

func TestNoRoute(t *testing.T) {
	s := newTestServer(t)

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/nothing-here", nil), "")

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Route not found", decode[models.ErrorResponse](t, w).Message)
}
