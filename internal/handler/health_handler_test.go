package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}

func TestHealthHandler_LivenessProbe(t *testing.T) {
	s := newTestServer(t)

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/health", nil), "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", decode[map[string]any](t, w)["status"])
}

func TestHealthHandler_ReadinessProbe(t *testing.T) {
	tests := []struct {
		name       string
		checks     []HealthChecker
		wantStatus int
		want       map[string]string
	}{
		{
			name:       "no dependencies",
			wantStatus: http.StatusOK,
			want:       map[string]string{"status": "UP"},
		},
		{
			name: "all healthy",
			checks: []HealthChecker{
				PingCheck("database", stubPinger{}),
				FlagCheck("rabbitmq", func() bool { return true }),
			},
			wantStatus: http.StatusOK,
			want:       map[string]string{"status": "UP", "database": "healthy", "rabbitmq": "healthy"},
		},
		{
			name: "one down",
			checks: []HealthChecker{
				PingCheck("database", stubPinger{}),
				PingCheck("redis", stubPinger{err: errors.New("connection refused")}),
				FlagCheck("rabbitmq", func() bool { return false }),
			},
			wantStatus: http.StatusServiceUnavailable,
			want:       map[string]string{"status": "DOWN", "database": "healthy", "redis": "unhealthy", "rabbitmq": "unhealthy"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.checks...)

			w := s.do(httptest.NewRequest(http.MethodGet, "/api/health/ready", nil), "")

			require.Equal(t, tt.wantStatus, w.Code)
			body := decode[map[string]any](t, w)
			for k, v := range tt.want {
				assert.Equal(t, v, body[k], k)
			}
		})
	}
}
