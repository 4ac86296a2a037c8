// Package testutil starts a throwaway postgres for repository and service tests.
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/wellness-in-schools/video-library/internal/db/models"
)

const (
	testDatabase = "wellness_videos_test"
	testUser     = "test"
	testPassword = "test"
)

// TestDatabase represents a test database instance.
type TestDatabase struct {
	Pool      *pgxpool.Pool
	Container *postgres.PostgresContainer
	ConnStr   string
}

// SetupTestDatabase creates a PostgreSQL container, runs migrations, and returns a connection pool.
func SetupTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase(testDatabase),
		postgres.WithUsername(testUser),
		postgres.WithPassword(testPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := migrate.New(fmt.Sprintf("file://%s", migrationsDir()), connStr)
	require.NoError(t, err)
	require.NoError(t, m.Up())
	_, _ = m.Close()

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	require.NoError(t, pool.Ping(ctx))

	return &TestDatabase{
		Pool:      pool,
		Container: pgContainer,
		ConnStr:   connStr,
	}
}

// migrationsDir resolves the repository's migrations folder from this file's
// location so callers in any package depth can use it.
func migrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "migrations")
}

// Cleanup closes the pool and terminates the container.
func (td *TestDatabase) Cleanup(t *testing.T) {
	ctx := context.Background()

	if td.Pool != nil {
		td.Pool.Close()
	}

	if td.Container != nil {
		require.NoError(t, td.Container.Terminate(ctx))
	}
}

// TruncateTables empties every table for test isolation.
func (td *TestDatabase) TruncateTables(t *testing.T) {
	_, err := td.Pool.Exec(context.Background(), `
		TRUNCATE TABLE user_saved_videos, user_viewed_videos, videos, users, banners, site_settings CASCADE;
	`)
	require.NoError(t, err)
}

// NewUser builds an active user with a unique username and email.
func NewUser(name string) *models.User {
	now := time.Now()
	id := uuid.New()
	return &models.User{
		ID:         id,
		Username:   name,
		Email:      fmt.Sprintf("%s-%s@example.org", name, id.String()[:8]),
		SchoolName: "Lincoln Elementary",
		Role:       models.RoleUser,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// NewVideo builds an active video with a unique external content id.
func NewVideo(title, category string, bands ...string) *models.Video {
	contentID := uuid.NewString()
	v := models.NewVideo(title, category, contentID, "https://drive.google.com/file/d/"+contentID+"/view")
	v.Subcategory = models.Subcategories(bands)
	return v
}
