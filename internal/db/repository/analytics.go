package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wellness-in-schools/video-library/internal/db"
	"github.com/wellness-in-schools/video-library/internal/db/models"
)

// AnalyticsRepository runs the read-only aggregates behind the admin dashboard.
type AnalyticsRepository interface {
	CountActiveUsers(ctx context.Context) (int64, error)
	CountActiveVideos(ctx context.Context) (int64, error)
	SumActiveUserViews(ctx context.Context) (int64, error)
	TopVideos(ctx context.Context, limit int) ([]models.VideoRank, error)
	RecentUsers(ctx context.Context, limit int) ([]models.RecentUser, error)
	CategoryViewStats(ctx context.Context) ([]models.CategoryViewStats, error)

	// UserActivity groups users by signup day. A nil bound leaves that side open.
	UserActivity(ctx context.Context, from, to *time.Time) ([]models.UserActivityDay, error)
}

type analyticsRepository struct {
	pool *pgxpool.Pool
}

// NewAnalyticsRepository creates a new AnalyticsRepository.
func NewAnalyticsRepository(pool *pgxpool.Pool) AnalyticsRepository {
	return &analyticsRepository{pool: pool}
}

func (r *analyticsRepository) CountActiveUsers(ctx context.Context) (int64, error) {
	return r.scalar(ctx, "count active users", `SELECT COUNT(*) FROM users WHERE is_active`)
}

func (r *analyticsRepository) CountActiveVideos(ctx context.Context) (int64, error) {
	return r.scalar(ctx, "count active videos", `SELECT COUNT(*) FROM videos WHERE is_active`)
}

func (r *analyticsRepository) SumActiveUserViews(ctx context.Context) (int64, error) {
	return r.scalar(ctx, "sum user views", `SELECT COALESCE(SUM(total_views), 0)::BIGINT FROM users WHERE is_active`)
}

func (r *analyticsRepository) TopVideos(ctx context.Context, limit int) ([]models.VideoRank, error) {
	query := `
		SELECT id, title, category, view_count
		FROM videos
		WHERE is_active
		ORDER BY view_count DESC, id ASC
		LIMIT $1
	`

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, limit)
	if err != nil {
		return nil, db.WrapError(err, "top videos")
	}
	defer rows.Close()

	ranks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.VideoRank, error) {
		var v models.VideoRank
		err := row.Scan(&v.ID, &v.Title, &v.Category, &v.ViewCount)
		return v, err
	})
	if err != nil {
		return nil, db.WrapError(err, "top videos")
	}
	return ranks, nil
}

func (r *analyticsRepository) RecentUsers(ctx context.Context, limit int) ([]models.RecentUser, error) {
	query := `
		SELECT id, username, school_name, created_at
		FROM users
		WHERE is_active
		ORDER BY created_at DESC, id ASC
		LIMIT $1
	`

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, limit)
	if err != nil {
		return nil, db.WrapError(err, "recent users")
	}
	defer rows.Close()

	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.RecentUser, error) {
		var u models.RecentUser
		err := row.Scan(&u.ID, &u.Username, &u.SchoolName, &u.CreatedAt)
		return u, err
	})
	if err != nil {
		return nil, db.WrapError(err, "recent users")
	}
	return users, nil
}

func (r *analyticsRepository) CategoryViewStats(ctx context.Context) ([]models.CategoryViewStats, error) {
	query := `
		SELECT category,
		       COALESCE(SUM(view_count), 0)::BIGINT AS total_views,
		       COUNT(*) AS video_count,
		       COALESCE(AVG(view_count), 0)::FLOAT8 AS avg_views
		FROM videos
		WHERE is_active
		GROUP BY category
		ORDER BY total_views DESC, category ASC
	`

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, db.WrapError(err, "category view stats")
	}
	defer rows.Close()

	stats, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.CategoryViewStats, error) {
		var s models.CategoryViewStats
		err := row.Scan(&s.Category, &s.TotalViews, &s.VideoCount, &s.AvgViews)
		return s, err
	})
	if err != nil {
		return nil, db.WrapError(err, "category view stats")
	}
	return stats, nil
}

func (r *analyticsRepository) UserActivity(ctx context.Context, from, to *time.Time) ([]models.UserActivityDay, error) {
	query := `
		SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day,
		       COUNT(*) AS new_users,
		       COALESCE(SUM(total_views), 0)::BIGINT AS total_views
		FROM users
		WHERE ($1::timestamptz IS NULL OR created_at >= $1)
		  AND ($2::timestamptz IS NULL OR created_at <= $2)
		GROUP BY day
		ORDER BY day ASC
	`

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, from, to)
	if err != nil {
		return nil, db.WrapError(err, "user activity")
	}
	defer rows.Close()

	days, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.UserActivityDay, error) {
		var d models.UserActivityDay
		err := row.Scan(&d.Date, &d.NewUsers, &d.TotalViews)
		return d, err
	})
	if err != nil {
		return nil, db.WrapError(err, "user activity")
	}
	return days, nil
}

func (r *analyticsRepository) scalar(ctx context.Context, op, query string) (int64, error) {
	var n int64
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, db.WrapError(err, op)
	}
	return n, nil
}
