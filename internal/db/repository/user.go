package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wellness-in-schools/video-library/internal/db"
	"github.com/wellness-in-schools/video-library/internal/db/models"
)

// UserRepository defines operations on users, their view history and saved videos.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update models.ProfileUpdate) (*models.User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error

	// IncrementTotalViews bumps the user's view counter and returns the new value.
	IncrementTotalViews(ctx context.Context, id uuid.UUID) (int64, error)

	// UpsertViewedVideo records a view. A repeat view of the same video moves
	// the existing entry's timestamp instead of adding a row. inserted reports
	// whether this was the first view.
	UpsertViewedVideo(ctx context.Context, userID, videoID uuid.UUID, viewedAt time.Time) (inserted bool, err error)

	// ListViewHistory returns the user's viewed videos, most recent first,
	// joined with the video row.
	ListViewHistory(ctx context.Context, userID uuid.UUID) ([]models.ViewedVideo, error)

	// Leaderboard returns active users ranked by total views. Ties keep
	// signup order so the ranking is deterministic.
	Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)

	// ListActiveWithCounts returns active users by total views with their
	// distinct watched-video count.
	ListActiveWithCounts(ctx context.Context) ([]models.UserSummary, error)

	SaveVideo(ctx context.Context, userID, videoID uuid.UUID) (created bool, err error)
	UnsaveVideo(ctx context.Context, userID, videoID uuid.UUID) (removed bool, err error)
	IsSaved(ctx context.Context, userID, videoID uuid.UUID) (bool, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `u.id, u.username, u.email, u.school_name, u.address, u.role, u.total_views, u.is_active, u.created_at, u.updated_at`

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, email, school_name, address, role, total_views, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	err := db.Conn(ctx, r.pool).QueryRow(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.SchoolName,
		user.Address,
		user.Role,
		user.TotalViews,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return db.WrapError(err, "create user")
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1`

	user, err := scanUser(db.Conn(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		return nil, db.WrapError(err, "get user by id")
	}
	return user, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, id uuid.UUID, update models.ProfileUpdate) (*models.User, error) {
	query := `
		UPDATE users u
		SET username = COALESCE($2, u.username),
		    school_name = COALESCE($3, u.school_name),
		    address = COALESCE($4, u.address),
		    updated_at = NOW()
		WHERE u.id = $1
		RETURNING ` + userColumns

	user, err := scanUser(db.Conn(ctx, r.pool).QueryRow(ctx, query, id, update.Username, update.SchoolName, update.Address))
	if err != nil {
		return nil, db.WrapError(err, "update user profile")
	}
	return user, nil
}

func (r *userRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1`

	tag, err := db.Conn(ctx, r.pool).Exec(ctx, query, id, active)
	if err != nil {
		return db.WrapError(err, "set user active")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set user active: %w", db.ErrNotFound)
	}
	return nil
}

func (r *userRepository) IncrementTotalViews(ctx context.Context, id uuid.UUID) (int64, error) {
	query := `UPDATE users SET total_views = total_views + 1 WHERE id = $1 RETURNING total_views`

	var total int64
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, id).Scan(&total); err != nil {
		return 0, db.WrapError(err, "increment total views")
	}
	return total, nil
}

func (r *userRepository) UpsertViewedVideo(ctx context.Context, userID, videoID uuid.UUID, viewedAt time.Time) (bool, error) {
	query := `
		INSERT INTO user_viewed_videos (user_id, video_id, viewed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, video_id) DO UPDATE
		SET viewed_at = EXCLUDED.viewed_at
		RETURNING (xmax = 0) AS inserted
	`

	var inserted bool
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, userID, videoID, viewedAt).Scan(&inserted); err != nil {
		return false, db.WrapError(err, "upsert viewed video")
	}
	return inserted, nil
}

func (r *userRepository) ListViewHistory(ctx context.Context, userID uuid.UUID) ([]models.ViewedVideo, error) {
	query := `
		SELECT h.video_id, h.viewed_at, ` + videoColumns + `
		FROM user_viewed_videos h
		JOIN videos v ON v.id = h.video_id AND v.is_active
		WHERE h.user_id = $1
		ORDER BY h.viewed_at DESC, h.video_id ASC
	`

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, userID)
	if err != nil {
		return nil, db.WrapError(err, "list view history")
	}
	defer rows.Close()

	history := make([]models.ViewedVideo, 0)
	for rows.Next() {
		var entry models.ViewedVideo
		video, err := scanVideo(prefixedScanner{rows: rows, prefix: []any{&entry.VideoID, &entry.ViewedAt}})
		if err != nil {
			return nil, db.WrapError(fmt.Errorf("scan view history: %w", err), "list view history")
		}
		entry.Video = video
		history = append(history, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, db.WrapError(err, "list view history")
	}

	return history, nil
}

func (r *userRepository) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	query := `
		SELECT u.id, u.username, u.school_name, u.total_views
		FROM users u
		WHERE u.is_active
		ORDER BY u.total_views DESC, u.created_at ASC, u.id ASC
		LIMIT $1
	`

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, limit)
	if err != nil {
		return nil, db.WrapError(err, "leaderboard")
	}
	defer rows.Close()

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.LeaderboardEntry, error) {
		var e models.LeaderboardEntry
		err := row.Scan(&e.UserID, &e.Username, &e.SchoolName, &e.TotalViews)
		return e, err
	})
	if err != nil {
		return nil, db.WrapError(err, "leaderboard")
	}
	return entries, nil
}

func (r *userRepository) ListActiveWithCounts(ctx context.Context) ([]models.UserSummary, error) {
	query := `
		SELECT ` + userColumns + `,
		       (SELECT COUNT(*) FROM user_viewed_videos h
		        JOIN videos v ON v.id = h.video_id AND v.is_active
		        WHERE h.user_id = u.id) AS watched
		FROM users u
		WHERE u.is_active
		ORDER BY u.total_views DESC, u.created_at ASC, u.id ASC
	`

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, db.WrapError(err, "list users")
	}
	defer rows.Close()

	users := make([]models.UserSummary, 0)
	for rows.Next() {
		var s models.UserSummary
		err := rows.Scan(
			&s.ID, &s.Username, &s.Email, &s.SchoolName, &s.Address, &s.Role,
			&s.TotalViews, &s.IsActive, &s.CreatedAt, &s.UpdatedAt, &s.VideosWatchedCount,
		)
		if err != nil {
			return nil, db.WrapError(fmt.Errorf("scan user: %w", err), "list users")
		}
		users = append(users, s)
	}
	if err := rows.Err(); err != nil {
		return nil, db.WrapError(err, "list users")
	}
	return users, nil
}

func (r *userRepository) SaveVideo(ctx context.Context, userID, videoID uuid.UUID) (bool, error) {
	query := `
		INSERT INTO user_saved_videos (user_id, video_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, video_id) DO NOTHING
	`

	tag, err := db.Conn(ctx, r.pool).Exec(ctx, query, userID, videoID)
	if err != nil {
		return false, db.WrapError(err, "save video")
	}
	return tag.RowsAffected() == 1, nil
}

func (r *userRepository) UnsaveVideo(ctx context.Context, userID, videoID uuid.UUID) (bool, error) {
	query := `DELETE FROM user_saved_videos WHERE user_id = $1 AND video_id = $2`

	tag, err := db.Conn(ctx, r.pool).Exec(ctx, query, userID, videoID)
	if err != nil {
		return false, db.WrapError(err, "unsave video")
	}
	return tag.RowsAffected() == 1, nil
}

func (r *userRepository) IsSaved(ctx context.Context, userID, videoID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM user_saved_videos WHERE user_id = $1 AND video_id = $2)`

	var saved bool
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, userID, videoID).Scan(&saved); err != nil {
		return false, db.WrapError(err, "check saved video")
	}
	return saved, nil
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.SchoolName,
		&u.Address,
		&u.Role,
		&u.TotalViews,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// prefixedScanner lets scanVideo read a row that carries extra leading columns.
type prefixedScanner struct {
	rows   pgx.Rows
	prefix []any
}

func (p prefixedScanner) Scan(dest ...any) error {
	return p.rows.Scan(append(p.prefix, dest...)...)
}
