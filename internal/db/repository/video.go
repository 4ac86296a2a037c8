package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wellness-in-schools/video-library/internal/db"
	"github.com/wellness-in-schools/video-library/internal/db/models"
)

// VideoRepository defines storage operations on the video catalog.
// GetByID returns inactive videos too; every list method returns active videos only
// unless its name says otherwise.
type VideoRepository interface {
	// ListByCategory returns active videos of a category in catalog order.
	ListByCategory(ctx context.Context, category string) ([]*models.Video, error)

	// ListFeatured returns active featured videos in catalog order.
	ListFeatured(ctx context.Context) ([]*models.Video, error)

	// ListBySubcategories returns active videos tagged with any of the grade bands.
	ListBySubcategories(ctx context.Context, bands []string) ([]*models.Video, error)

	// ListSavedByUser returns the active videos a user has saved.
	ListSavedByUser(ctx context.Context, userID uuid.UUID) ([]*models.Video, error)

	// Search matches title, description, instructor and tags case-insensitively.
	Search(ctx context.Context, query string) ([]*models.Video, error)

	// GetByID retrieves a single video regardless of its active flag.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error)

	// ListAll returns every video, newest first, for the admin console.
	ListAll(ctx context.Context) ([]*models.Video, error)

	Create(ctx context.Context, video *models.Video) error
	Update(ctx context.Context, video *models.Video) error

	// SetActive toggles the soft-delete flag.
	SetActive(ctx context.Context, id uuid.UUID, active bool) error

	// IncrementViewCount bumps an active video's counter and returns the new value.
	IncrementViewCount(ctx context.Context, id uuid.UUID) (int64, error)
}

type videoRepository struct {
	pool *pgxpool.Pool
}

// NewVideoRepository creates a new VideoRepository.
func NewVideoRepository(pool *pgxpool.Pool) VideoRepository {
	return &videoRepository{pool: pool}
}

const videoColumns = `v.id, v.title, v.description, v.category, v.subcategory, v.external_content_id,
	v.external_content_url, v.thumbnail_url, v.duration_seconds, v.instructor, v.age_group, v.tags,
	v.view_count, v.featured, v.sort_order, v.is_active, v.created_at, v.updated_at`

// catalogOrder is the display order for every category-style listing.
const catalogOrder = `ORDER BY v.sort_order ASC, v.created_at DESC, v.id ASC`

func (r *videoRepository) ListByCategory(ctx context.Context, category string) ([]*models.Video, error) {
	query := `SELECT ` + videoColumns + `
		FROM videos v
		WHERE v.category = $1 AND v.is_active
		` + catalogOrder

	return r.list(ctx, "list videos by category", query, category)
}

func (r *videoRepository) ListFeatured(ctx context.Context) ([]*models.Video, error) {
	query := `SELECT ` + videoColumns + `
		FROM videos v
		WHERE v.featured AND v.is_active
		` + catalogOrder

	return r.list(ctx, "list featured videos", query)
}

func (r *videoRepository) ListBySubcategories(ctx context.Context, bands []string) ([]*models.Video, error) {
	query := `SELECT ` + videoColumns + `
		FROM videos v
		WHERE v.subcategory && $1::text[] AND v.is_active
		` + catalogOrder

	return r.list(ctx, "list videos by subcategory", query, bands)
}

func (r *videoRepository) ListSavedByUser(ctx context.Context, userID uuid.UUID) ([]*models.Video, error) {
	query := `SELECT ` + videoColumns + `
		FROM user_saved_videos s
		JOIN videos v ON v.id = s.video_id
		WHERE s.user_id = $1 AND v.is_active
		` + catalogOrder

	return r.list(ctx, "list saved videos", query, userID)
}

func (r *videoRepository) Search(ctx context.Context, query string) ([]*models.Video, error) {
	sql := `SELECT ` + videoColumns + `
		FROM videos v
		WHERE v.is_active AND (
			v.title ILIKE $1
			OR v.description ILIKE $1
			OR v.instructor ILIKE $1
			OR EXISTS (SELECT 1 FROM unnest(v.tags) AS t(tag) WHERE t.tag ILIKE $1)
		)
		ORDER BY v.featured DESC, v.view_count DESC, v.id ASC`

	return r.list(ctx, "search videos", sql, "%"+escapeLike(query)+"%")
}

func (r *videoRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos v WHERE v.id = $1`

	video, err := scanVideo(db.Conn(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		return nil, db.WrapError(err, "get video by id")
	}
	return video, nil
}

func (r *videoRepository) ListAll(ctx context.Context) ([]*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos v ORDER BY v.created_at DESC, v.id ASC`

	return r.list(ctx, "list all videos", query)
}

func (r *videoRepository) Create(ctx context.Context, video *models.Video) error {
	query := `
		INSERT INTO videos (id, title, description, category, subcategory, external_content_id,
			external_content_url, thumbnail_url, duration_seconds, instructor, age_group, tags,
			view_count, featured, sort_order, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING created_at, updated_at
	`

	err := db.Conn(ctx, r.pool).QueryRow(ctx, query,
		video.ID,
		video.Title,
		video.Description,
		video.Category,
		[]string(video.Subcategory),
		video.ExternalContentID,
		video.ExternalContentURL,
		video.ThumbnailURL,
		video.DurationSeconds,
		video.Instructor,
		video.AgeGroup,
		video.Tags,
		video.ViewCount,
		video.Featured,
		video.Order,
		video.IsActive,
		video.CreatedAt,
		video.UpdatedAt,
	).Scan(&video.CreatedAt, &video.UpdatedAt)
	if err != nil {
		return db.WrapError(err, "create video")
	}

	return nil
}

func (r *videoRepository) Update(ctx context.Context, video *models.Video) error {
	query := `
		UPDATE videos
		SET title = $2, description = $3, category = $4, subcategory = $5, external_content_id = $6,
		    external_content_url = $7, thumbnail_url = $8, duration_seconds = $9, instructor = $10,
		    age_group = $11, tags = $12, featured = $13, sort_order = $14, is_active = $15,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING view_count, created_at, updated_at
	`

	err := db.Conn(ctx, r.pool).QueryRow(ctx, query,
		video.ID,
		video.Title,
		video.Description,
		video.Category,
		[]string(video.Subcategory),
		video.ExternalContentID,
		video.ExternalContentURL,
		video.ThumbnailURL,
		video.DurationSeconds,
		video.Instructor,
		video.AgeGroup,
		video.Tags,
		video.Featured,
		video.Order,
		video.IsActive,
	).Scan(&video.ViewCount, &video.CreatedAt, &video.UpdatedAt)
	if err != nil {
		return db.WrapError(err, "update video")
	}

	return nil
}

func (r *videoRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `UPDATE videos SET is_active = $2, updated_at = NOW() WHERE id = $1`

	tag, err := db.Conn(ctx, r.pool).Exec(ctx, query, id, active)
	if err != nil {
		return db.WrapError(err, "set video active")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set video active: %w", db.ErrNotFound)
	}
	return nil
}

func (r *videoRepository) IncrementViewCount(ctx context.Context, id uuid.UUID) (int64, error) {
	query := `
		UPDATE videos SET view_count = view_count + 1
		WHERE id = $1 AND is_active
		RETURNING view_count
	`

	var count int64
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, id).Scan(&count); err != nil {
		return 0, db.WrapError(err, "increment view count")
	}
	return count, nil
}

func (r *videoRepository) list(ctx context.Context, op, query string, args ...any) ([]*models.Video, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, db.WrapError(err, op)
	}
	defer rows.Close()

	videos, err := scanVideos(rows)
	if err != nil {
		return nil, db.WrapError(err, op)
	}
	return videos, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner) (*models.Video, error) {
	video := &models.Video{}
	var subcategory []string

	err := row.Scan(
		&video.ID,
		&video.Title,
		&video.Description,
		&video.Category,
		&subcategory,
		&video.ExternalContentID,
		&video.ExternalContentURL,
		&video.ThumbnailURL,
		&video.DurationSeconds,
		&video.Instructor,
		&video.AgeGroup,
		&video.Tags,
		&video.ViewCount,
		&video.Featured,
		&video.Order,
		&video.IsActive,
		&video.CreatedAt,
		&video.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	video.Subcategory = models.Subcategories(subcategory)
	if video.Tags == nil {
		video.Tags = []string{}
	}
	return video, nil
}

// scanVideos always returns a non-nil slice so empty listings encode as [].
func scanVideos(rows pgx.Rows) ([]*models.Video, error) {
	videos := make([]*models.Video, 0)

	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralises LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
