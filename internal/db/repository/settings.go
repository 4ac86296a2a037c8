package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wellness-in-schools/video-library/internal/db"
	"github.com/wellness-in-schools/video-library/internal/db/models"
)

// BannerRepository stores the singleton announcement banner.
type BannerRepository interface {
	// Get returns db.ErrNotFound until a banner has been saved.
	Get(ctx context.Context) (*models.Banner, error)
	Save(ctx context.Context, banner *models.Banner) error
}

// SiteSettingsRepository stores the singleton site password gate.
type SiteSettingsRepository interface {
	// Get returns db.ErrNotFound until settings have been saved.
	Get(ctx context.Context) (*models.SiteSettings, error)
	Save(ctx context.Context, settings *models.SiteSettings) error

	// CreateIfMissing stores settings only when no row exists yet and
	// returns whichever row is stored afterwards.
	CreateIfMissing(ctx context.Context, settings *models.SiteSettings) (*models.SiteSettings, error)
}

type bannerRepository struct {
	pool *pgxpool.Pool
}

// NewBannerRepository creates a new BannerRepository.
func NewBannerRepository(pool *pgxpool.Pool) BannerRepository {
	return &bannerRepository{pool: pool}
}

func (r *bannerRepository) Get(ctx context.Context) (*models.Banner, error) {
	query := `SELECT text, color, hyperlink, is_active, updated_at FROM banners WHERE id = 1`

	b := &models.Banner{}
	err := db.Conn(ctx, r.pool).QueryRow(ctx, query).Scan(&b.Text, &b.Color, &b.Hyperlink, &b.IsActive, &b.UpdatedAt)
	if err != nil {
		return nil, db.WrapError(err, "get banner")
	}
	return b, nil
}

func (r *bannerRepository) Save(ctx context.Context, banner *models.Banner) error {
	query := `
		INSERT INTO banners (id, text, color, hyperlink, is_active, updated_at)
		VALUES (1, $1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO UPDATE
		SET text = EXCLUDED.text,
		    color = EXCLUDED.color,
		    hyperlink = EXCLUDED.hyperlink,
		    is_active = EXCLUDED.is_active,
		    updated_at = EXCLUDED.updated_at
		RETURNING updated_at
	`

	err := db.Conn(ctx, r.pool).QueryRow(ctx, query, banner.Text, banner.Color, banner.Hyperlink, banner.IsActive).
		Scan(&banner.UpdatedAt)
	if err != nil {
		return db.WrapError(err, "save banner")
	}
	return nil
}

type siteSettingsRepository struct {
	pool *pgxpool.Pool
}

// NewSiteSettingsRepository creates a new SiteSettingsRepository.
func NewSiteSettingsRepository(pool *pgxpool.Pool) SiteSettingsRepository {
	return &siteSettingsRepository{pool: pool}
}

func (r *siteSettingsRepository) Get(ctx context.Context) (*models.SiteSettings, error) {
	query := `SELECT password_hash, is_active, updated_at FROM site_settings WHERE id = 1`

	s := &models.SiteSettings{}
	err := db.Conn(ctx, r.pool).QueryRow(ctx, query).Scan(&s.PasswordHash, &s.IsActive, &s.UpdatedAt)
	if err != nil {
		return nil, db.WrapError(err, "get site settings")
	}
	return s, nil
}

func (r *siteSettingsRepository) Save(ctx context.Context, settings *models.SiteSettings) error {
	query := `
		INSERT INTO site_settings (id, password_hash, is_active, updated_at)
		VALUES (1, $1, $2, NOW())
		ON CONFLICT (id) DO UPDATE
		SET password_hash = EXCLUDED.password_hash,
		    is_active = EXCLUDED.is_active,
		    updated_at = EXCLUDED.updated_at
		RETURNING updated_at
	`

	err := db.Conn(ctx, r.pool).QueryRow(ctx, query, settings.PasswordHash, settings.IsActive).Scan(&settings.UpdatedAt)
	if err != nil {
		return db.WrapError(err, "save site settings")
	}
	return nil
}

func (r *siteSettingsRepository) CreateIfMissing(ctx context.Context, settings *models.SiteSettings) (*models.SiteSettings, error) {
	query := `
		INSERT INTO site_settings (id, password_hash, is_active, updated_at)
		VALUES (1, $1, $2, NOW())
		ON CONFLICT (id) DO NOTHING
	`

	if _, err := db.Conn(ctx, r.pool).Exec(ctx, query, settings.PasswordHash, settings.IsActive); err != nil {
		return nil, db.WrapError(err, "create site settings")
	}
	return r.Get(ctx)
}
