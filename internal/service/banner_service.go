package service

import (
	"context"
	"strings"

	"github.com/wellness-in-schools/video-library/internal/db"
	"github.com/wellness-in-schools/video-library/internal/db/models"
	"github.com/wellness-in-schools/video-library/internal/db/repository"
	"github.com/wellness-in-schools/video-library/internal/validation"
)

// BannerService reads and edits the announcement banner.
type BannerService struct {
	repo      repository.BannerRepository
	validator *validation.Validator
}

// NewBannerService creates a BannerService.
func NewBannerService(repo repository.BannerRepository, validator *validation.Validator) *BannerService {
	return &BannerService{repo: repo, validator: validator}
}

// Get returns the stored banner or the defaults when none was saved yet.
func (s *BannerService) Get(ctx context.Context) (*models.Banner, error) {
	banner, err := s.repo.Get(ctx)
	if db.IsNotFound(err) {
		return models.DefaultBanner(), nil
	}
	if err != nil {
		return nil, err
	}
	return banner, nil
}

// Update applies a partial change and stores the result.
func (s *BannerService) Update(ctx context.Context, update models.BannerUpdate) (*models.Banner, error) {
	verr := &ValidationError{}
	if update.Text != nil {
		text := strings.TrimSpace(*update.Text)
		if err := s.validator.ValidateRequiredText("text", text); err != nil {
			verr.add("text", "banner text cannot be empty")
		}
		update.Text = &text
	}
	if update.Color != nil && !s.validator.IsValidHexColor(*update.Color) {
		verr.add("color", "color must be a hex value like #28b6ea")
	}
	if update.Hyperlink != nil {
		link := strings.TrimSpace(*update.Hyperlink)
		update.Hyperlink = &link
	}
	if err := verr.errOrNil(); err != nil {
		return nil, err
	}

	banner, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	update.Apply(banner)

	if err := s.repo.Save(ctx, banner); err != nil {
		return nil, err
	}
	return banner, nil
}
