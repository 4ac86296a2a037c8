package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/wellness-in-schools/video-library/internal/db"
	"github.com/wellness-in-schools/video-library/internal/db/models"
	"github.com/wellness-in-schools/video-library/internal/db/repository"
	"github.com/wellness-in-schools/video-library/internal/validation"
	"github.com/wellness-in-schools/video-library/pkg/logger"
)

// SiteStatus is the admin view of the gate.
type SiteStatus struct {
	IsActive    bool `json:"isActive"`
	HasPassword bool `json:"hasPassword"`
}

// SiteSettingsService owns the site-wide password gate.
type SiteSettingsService struct {
	repo            repository.SiteSettingsRepository
	validator       *validation.Validator
	defaultPassword string
	cost            int
}

// NewSiteSettingsService creates a SiteSettingsService. The default password
// seeds the gate the first time it is read.
func NewSiteSettingsService(repo repository.SiteSettingsRepository, validator *validation.Validator, defaultPassword string, cost int) *SiteSettingsService {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &SiteSettingsService{
		repo:            repo,
		validator:       validator,
		defaultPassword: defaultPassword,
		cost:            cost,
	}
}

// VerifyPassword reports whether password opens the gate. When protection is
// off every password is accepted.
func (s *SiteSettingsService) VerifyPassword(ctx context.Context, password string) (bool, error) {
	settings, err := s.settings(ctx)
	if err != nil {
		return false, err
	}
	if !settings.IsActive {
		return true, nil
	}

	err = bcrypt.CompareHashAndPassword([]byte(settings.PasswordHash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to compare site password: %w", err)
	}
	return true, nil
}

// Status reports whether the gate is on and has a password.
func (s *SiteSettingsService) Status(ctx context.Context) (*SiteStatus, error) {
	settings, err := s.settings(ctx)
	if err != nil {
		return nil, err
	}
	return &SiteStatus{IsActive: settings.IsActive, HasPassword: settings.PasswordHash != ""}, nil
}

// SetPassword replaces the gate password.
func (s *SiteSettingsService) SetPassword(ctx context.Context, password string) error {
	if err := s.validator.ValidateSitePassword(password); err != nil {
		return newValidationError("password", err.Error())
	}

	settings, err := s.settings(ctx)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("failed to hash site password: %w", err)
	}
	settings.PasswordHash = string(hash)

	if err := s.repo.Save(ctx, settings); err != nil {
		return err
	}
	logger.L().Info("Site password changed")
	return nil
}

// Toggle flips protection and returns the new state.
func (s *SiteSettingsService) Toggle(ctx context.Context) (bool, error) {
	settings, err := s.settings(ctx)
	if err != nil {
		return false, err
	}
	settings.IsActive = !settings.IsActive

	if err := s.repo.Save(ctx, settings); err != nil {
		return false, err
	}
	logger.L().Info("Site protection toggled", zap.Bool("isActive", settings.IsActive))
	return settings.IsActive, nil
}

// settings loads the singleton row, seeding it with the default password on
// first use.
func (s *SiteSettingsService) settings(ctx context.Context) (*models.SiteSettings, error) {
	settings, err := s.repo.Get(ctx)
	if err == nil {
		return settings, nil
	}
	if !db.IsNotFound(err) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.defaultPassword), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash default site password: %w", err)
	}
	logger.L().Info("Seeding site settings with the default password")
	return s.repo.CreateIfMissing(ctx, &models.SiteSettings{
		PasswordHash: string(hash),
		IsActive:     true,
		UpdatedAt:    time.Now(),
	})
}
