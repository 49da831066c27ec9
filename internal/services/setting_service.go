package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"art_studio_backend/internal/models"
	"art_studio_backend/internal/repositories"
	"art_studio_backend/pkg/utils"
)

// UpdateSettingsRequest DTO. Nil fields are left unchanged.
type UpdateSettingsRequest struct {
	MaxPersonsPerClass *int    `json:"max_persons_per_class"`
	Currency           *string `json:"currency"`
	Session1Time       *string `json:"session_1_time"`
	Session2Time       *string `json:"session_2_time"`
}

// SettingsProvider supplies the studio-wide settings to the engine.
type SettingsProvider interface {
	GetSettings(ctx context.Context) (*models.AppSettings, error)
	// GetSettingsTx reads through the caller's executor so the read joins its transaction.
	GetSettingsTx(ctx context.Context, exec repositories.SQLExecutor) (*models.AppSettings, error)
}

// SettingService manages the singleton settings row.
type SettingService interface {
	SettingsProvider
	EnsureDefaults(ctx context.Context) (*models.AppSettings, error)
	UpdateSettings(ctx context.Context, req UpdateSettingsRequest) (*models.AppSettings, error)
}

type settingService struct {
	repo     repositories.SettingRepository
	db       repositories.SQLExecutor
	defaults models.AppSettings
}

// NewSettingService creates a SettingService. defaultMaxPersons is used whenever the row has to be materialized.
func NewSettingService(repo repositories.SettingRepository, db repositories.SQLExecutor, defaultMaxPersons int) SettingService {
	return &settingService{repo: repo, db: db, defaults: models.DefaultAppSettings(defaultMaxPersons)}
}

func (s *settingService) EnsureDefaults(ctx context.Context) (*models.AppSettings, error) {
	settings, err := s.repo.EnsureSettings(ctx, s.db, s.defaults)
	if err != nil {
		return nil, fmt.Errorf("failed to materialize settings: %w", err)
	}
	return settings, nil
}

// GetSettings reads the row, re-materializing the defaults if it has gone missing.
func (s *settingService) GetSettings(ctx context.Context) (*models.AppSettings, error) {
	return s.GetSettingsTx(ctx, s.db)
}

func (s *settingService) GetSettingsTx(ctx context.Context, exec repositories.SQLExecutor) (*models.AppSettings, error) {
	settings, err := s.repo.GetSettings(ctx, exec)
	if errors.Is(err, repositories.ErrNotFound) {
		utils.LogWarn("Settings row missing, restoring defaults", map[string]interface{}{
			"max_persons_per_class": s.defaults.MaxPersonsPerClass,
		})
		settings, err = s.repo.EnsureSettings(ctx, exec, s.defaults)
		if err != nil {
			return nil, fmt.Errorf("failed to materialize settings: %w", err)
		}
		return settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return settings, nil
}

func (s *settingService) UpdateSettings(ctx context.Context, req UpdateSettingsRequest) (*models.AppSettings, error) {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	if req.MaxPersonsPerClass != nil {
		if *req.MaxPersonsPerClass <= 0 {
			return nil, validationErrorf("max_persons_per_class must be positive")
		}
		settings.MaxPersonsPerClass = *req.MaxPersonsPerClass
	}
	if req.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*req.Currency))
		if len(currency) != 3 {
			return nil, validationErrorf("currency must be a 3-letter code")
		}
		settings.Currency = currency
	}
	if req.Session1Time != nil {
		settings.Session1Time = strings.TrimSpace(*req.Session1Time)
	}
	if req.Session2Time != nil {
		settings.Session2Time = strings.TrimSpace(*req.Session2Time)
	}

	if err := s.repo.UpdateSettings(ctx, s.db, settings); err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}
	return settings, nil
}
