package repositories

import (
	"context"
	"time"

	"art_studio_backend/internal/models"
)

// SettingRepository persists the singleton AppSettings row.
type SettingRepository interface {
	GetSettings(ctx context.Context, executor SQLExecutor) (*models.AppSettings, error)
	// EnsureSettings inserts defaults when the row is missing and returns the stored row.
	EnsureSettings(ctx context.Context, executor SQLExecutor, defaults models.AppSettings) (*models.AppSettings, error)
	UpdateSettings(ctx context.Context, executor SQLExecutor, settings *models.AppSettings) error
}

type settingRepository struct{}

// NewSettingRepository creates a new instance of SettingRepository.
func NewSettingRepository() SettingRepository {
	return &settingRepository{}
}

const settingsSelect = `SELECT id, max_persons_per_class, currency, session_1_time, session_2_time, updated_at
	FROM app_settings WHERE id = 1`

func (r *settingRepository) GetSettings(ctx context.Context, executor SQLExecutor) (*models.AppSettings, error) {
	var s models.AppSettings
	err := executor.QueryRowContext(ctx, settingsSelect).
		Scan(&s.ID, &s.MaxPersonsPerClass, &s.Currency, &s.Session1Time, &s.Session2Time, &s.UpdatedAt)
	if err != nil {
		return nil, wrapError(err, "getting settings")
	}
	return &s, nil
}

func (r *settingRepository) EnsureSettings(ctx context.Context, executor SQLExecutor, defaults models.AppSettings) (*models.AppSettings, error) {
	_, err := executor.ExecContext(ctx,
		`INSERT INTO app_settings (id, max_persons_per_class, currency, session_1_time, session_2_time, updated_at)
		 VALUES (1, $1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO NOTHING`,
		defaults.MaxPersonsPerClass, defaults.Currency, defaults.Session1Time, defaults.Session2Time, time.Now())
	if err != nil {
		return nil, wrapError(err, "materializing default settings")
	}
	return r.GetSettings(ctx, executor)
}

func (r *settingRepository) UpdateSettings(ctx context.Context, executor SQLExecutor, settings *models.AppSettings) error {
	err := executor.QueryRowContext(ctx,
		`UPDATE app_settings
		 SET max_persons_per_class = $1, currency = $2, session_1_time = $3, session_2_time = $4, updated_at = $5
		 WHERE id = 1
		 RETURNING updated_at`,
		settings.MaxPersonsPerClass, settings.Currency, settings.Session1Time, settings.Session2Time, time.Now(),
	).Scan(&settings.UpdatedAt)
	return wrapError(err, "updating settings")
}
