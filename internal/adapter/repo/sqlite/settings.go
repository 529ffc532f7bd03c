package sqlite

import (
	"context"
	"database/sql"
)

// SettingsRepository implements domain.SettingsRepository against Pools.
type SettingsRepository struct {
	pools *Pools
}

// NewSettingsRepository constructs a SettingsRepository.
func NewSettingsRepository(pools *Pools) *SettingsRepository {
	return &SettingsRepository{pools: pools}
}

// GetSetting returns the stored value for key, or found=false if unset.
func (r *SettingsRepository) GetSetting(ctx context.Context, key string) (value string, found bool, err error) {
	err = r.pools.RW.QueryRowContext(ctx, `SELECT value FROM app_settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetSetting upserts key=value.
func (r *SettingsRepository) SetSetting(ctx context.Context, key, value string) error {
	_, err := r.pools.RW.ExecContext(ctx,
		`INSERT OR REPLACE INTO app_settings (key, value) VALUES (?, ?)`, key, value)
	return err
}

// TokenAuthEnabled reports whether bearer-token auth is required on the
// public API, defaulting to true if the setting has never been written.
func (r *SettingsRepository) TokenAuthEnabled(ctx context.Context) (bool, error) {
	value, found, err := r.GetSetting(ctx, "token_auth_enabled")
	if err != nil {
		return false, err
	}
	if !found {
		return true, nil
	}
	return value == "1" || value == "true", nil
}
