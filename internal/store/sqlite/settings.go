package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/folioapp/folio-server/internal/store"
)

// GetSetting retrieves a platform setting value by key.
// Returns store.ErrNotFound for absent keys; callers decide on defaults.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM platform_settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.ErrNotFound.WithMessage("setting not found")
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetSetting upserts a platform setting.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO platform_settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, formatTime(time.Now()))
	return err
}
