package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/phrazzld/coach-api/internal/store"
)

// PostgresSettingsStore implements store.SettingsStore on the app_settings
// table. It also satisfies config.SettingsReader.
type PostgresSettingsStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.SettingsStore = (*PostgresSettingsStore)(nil)

// NewPostgresSettingsStore creates a PostgresSettingsStore. It panics if db
// is nil.
func NewPostgresSettingsStore(db store.DBTX, logger *slog.Logger) *PostgresSettingsStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresSettingsStore{db: db, logger: logger.With(slog.String("component", "settings_store"))}
}

// GetSettings implements store.SettingsStore.
func (s *PostgresSettingsStore) GetSettings(ctx context.Context, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		var v string
		err := s.db.QueryRowContext(ctx, `SELECT value FROM app_settings WHERE key = $1`, k).Scan(&v)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read setting %q: %w", k, MapError(err))
		}
		out[k] = v
	}
	return out, nil
}

// SetSettings implements store.SettingsStore. Keys are written in sorted
// order.
func (s *PostgresSettingsStore) SetSettings(ctx context.Context, values map[string]string) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	now := time.Now().UTC()
	for _, k := range keys {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO app_settings (key, value, updated_at) VALUES ($1, $2, $3)
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
		`, k, values[k], now)
		if err != nil {
			return MapError(err)
		}
	}
	s.logger.InfoContext(ctx, "settings updated", slog.Any("keys", keys))
	return nil
}
