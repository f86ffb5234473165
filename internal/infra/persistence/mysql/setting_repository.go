package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// SettingRepository reads the app_settings key-value table. Values are stored
// as text and parsed on read.
type SettingRepository struct {
	db *sql.DB
}

func NewSettingRepository(db *sql.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

func (r *SettingRepository) get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		"SELECT `value` FROM app_settings WHERE `key` = ?", key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (r *SettingRepository) GetString(ctx context.Context, key string) (string, bool, error) {
	return r.get(ctx, key)
}

func (r *SettingRepository) GetInt64(ctx context.Context, key string) (int64, bool, error) {
	raw, ok, err := r.get(ctx, key)
	if err != nil || !ok {
		return 0, ok, err
	}
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("setting %q is not an integer: %w", key, err)
	}
	return v, true, nil
}

func (r *SettingRepository) GetBool(ctx context.Context, key string) (bool, bool, error) {
	raw, ok, err := r.get(ctx, key)
	if err != nil || !ok {
		return false, ok, err
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true, true, nil
	case "0", "false", "no", "off":
		return false, true, nil
	default:
		return false, false, fmt.Errorf("setting %q is not a boolean", key)
	}
}

// Set upserts a setting; used by operational tooling and tests.
func (r *SettingRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO app_settings (`key`, `value`) VALUES (?, ?) ON DUPLICATE KEY UPDATE `value` = VALUES(`value`)",
		key, value)
	return err
}
