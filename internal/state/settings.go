package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// Setting keys.
const (
	KeyTheme     = "theme"
	KeyDictation = "dictation"
)

// DictationSettings mirrors the dictation block of the UI config.
type DictationSettings struct {
	Enabled  bool   `json:"enabled"`
	Provider string `json:"provider,omitempty"`
	Locale   string `json:"locale,omitempty"`
}

// GetSetting returns the raw value stored under key, or "" when unset.
func (db *DB) GetSetting(key string) (string, error) {
	var value string
	err := db.sql.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting upserts a setting.
func (db *DB) SetSetting(key, value string) error {
	_, err := db.sql.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("writing setting %s: %w", key, err)
	}
	return nil
}

// Theme returns the stored theme, defaulting to "system".
func (db *DB) Theme() (string, error) {
	v, err := db.GetSetting(KeyTheme)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "system", nil
	}
	return v, nil
}

// SetTheme stores the theme.
func (db *DB) SetTheme(theme string) error {
	return db.SetSetting(KeyTheme, theme)
}

// Dictation returns the stored dictation settings, zero-valued when
// never set.
func (db *DB) Dictation() (DictationSettings, error) {
	v, err := db.GetSetting(KeyDictation)
	if err != nil {
		return DictationSettings{}, err
	}
	if v == "" {
		return DictationSettings{}, nil
	}
	var d DictationSettings
	if err := json.Unmarshal([]byte(v), &d); err != nil {
		return DictationSettings{}, fmt.Errorf("decoding dictation settings: %w", err)
	}
	return d, nil
}

// SetDictation stores the dictation settings.
func (db *DB) SetDictation(d DictationSettings) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding dictation settings: %w", err)
	}
	return db.SetSetting(KeyDictation, string(data))
}
