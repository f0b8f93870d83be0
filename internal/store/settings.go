package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Recognized setting keys.
const (
	KeyPromptIntervalMinutes = "promptIntervalMinutes"
	KeyIdleThresholdMinutes  = "idleThresholdMinutes"
	KeyLastPromptAt          = "lastPromptAt"
)

// Settings is the typed view of the settings table.
type Settings struct {
	PromptIntervalMinutes int
	// IdleThresholdMinutes is stored and validated but nothing reads it yet.
	IdleThresholdMinutes int
	// LastPromptAt is the scheduler checkpoint; nil until the first prompt.
	LastPromptAt *time.Time
}

func DefaultSettings() Settings {
	return Settings{
		PromptIntervalMinutes: 20,
		IdleThresholdMinutes:  5,
	}
}

// PromptInterval returns the prompt period as a duration.
func (s Settings) PromptInterval() time.Duration {
	return time.Duration(s.PromptIntervalMinutes) * time.Minute
}

// ParseSettings builds Settings from raw key/value pairs. Missing keys keep
// their defaults; present but malformed ones are an error.
func ParseSettings(raw map[string]string) (Settings, error) {
	st := DefaultSettings()
	if v, ok := raw[KeyPromptIntervalMinutes]; ok {
		n, err := parsePositive(KeyPromptIntervalMinutes, v)
		if err != nil {
			return st, err
		}
		st.PromptIntervalMinutes = n
	}
	if v, ok := raw[KeyIdleThresholdMinutes]; ok {
		n, err := parsePositive(KeyIdleThresholdMinutes, v)
		if err != nil {
			return st, err
		}
		st.IdleThresholdMinutes = n
	}
	if v, ok := raw[KeyLastPromptAt]; ok && v != "" {
		t, err := parseTime(v)
		if err != nil {
			return st, fmt.Errorf("%s: %w", KeyLastPromptAt, ErrInvalidInput)
		}
		st.LastPromptAt = &t
	}
	return st, nil
}

func parsePositive(key, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q: %w", key, v, ErrInvalidInput)
	}
	return n, nil
}

// validateSetting rejects malformed values for recognized keys. Unknown
// keys are stored verbatim.
func validateSetting(key, value string) error {
	switch key {
	case "":
		return fmt.Errorf("setting key is required: %w", ErrInvalidInput)
	case KeyPromptIntervalMinutes, KeyIdleThresholdMinutes:
		_, err := parsePositive(key, value)
		return err
	case KeyLastPromptAt:
		if _, err := parseTime(value); err != nil {
			return fmt.Errorf("%s must be an RFC3339 timestamp, got %q: %w", key, value, ErrInvalidInput)
		}
	}
	return nil
}

// GetSetting returns the stored value, or ErrNotFound if key was never set.
func (s *Store) GetSetting(key string) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("get setting %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, classify(err))
	}
	return value, nil
}

func (s *Store) SetSetting(key, value string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := validateSetting(key, value); err != nil {
		return fmt.Errorf("set setting: %w", err)
	}
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, classify(err))
	}
	return nil
}

func (s *Store) GetAllSettings() (map[string]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", classify(err))
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		settings[k] = v
	}
	return settings, rows.Err()
}

// LoadSettings reads and parses every setting in one go.
func (s *Store) LoadSettings() (Settings, error) {
	raw, err := s.GetAllSettings()
	if err != nil {
		return DefaultSettings(), err
	}
	return ParseSettings(raw)
}

// SetLastPromptAt writes the scheduler checkpoint.
func (s *Store) SetLastPromptAt(t time.Time) error {
	return s.SetSetting(KeyLastPromptAt, formatTime(t))
}
