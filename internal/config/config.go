// Package config loads application configuration from an optional YAML
// file, BINTO_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	KeyDB                 = "db"
	KeyLogFile            = "log.file"
	KeyLogLevel           = "log.level"
	KeySchedulerGrace     = "scheduler.grace"
	KeyPowerCheckInterval = "power.check_interval"
	KeyPowerTolerance     = "power.tolerance"
)

type Config struct {
	DB                 string
	LogFile            string
	LogLevel           string
	SchedulerGrace     time.Duration
	PowerCheckInterval time.Duration
	PowerTolerance     time.Duration
}

// DefaultPath returns ~/.config/binto/config.yaml
func DefaultPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "binto", "config.yaml"), nil
}

type Manager struct {
	v      *viper.Viper
	path   string
	exists bool
}

// Open reads the config file at path, or the default location when path is
// empty. A missing file is not an error; defaults and environment still
// apply.
func Open(path string) (*Manager, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("config path: %w", err)
		}
		path = p
	}

	v := viper.New()
	v.SetDefault(KeyDB, "")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeySchedulerGrace, "5s")
	v.SetDefault(KeyPowerCheckInterval, "30s")
	v.SetDefault(KeyPowerTolerance, "15s")

	v.SetEnvPrefix("binto")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	m := &Manager{v: v, path: path}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		m.exists = true
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat config %s: %w", path, err)
	}
	return m, nil
}

// Path returns the config file location, whether or not it exists.
func (m *Manager) Path() string { return m.path }

// BindFlags lets explicitly set flags override file and environment
// values. Flags missing from fs are skipped.
func (m *Manager) BindFlags(fs *pflag.FlagSet) error {
	bindings := map[string]string{
		KeyDB:       "db",
		KeyLogFile:  "log-file",
		KeyLogLevel: "log-level",
	}
	for key, name := range bindings {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := m.v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// Config returns the current, validated configuration.
func (m *Manager) Config() (Config, error) {
	cfg := Config{
		DB:       m.v.GetString(KeyDB),
		LogFile:  m.v.GetString(KeyLogFile),
		LogLevel: m.v.GetString(KeyLogLevel),
	}

	var err error
	if cfg.SchedulerGrace, err = m.duration(KeySchedulerGrace, true); err != nil {
		return cfg, err
	}
	if cfg.PowerCheckInterval, err = m.duration(KeyPowerCheckInterval, false); err != nil {
		return cfg, err
	}
	if cfg.PowerTolerance, err = m.duration(KeyPowerTolerance, true); err != nil {
		return cfg, err
	}

	var lv slog.Level
	if err := lv.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return cfg, fmt.Errorf("%s: %w", KeyLogLevel, err)
	}
	return cfg, nil
}

func (m *Manager) duration(key string, zeroOK bool) (time.Duration, error) {
	raw := m.v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, raw)
	}
	if d < 0 || (d == 0 && !zeroOK) {
		return 0, fmt.Errorf("%s: must be positive, got %s", key, d)
	}
	return d, nil
}

// Watch calls onChange with the reloaded config every time the file is
// written. Reloads that fail validation are passed to onError instead.
// It does nothing when no config file exists.
func (m *Manager) Watch(onChange func(Config), onError func(error)) {
	if !m.exists {
		return
	}
	m.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := m.Config()
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	m.v.WatchConfig()
}
