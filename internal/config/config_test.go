package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	m, err := Open(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	cfg, err := m.Config()
	require.NoError(t, err)
	assert.Equal(t, Config{
		LogLevel:           "info",
		SchedulerGrace:     5 * time.Second,
		PowerCheckInterval: 30 * time.Second,
		PowerTolerance:     15 * time.Second,
	}, cfg)
}

func TestFileValues(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
db: /tmp/binto-test.db
log:
  level: debug
  file: /tmp/binto-test.log
scheduler:
  grace: 2s
power:
  check_interval: 1m
  tolerance: 0s
`)
	m, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, path, m.Path())

	cfg, err := m.Config()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/binto-test.db", cfg.DB)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/binto-test.log", cfg.LogFile)
	assert.Equal(t, 2*time.Second, cfg.SchedulerGrace)
	assert.Equal(t, time.Minute, cfg.PowerCheckInterval)
	assert.Zero(t, cfg.PowerTolerance)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "log:\n  level: warn\n")
	t.Setenv("BINTO_LOG_LEVEL", "error")
	t.Setenv("BINTO_SCHEDULER_GRACE", "9s")

	m, err := Open(path)
	require.NoError(t, err)
	cfg, err := m.Config()
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, 9*time.Second, cfg.SchedulerGrace)
}

func TestFlagsOverrideEverything(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "db: /from/file.db\n")
	t.Setenv("BINTO_DB", "/from/env.db")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("db", "", "")
	fs.String("log-level", "", "")
	require.NoError(t, fs.Parse([]string{"--db", "/from/flag.db"}))

	m, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, m.BindFlags(fs))

	cfg, err := m.Config()
	require.NoError(t, err)
	assert.Equal(t, "/from/flag.db", cfg.DB)
	assert.Equal(t, "info", cfg.LogLevel, "unset flag does not override")
}

func TestInvalidValues(t *testing.T) {
	tests := map[string]string{
		"bad duration":  "scheduler:\n  grace: soon\n",
		"zero interval": "power:\n  check_interval: 0s\n",
		"negative":      "power:\n  tolerance: -1s\n",
		"bad level":     "log:\n  level: loud\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			m, err := Open(writeConfig(t, t.TempDir(), body))
			require.NoError(t, err)
			_, err = m.Config()
			assert.Error(t, err)
		})
	}
}

func TestMalformedFile(t *testing.T) {
	_, err := Open(writeConfig(t, t.TempDir(), "log: [unclosed\n"))
	assert.Error(t, err)
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "log:\n  level: info\n")
	m, err := Open(path)
	require.NoError(t, err)

	levels := make(chan string, 8)
	m.Watch(func(cfg Config) { levels <- cfg.LogLevel }, nil)

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o644))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case lvl := <-levels:
			if lvl == "debug" {
				return
			}
		case <-deadline:
			t.Fatal("config change was not observed")
		}
	}
}

func TestWatchWithoutFileIsNoop(t *testing.T) {
	m, err := Open(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	m.Watch(func(Config) { t.Fatal("unexpected reload") }, nil)
}
