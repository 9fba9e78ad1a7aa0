package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "config.yaml")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, "kalendar_data", cfg.ExportPrefix)
	assert.Equal(t, "Prehlad", cfg.ReportPrefix)
	assert.Equal(t, 14, cfg.Backup.Keep)
	assert.Equal(t, 794, cfg.Render.Width)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadNormalizesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen: ":9000"
log_level: loud
default_year: 2025
backup:
  enabled: true
  keep: -1
feeds:
  - id: meniny
    url: https://example.com/meniny.ics
    kind: namedays
basic_auth:
  username: admin
  password: secret
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 2025, cfg.Year(time.Now()))
	assert.True(t, cfg.Backup.Enabled)
	assert.Equal(t, -1, cfg.Backup.Keep)
	assert.Equal(t, "0 3 * * *", cfg.Backup.Cron)
	require.Len(t, cfg.Feeds, 1)
	assert.Equal(t, "namedays", cfg.Feeds[0].Kind)
	require.NotNil(t, cfg.BasicAuth)
	assert.Equal(t, "admin", cfg.BasicAuth.Username)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [unclosed"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)

	_, err = Load("")
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.DefaultYear = 2026
	cfg.Render.ChromePath = "/usr/bin/chromium"
	require.NoError(t, cfg.Save(path))

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}

func TestYearDefaultsToNow(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 2031, cfg.Year(time.Date(2031, 5, 1, 0, 0, 0, 0, time.UTC)))
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("WORKCAL_LISTEN", "0.0.0.0:80")
	t.Setenv("WORKCAL_DEFAULT_YEAR", "2027")
	t.Setenv("WORKCAL_AUTH_USERNAME", "eva")
	t.Setenv("WORKCAL_AUTH_PASSWORD", "pw")

	cfg := DefaultConfig()
	require.NoError(t, ApplyEnv(cfg))
	assert.Equal(t, "0.0.0.0:80", cfg.Listen)
	assert.Equal(t, 2027, cfg.DefaultYear)
	require.NotNil(t, cfg.BasicAuth)
	assert.Equal(t, "eva", cfg.BasicAuth.Username)
	assert.Equal(t, "./var/workcal/state.json", cfg.DataPath)

	t.Setenv("WORKCAL_DEFAULT_YEAR", "soon")
	assert.Error(t, ApplyEnv(DefaultConfig()))
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(p, []byte("WORKCAL_TEST_DOTENV=from-file\n"), 0o600))
	t.Setenv("WORKCAL_TEST_DOTENV", "")
	os.Unsetenv("WORKCAL_TEST_DOTENV")

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), p))
	assert.Equal(t, "from-file", os.Getenv("WORKCAL_TEST_DOTENV"))
	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}
