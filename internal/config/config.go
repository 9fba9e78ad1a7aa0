package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"workcal/internal/fsutil"
)

// NOTE: This file provides the configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions. Environment variables (WORKCAL_*) override the file.

const (
	defaultListen       = "127.0.0.1:8080"
	defaultDataPath     = "./var/workcal/state.json"
	defaultOutputDir    = "./var/workcal/exports"
	defaultLogLevel     = "info"
	defaultExportPrefix = "kalendar_data"
	defaultReportPrefix = "Prehlad"
	defaultBackupCron   = "0 3 * * *"
	defaultBackupKeep   = 14
	defaultFeedsRefresh = "0 4 * * *"
	defaultRenderWidth  = 794
	defaultRenderSec    = 60
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// BackupConfig controls the scheduled JSON backups.
type BackupConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Cron is a standard 5-field schedule (e.g. "0 3 * * *").
	Cron string `yaml:"cron" json:"cron"`
	// Dir defaults to <output_dir>/backups.
	Dir string `yaml:"dir" json:"dir"`
	// Keep is how many backups are retained; negative keeps all.
	Keep int `yaml:"keep" json:"keep"`
}

// RenderConfig controls the headless Chromium PDF renderer.
type RenderConfig struct {
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
	Width          int    `yaml:"width" json:"width"`
	ChromePath     string `yaml:"chrome_path,omitempty" json:"chrome_path,omitempty"`
}

// Timeout returns TimeoutSeconds as a duration.
func (r RenderConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// FeedConfig describes a single ICS subscription (name days or extra days
// off).
type FeedConfig struct {
	ID   string `yaml:"id" json:"id"`
	URL  string `yaml:"url" json:"url"`
	Kind string `yaml:"kind" json:"kind"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// DataPath is the JSON file holding the persisted state.
	DataPath string `yaml:"data_path" json:"data_path"`

	// OutputDir receives exported PDF reports.
	OutputDir string `yaml:"output_dir" json:"output_dir"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// DefaultYear is the year shown when a request does not name one. 0 means
	// the current year.
	DefaultYear int `yaml:"default_year" json:"default_year"`

	// ExportPrefix and ReportPrefix start the JSON export and PDF filenames.
	ExportPrefix string `yaml:"export_prefix" json:"export_prefix"`
	ReportPrefix string `yaml:"report_prefix" json:"report_prefix"`

	Backup BackupConfig `yaml:"backup" json:"backup"`
	Render RenderConfig `yaml:"render" json:"render"`

	// Feeds are ICS subscriptions refreshed on FeedsRefresh.
	Feeds        []FeedConfig `yaml:"feeds" json:"feeds"`
	FeedsRefresh string       `yaml:"feeds_refresh" json:"feeds_refresh"`
	CacheDir     string       `yaml:"cache_dir" json:"cache_dir"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	c := &Config{}
	c.Normalize()
	return c
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs (e.g., older versions) still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.DataPath == "" {
		c.DataPath = defaultDataPath
	}
	if c.OutputDir == "" {
		c.OutputDir = defaultOutputDir
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		// Unknown value; fall back to info.
		c.LogLevel = defaultLogLevel
	}
	if c.DefaultYear < 0 {
		c.DefaultYear = 0
	}
	if c.ExportPrefix == "" {
		c.ExportPrefix = defaultExportPrefix
	}
	if c.ReportPrefix == "" {
		c.ReportPrefix = defaultReportPrefix
	}
	if c.Backup.Cron == "" {
		c.Backup.Cron = defaultBackupCron
	}
	if c.Backup.Dir == "" {
		c.Backup.Dir = c.OutputDir + "/backups"
	}
	// Keep: 0 means default, negative keeps every backup.
	if c.Backup.Keep == 0 {
		c.Backup.Keep = defaultBackupKeep
	}
	if c.Render.TimeoutSeconds <= 0 {
		c.Render.TimeoutSeconds = defaultRenderSec
	}
	if c.Render.Width <= 0 {
		c.Render.Width = defaultRenderWidth
	}
	if c.Feeds == nil {
		c.Feeds = []FeedConfig{}
	}
	if c.FeedsRefresh == "" {
		c.FeedsRefresh = defaultFeedsRefresh
	}
	if c.CacheDir == "" {
		c.CacheDir = c.OutputDir + "/ics-cache"
	}
}

// Year returns DefaultYear, or now's year when it is unset.
func (c *Config) Year(now time.Time) int {
	if c.DefaultYear > 0 {
		return c.DefaultYear
	}
	return now.Year()
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration atomically with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, data, 0o600)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}

// envOverrides are read from WORKCAL_* variables. Empty values leave the
// file's setting alone.
type envOverrides struct {
	Listen       string `envconfig:"LISTEN"`
	DataPath     string `envconfig:"DATA_PATH"`
	OutputDir    string `envconfig:"OUTPUT_DIR"`
	LogLevel     string `envconfig:"LOG_LEVEL"`
	DefaultYear  int    `envconfig:"DEFAULT_YEAR"`
	ChromePath   string `envconfig:"CHROME_PATH"`
	AuthUsername string `envconfig:"AUTH_USERNAME"`
	AuthPassword string `envconfig:"AUTH_PASSWORD"`
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are ignored; variables already set win.
func LoadDotEnv(paths ...string) error {
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// ApplyEnv overrides cfg from WORKCAL_* environment variables.
func ApplyEnv(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process("workcal", &env); err != nil {
		return fmt.Errorf("config: environment: %w", err)
	}
	if env.Listen != "" {
		cfg.Listen = env.Listen
	}
	if env.DataPath != "" {
		cfg.DataPath = env.DataPath
	}
	if env.OutputDir != "" {
		cfg.OutputDir = env.OutputDir
	}
	if env.LogLevel != "" {
		cfg.LogLevel = env.LogLevel
	}
	if env.DefaultYear != 0 {
		cfg.DefaultYear = env.DefaultYear
	}
	if env.ChromePath != "" {
		cfg.Render.ChromePath = env.ChromePath
	}
	if env.AuthUsername != "" || env.AuthPassword != "" {
		cfg.BasicAuth = &BasicAuthConfig{Username: env.AuthUsername, Password: env.AuthPassword}
	}
	cfg.Normalize()
	return nil
}
