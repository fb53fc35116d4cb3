package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"litcal/internal/model"
)

const (
	defaultListen   = "127.0.0.1:8080"
	defaultDataDir  = "./data"
	defaultLocale   = "en"
	defaultLogLevel = "info"
	defaultWarmCron = "0 3,15 * * *"
	defaultCacheTTL = 6 * 60 * 60
)

// ICalConfig controls the iCalendar export.
type ICalConfig struct {
	ProductID string `yaml:"product_id" json:"product_id"`
	// Domain is the right-hand side of exported UIDs.
	Domain string `yaml:"domain" json:"domain" env:"LITCAL_ICAL_DOMAIN"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address of the API.
	Listen string `yaml:"listen" json:"listen" env:"LITCAL_LISTEN"`

	// DataDir holds wider_regions/, nations/ and dioceses/.
	DataDir string `yaml:"data_dir" json:"data_dir" env:"LITCAL_DATA_DIR"`

	// DefaultLocale is used when a request names no locale.
	DefaultLocale string `yaml:"default_locale" json:"default_locale" env:"LITCAL_LOCALE"`

	LogLevel string `yaml:"log_level" json:"log_level" env:"LITCAL_LOG_LEVEL"`

	// WarmCron is a cron schedule (e.g. "0 3 * * *") on which the current
	// and next year are recomputed into the cache. Empty disables warming.
	WarmCron string `yaml:"warm_cron" json:"warm_cron" env:"LITCAL_WARM_CRON"`

	// CacheTTLSeconds bounds how long a computed calendar is served from
	// memory.
	CacheTTLSeconds int `yaml:"cache_ttl_seconds" json:"cache_ttl_seconds" env:"LITCAL_CACHE_TTL_SECONDS"`

	// GeneralSettings are used for the General Roman Calendar scope.
	GeneralSettings model.Settings `yaml:"general_settings" json:"general_settings"`

	ICal ICalConfig `yaml:"ical" json:"ical"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:          defaultListen,
		DataDir:         defaultDataDir,
		DefaultLocale:   defaultLocale,
		LogLevel:        defaultLogLevel,
		WarmCron:        defaultWarmCron,
		CacheTTLSeconds: defaultCacheTTL,
		GeneralSettings: model.DefaultSettings(),
		ICal: ICalConfig{
			ProductID: "-//litcal//Liturgical Calendar//EN",
			Domain:    "litcal.local",
		},
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave correctly. Settings values are matched
// case-insensitively; values that do not parse are left for Validate.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if strings.TrimSpace(c.Listen) == "" {
		c.Listen = d.Listen
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = d.DataDir
	}
	if strings.TrimSpace(c.DefaultLocale) == "" {
		c.DefaultLocale = d.DefaultLocale
	}
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = d.LogLevel
	}
	// WarmCron is left alone: empty turns warming off.
	if c.CacheTTLSeconds <= 0 {
		c.CacheTTLSeconds = d.CacheTTLSeconds
	}

	gs := &c.GeneralSettings
	if gs.Epiphany == "" {
		gs.Epiphany = d.GeneralSettings.Epiphany
	} else if v, err := model.ParseEpiphany(string(gs.Epiphany)); err == nil {
		gs.Epiphany = v
	}
	if gs.Ascension == "" {
		gs.Ascension = d.GeneralSettings.Ascension
	} else if v, err := model.ParseFeastDay(string(gs.Ascension)); err == nil {
		gs.Ascension = v
	}
	if gs.CorpusChristi == "" {
		gs.CorpusChristi = d.GeneralSettings.CorpusChristi
	} else if v, err := model.ParseFeastDay(string(gs.CorpusChristi)); err == nil {
		gs.CorpusChristi = v
	}

	if strings.TrimSpace(c.ICal.ProductID) == "" {
		c.ICal.ProductID = d.ICal.ProductID
	}
	if strings.TrimSpace(c.ICal.Domain) == "" {
		c.ICal.Domain = d.ICal.Domain
	}
}

// Validate reports settings that Normalize cannot repair.
func (c *Config) Validate() error {
	if err := c.GeneralSettings.Validate(); err != nil {
		return fmt.Errorf("general_settings: %w", err)
	}
	if c.WarmCron != "" {
		if _, err := cron.ParseStandard(c.WarmCron); err != nil {
			return fmt.Errorf("warm_cron: %w", err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from LITCAL_* environment variables.
func (c *Config) ApplyEnv() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms (creating the parent directory) and used.
//   - Otherwise the YAML is unmarshalled and normalized.
//
// Environment overrides are applied last in both cases and are never
// written back to the file.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	var cfg *Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// First run: create default config file.
		cfg = DefaultConfig()
		if err := Save(path, cfg); err != nil {
			return cfg, err
		}
	case err != nil:
		return nil, err
	default:
		cfg = &Config{}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".litcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
