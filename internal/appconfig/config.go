// Package appconfig loads the vidgate configuration: a YAML file, then .env
// and process environment on top, then defaults and validation.
package appconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/m3rciful/vidgate/core/config"
	coredatabase "github.com/m3rciful/vidgate/core/database"
	"github.com/m3rciful/vidgate/internal/session"
)

// DefaultFollowURL is used when gate.follow_url is not configured.
const DefaultFollowURL = "https://instagram.com/your_account"

type GateConfig struct {
	Enabled   bool   `yaml:"enabled" envconfig:"GATE_ENABLED"`
	FollowURL string `yaml:"follow_url" envconfig:"GATE_FOLLOW_URL" validate:"required,url"`
}

type DownloadConfig struct {
	Dir                 string `yaml:"dir" envconfig:"DOWNLOAD_DIR"`
	ProbeTimeoutSeconds int    `yaml:"probe_timeout_seconds" envconfig:"DOWNLOAD_PROBE_TIMEOUT_SECONDS" validate:"gte=0"`
	FetchTimeoutSeconds int    `yaml:"fetch_timeout_seconds" envconfig:"DOWNLOAD_FETCH_TIMEOUT_SECONDS" validate:"gte=0"`
	MaxParallel         int    `yaml:"max_parallel" envconfig:"DOWNLOAD_MAX_PARALLEL" validate:"gte=0,lte=64"`
	MergeFormat         string `yaml:"merge_format" envconfig:"DOWNLOAD_MERGE_FORMAT" validate:"oneof=mp4 mkv webm"`
	// Binary is the yt-dlp executable; empty means PATH lookup.
	Binary string `yaml:"binary" envconfig:"YTDLP_BINARY"`
}

// ProbeTimeout and FetchTimeout convert the configured seconds.
func (d DownloadConfig) ProbeTimeout() time.Duration {
	return time.Duration(d.ProbeTimeoutSeconds) * time.Second
}

func (d DownloadConfig) FetchTimeout() time.Duration {
	return time.Duration(d.FetchTimeoutSeconds) * time.Second
}

type CacheConfig struct {
	TTLSeconds     int `yaml:"ttl_seconds" envconfig:"CACHE_TTL_SECONDS" validate:"gte=0"`
	CleanupSeconds int `yaml:"cleanup_seconds" envconfig:"CACHE_CLEANUP_SECONDS" validate:"gte=0"`
}

type StorageConfig struct {
	Driver   string `yaml:"driver" envconfig:"STORAGE_DRIVER" validate:"oneof=memory redis postgres"`
	RedisURL string `yaml:"redis_url" envconfig:"REDIS_URL" validate:"required_if=Driver redis"`
	RedisKey string `yaml:"redis_key" envconfig:"REDIS_KEY"`
}

type BotConfig struct {
	Locale string `yaml:"locale" envconfig:"BOT_LOCALE" validate:"oneof=ar en"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Gate     GateConfig          `yaml:"gate"`
	Download DownloadConfig      `yaml:"download"`
	Cache    CacheConfig         `yaml:"cache"`
	Storage  StorageConfig       `yaml:"storage"`
	Database coredatabase.Config `yaml:"database"`
	Bot      BotConfig           `yaml:"bot"`
}

// CoreConfig satisfies the runner's ConfigCarrier.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// Defaults returns the values applied before the file is read.
func Defaults() *Config {
	return &Config{
		Gate: GateConfig{Enabled: true},
	}
}

// Load reads path, overlays .env and the environment, applies defaults and validates.
func Load(path string) (*Config, error) {
	if err := loadDotenv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}

	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("env overlay: %w", err)
	}
	if err := Normalize(cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotenv is a no-op when the file is missing. Variables already set in
// the process environment win.
func loadDotenv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

// Normalize fills defaults and lowercases enumerations.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}

	cfg.Gate.FollowURL = strings.TrimSpace(cfg.Gate.FollowURL)
	if cfg.Gate.FollowURL == "" {
		cfg.Gate.FollowURL = DefaultFollowURL
	}

	d := &cfg.Download
	if d.Dir == "" {
		d.Dir = filepath.Join(os.TempDir(), "vidgate")
	}
	if d.ProbeTimeoutSeconds == 0 {
		d.ProbeTimeoutSeconds = 60
	}
	if d.FetchTimeoutSeconds == 0 {
		d.FetchTimeoutSeconds = 600
	}
	if d.MaxParallel == 0 {
		d.MaxParallel = 2
	}
	d.MergeFormat = strings.ToLower(strings.TrimSpace(d.MergeFormat))
	if d.MergeFormat == "" {
		d.MergeFormat = "mp4"
	}

	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = 1800
	}
	if cfg.Cache.CleanupSeconds == 0 {
		cfg.Cache.CleanupSeconds = 600
	}

	s := &cfg.Storage
	s.Driver = strings.ToLower(strings.TrimSpace(s.Driver))
	if s.Driver == "" {
		s.Driver = session.DriverMemory
	}
	if s.RedisKey == "" {
		s.RedisKey = session.DefaultRedisKey
	}

	cfg.Bot.Locale = strings.ToLower(strings.TrimSpace(cfg.Bot.Locale))
	if cfg.Bot.Locale == "" {
		cfg.Bot.Locale = "ar"
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate runs the struct tags plus checks that span sections.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Storage.Driver == session.DriverPostgres {
		if cfg.Database.Host == "" || cfg.Database.Name == "" {
			return errors.New("invalid config: database.host and database.name are required for storage.driver postgres")
		}
	}
	return nil
}
