package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
)

type HistoryConfig struct {
	Interval      time.Duration `yaml:"interval"`
	MaxDataPoints int           `yaml:"maxDataPoints"`
	DiskPath      string        `yaml:"diskPath"`
}

type AuthConfig struct {
	SecretKey   string        `yaml:"secretKey"`
	TokenExpiry time.Duration `yaml:"tokenExpiry"`
}

type SecurityConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
	RateLimit      float64  `yaml:"rateLimit"` // requests per second per IP
	RateBurst      int      `yaml:"rateBurst"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
}

type EventsConfig struct {
	NatsURL string `yaml:"natsUrl"`
}

type Config struct {
	Listen   string         `yaml:"listen"`
	LogLevel string         `yaml:"logLevel"`
	Timezone string         `yaml:"timezone"`
	History  HistoryConfig  `yaml:"history"`
	Auth     AuthConfig     `yaml:"auth"`
	Security SecurityConfig `yaml:"security"`
	Storage  StorageConfig  `yaml:"storage"`
	Events   EventsConfig   `yaml:"events"`
	reader   io.Reader
}

// Default generates default config
func Default() *Config {
	return &Config{
		Listen:   ":8080",
		LogLevel: "info",
		Timezone: "UTC",
		History: HistoryConfig{
			Interval:      5 * time.Second,
			MaxDataPoints: 720,
			DiskPath:      "/",
		},
		Auth: AuthConfig{
			TokenExpiry: 90 * 24 * time.Hour,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
			RateLimit:      10,
			RateBurst:      20,
		},
		Storage: StorageConfig{
			Driver: StorageFile,
			Path:   "presets.yaml",
		},
	}
}

func (cfg *Config) WithReader(r io.Reader) *Config {
	if r != nil {
		cfg.reader = r
	}
	return cfg
}

// Load loads the config in the following sequence:
// Default < Config file < ENV variables
// If there is no config file, then it is skipped
func (cfg *Config) Load() (*Config, error) {
	if cfg.reader != nil {
		tmp, err := cfg.loadFromReader()
		if err != nil {
			return nil, err
		}
		cfg.merge(tmp)
	}
	tmp, err := readFromEnv()
	if err != nil {
		return nil, err
	}
	cfg.merge(tmp)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile is Default().Load() with the YAML file at path; an empty path skips the file
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg.Load()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("can't open config: %w", err)
	}
	defer f.Close()
	return cfg.WithReader(f).Load()
}

func (cfg *Config) loadFromReader() (*Config, error) {
	decoder := yaml.NewDecoder(cfg.reader)
	decoder.KnownFields(true)
	tmp := &Config{}
	if err := decoder.Decode(tmp); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("can't decode config: %w", err)
	}
	return tmp, nil
}

func readFromEnv() (*Config, error) {
	cfg := &Config{}

	cfg.Listen = GetEnv("TIMEFILTER_LISTEN", "")
	cfg.LogLevel = GetEnv("TIMEFILTER_LOG_LEVEL", "")
	cfg.Timezone = GetEnv("TIMEFILTER_TIMEZONE", "")
	cfg.History.DiskPath = GetEnv("TIMEFILTER_DISK_PATH", "")
	cfg.Auth.SecretKey = GetEnv("TIMEFILTER_SECRET_KEY", "")
	cfg.Storage.Driver = GetEnv("TIMEFILTER_STORAGE_DRIVER", "")
	cfg.Storage.Path = GetEnv("TIMEFILTER_STORAGE_PATH", "")
	cfg.Storage.DSN = GetEnv("TIMEFILTER_DATABASE_URL", "")
	cfg.Events.NatsURL = GetEnv("TIMEFILTER_NATS_URL", "")

	if origins := GetEnv("TIMEFILTER_ALLOWED_ORIGINS", ""); origins != "" {
		cfg.Security.AllowedOrigins = strings.Split(strings.TrimSuffix(origins, ","), ",")
	}

	var err error
	if cfg.History.Interval, err = envDuration("TIMEFILTER_HISTORY_INTERVAL"); err != nil {
		return nil, err
	}
	if cfg.Auth.TokenExpiry, err = envDuration("TIMEFILTER_TOKEN_EXPIRY"); err != nil {
		return nil, err
	}
	if s := GetEnv("TIMEFILTER_HISTORY_MAX_POINTS", ""); s != "" {
		if cfg.History.MaxDataPoints, err = strconv.Atoi(s); err != nil {
			return nil, fmt.Errorf("invalid integer value: %s", s)
		}
	}
	if s := GetEnv("TIMEFILTER_RATE_LIMIT", ""); s != "" {
		if cfg.Security.RateLimit, err = strconv.ParseFloat(s, 64); err != nil {
			return nil, fmt.Errorf("invalid number value: %s", s)
		}
	}
	if s := GetEnv("TIMEFILTER_RATE_BURST", ""); s != "" {
		if cfg.Security.RateBurst, err = strconv.Atoi(s); err != nil {
			return nil, fmt.Errorf("invalid integer value: %s", s)
		}
	}
	return cfg, nil
}

func envDuration(key string) (time.Duration, error) {
	s := GetEnv(key, "")
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration value: %s", s)
	}
	return d, nil
}

// merge merges this config with another config
// if another config has empty values, then original values are not overwritten
func (cfg *Config) merge(config *Config) {
	if config == nil {
		return
	}
	mergeString(&cfg.Listen, config.Listen)
	mergeString(&cfg.LogLevel, config.LogLevel)
	mergeString(&cfg.Timezone, config.Timezone)
	mergeString(&cfg.History.DiskPath, config.History.DiskPath)
	mergeString(&cfg.Auth.SecretKey, config.Auth.SecretKey)
	mergeString(&cfg.Storage.Driver, config.Storage.Driver)
	mergeString(&cfg.Storage.Path, config.Storage.Path)
	mergeString(&cfg.Storage.DSN, config.Storage.DSN)
	mergeString(&cfg.Events.NatsURL, config.Events.NatsURL)

	if config.History.Interval != 0 {
		cfg.History.Interval = config.History.Interval
	}
	if config.History.MaxDataPoints != 0 {
		cfg.History.MaxDataPoints = config.History.MaxDataPoints
	}
	if config.Auth.TokenExpiry != 0 {
		cfg.Auth.TokenExpiry = config.Auth.TokenExpiry
	}
	if len(config.Security.AllowedOrigins) != 0 {
		cfg.Security.AllowedOrigins = config.Security.AllowedOrigins
	}
	if config.Security.RateLimit != 0 {
		cfg.Security.RateLimit = config.Security.RateLimit
	}
	if config.Security.RateBurst != 0 {
		cfg.Security.RateBurst = config.Security.RateBurst
	}
}

func mergeString(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

func (cfg *Config) validate() error {
	var errs []error
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	switch cfg.Storage.Driver {
	case StorageFile:
		if cfg.Storage.Path == "" {
			errs = append(errs, errors.New("storage.path is required for the file driver"))
		}
	case StoragePostgres:
		if cfg.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver: unknown driver %q", cfg.Storage.Driver))
	}
	if cfg.History.Interval <= 0 {
		errs = append(errs, errors.New("history.interval must be positive"))
	}
	if cfg.History.MaxDataPoints <= 0 {
		errs = append(errs, errors.New("history.maxDataPoints must be positive"))
	}
	if cfg.Security.RateLimit <= 0 || cfg.Security.RateBurst <= 0 {
		errs = append(errs, errors.New("security.rateLimit and security.rateBurst must be positive"))
	}
	return errors.Join(errs...)
}

// Location returns the configured time zone; Load has already validated it
func (cfg *Config) Location() *time.Location {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func GetEnv(key, defaultValue string) string {
	if val, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(val)
	}
	return defaultValue
}
