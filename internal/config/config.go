package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP    HTTPConfig
	Storage StorageConfig
	Session SessionConfig
	Logging LoggingConfig
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host               string
	Port               int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	ShutdownTimeout    time.Duration
	AllowedOriginsCSV  string
	LoginRatePerMinute int
}

// StorageConfig selects and locates the snapshot store backend.
type StorageConfig struct {
	Backend string // file|bolt|memory
	Path    string
}

// SessionConfig controls login session lifetime.
type SessionConfig struct {
	TTL time.Duration
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	File          string // when set, logs rotate in this file instead of stdout
	MaxSizeMB     int
	MaxAgeDays    int
	IncludeCaller bool
}

const (
	defaultHost            = "0.0.0.0"
	defaultPort            = 8080
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 15 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultStorageBackend  = "file"
	defaultStoragePath     = "data/accounts.json"
	defaultSessionTTL      = 15 * time.Minute
	defaultLoggingLevel    = "info"
	defaultLoggingFormat   = "text"
	defaultLogMaxSizeMB    = 50
	defaultLogMaxAgeDays   = 14
	defaultLoginRatePerMin = 10
)

// fileConfig mirrors Config for the optional YAML file named by
// ATMCORE_CONFIG. Durations are strings parsed with time.ParseDuration.
type fileConfig struct {
	HTTP struct {
		Host            string `yaml:"host"`
		Port            int    `yaml:"port"`
		ReadTimeout     string `yaml:"read_timeout"`
		WriteTimeout    string `yaml:"write_timeout"`
		IdleTimeout     string `yaml:"idle_timeout"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
		AllowedOrigins  string `yaml:"allowed_origins"`
		LoginRateLimit  int    `yaml:"login_rate_limit"`
	} `yaml:"http"`
	Storage struct {
		Backend string `yaml:"backend"`
		Path    string `yaml:"path"`
	} `yaml:"storage"`
	Session struct {
		TTL string `yaml:"ttl"`
	} `yaml:"session"`
	Logging struct {
		Level         string `yaml:"level"`
		Format        string `yaml:"format"`
		File          string `yaml:"file"`
		MaxSizeMB     int    `yaml:"max_size_mb"`
		MaxAgeDays    int    `yaml:"max_age_days"`
		IncludeCaller bool   `yaml:"include_caller"`
	} `yaml:"logging"`
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment variables, in that order; env wins.
func Load() (Config, error) {
	cfg := Config{
		HTTP: HTTPConfig{
			Host:               defaultHost,
			Port:               defaultPort,
			ReadTimeout:        defaultReadTimeout,
			WriteTimeout:       defaultWriteTimeout,
			IdleTimeout:        defaultIdleTimeout,
			ShutdownTimeout:    defaultShutdownTimeout,
			LoginRatePerMinute: defaultLoginRatePerMin,
		},
		Storage: StorageConfig{
			Backend: defaultStorageBackend,
			Path:    defaultStoragePath,
		},
		Session: SessionConfig{TTL: defaultSessionTTL},
		Logging: LoggingConfig{
			Level:      defaultLoggingLevel,
			Format:     defaultLoggingFormat,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
	}

	if path := os.Getenv("ATMCORE_CONFIG"); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.HTTP.Host != "" {
		cfg.HTTP.Host = fc.HTTP.Host
	}
	if fc.HTTP.Port != 0 {
		cfg.HTTP.Port = fc.HTTP.Port
	}
	if fc.HTTP.AllowedOrigins != "" {
		cfg.HTTP.AllowedOriginsCSV = fc.HTTP.AllowedOrigins
	}
	if fc.HTTP.LoginRateLimit != 0 {
		cfg.HTTP.LoginRatePerMinute = fc.HTTP.LoginRateLimit
	}

	durations := []struct {
		raw  string
		name string
		dst  *time.Duration
	}{
		{fc.HTTP.ReadTimeout, "http.read_timeout", &cfg.HTTP.ReadTimeout},
		{fc.HTTP.WriteTimeout, "http.write_timeout", &cfg.HTTP.WriteTimeout},
		{fc.HTTP.IdleTimeout, "http.idle_timeout", &cfg.HTTP.IdleTimeout},
		{fc.HTTP.ShutdownTimeout, "http.shutdown_timeout", &cfg.HTTP.ShutdownTimeout},
		{fc.Session.TTL, "session.ttl", &cfg.Session.TTL},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("invalid %s in config file: %w", d.name, err)
		}
		*d.dst = parsed
	}

	if fc.Storage.Backend != "" {
		cfg.Storage.Backend = fc.Storage.Backend
	}
	if fc.Storage.Path != "" {
		cfg.Storage.Path = fc.Storage.Path
	}
	if fc.Logging.Level != "" {
		cfg.Logging.Level = fc.Logging.Level
	}
	if fc.Logging.Format != "" {
		cfg.Logging.Format = fc.Logging.Format
	}
	if fc.Logging.File != "" {
		cfg.Logging.File = fc.Logging.File
	}
	if fc.Logging.MaxSizeMB != 0 {
		cfg.Logging.MaxSizeMB = fc.Logging.MaxSizeMB
	}
	if fc.Logging.MaxAgeDays != 0 {
		cfg.Logging.MaxAgeDays = fc.Logging.MaxAgeDays
	}
	if fc.Logging.IncludeCaller {
		cfg.Logging.IncludeCaller = true
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.HTTP.Host = valueOrDefault("SERVER_HOST", cfg.HTTP.Host)
	cfg.HTTP.AllowedOriginsCSV = valueOrDefault("SERVER_ALLOWED_ORIGINS", cfg.HTTP.AllowedOriginsCSV)
	cfg.HTTP.LoginRatePerMinute = parseIntWithDefault("LOGIN_RATE_LIMIT", cfg.HTTP.LoginRatePerMinute)

	port, err := parsePort("SERVER_PORT", cfg.HTTP.Port)
	if err != nil {
		return err
	}
	cfg.HTTP.Port = port

	durations := []struct {
		env string
		dst *time.Duration
	}{
		{"SERVER_READ_TIMEOUT", &cfg.HTTP.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout},
		{"SERVER_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", &cfg.HTTP.ShutdownTimeout},
		{"SESSION_TTL", &cfg.Session.TTL},
	}
	for _, d := range durations {
		v := os.Getenv(d.env)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.env, err)
		}
		*d.dst = parsed
	}

	cfg.Storage.Backend = valueOrDefault("STORAGE_BACKEND", cfg.Storage.Backend)
	cfg.Storage.Path = valueOrDefault("STORAGE_PATH", cfg.Storage.Path)

	cfg.Logging.Level = valueOrDefault("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = valueOrDefault("LOG_FORMAT", cfg.Logging.Format)
	cfg.Logging.File = valueOrDefault("LOG_FILE", cfg.Logging.File)
	cfg.Logging.MaxSizeMB = parseIntWithDefault("LOG_MAX_SIZE_MB", cfg.Logging.MaxSizeMB)
	cfg.Logging.MaxAgeDays = parseIntWithDefault("LOG_MAX_AGE_DAYS", cfg.Logging.MaxAgeDays)
	cfg.Logging.IncludeCaller = parseBoolWithDefault("LOG_INCLUDE_CALLER", cfg.Logging.IncludeCaller)
	return nil
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}
