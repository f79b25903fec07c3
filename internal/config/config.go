package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures everything mlconsole reads from its config file.
type Config struct {
	MasterURL            string
	PollInterval         time.Duration
	SettingsPollInterval time.Duration
	RequestTimeout       time.Duration
	MetricsAddr          string
	SentryDSN            string
	Log                  LogConfig
}

// LogConfig controls the zerolog logger.
type LogConfig struct {
	Level  string
	Format string
	File   string
	Loki   LokiConfig
}

// LokiConfig enables shipping logs to a Loki push endpoint.
type LokiConfig struct {
	Enabled bool
	URL     string
	Labels  map[string]string
}

const (
	defaultConfigPath           = "~/.config/mlconsole/config.toml"
	defaultMasterURL            = "http://127.0.0.1:8080"
	defaultPollInterval         = 10 * time.Second
	defaultSettingsPollInterval = 60 * time.Second
	defaultRequestTimeout       = 10 * time.Second
	defaultLogLevel             = "info"
	defaultLogFormat            = "json"
	defaultLogFile              = "~/.local/state/mlconsole/mlconsole.log"
)

type rawConfig struct {
	MasterURL            string `toml:"master_url"`
	PollInterval         string `toml:"poll_interval"`
	SettingsPollInterval string `toml:"settings_poll_interval"`
	RequestTimeout       string `toml:"request_timeout"`
	MetricsAddr          string `toml:"metrics_addr"`
	SentryDSN            string `toml:"sentry_dsn"`
	Log                  struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
		File   string `toml:"file"`
		Loki   struct {
			Enabled bool              `toml:"enabled"`
			URL     string            `toml:"url"`
			Labels  map[string]string `toml:"labels"`
		} `toml:"loki"`
	} `toml:"log"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		MasterURL:            defaultMasterURL,
		PollInterval:         defaultPollInterval,
		SettingsPollInterval: defaultSettingsPollInterval,
		RequestTimeout:       defaultRequestTimeout,
		Log: LogConfig{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
			File:   mustExpand(defaultLogFile),
		},
	}
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.MasterURL); v != "" {
		cfg.MasterURL = v
	}
	if cfg.PollInterval, err = parseDuration("poll_interval", raw.PollInterval, defaultPollInterval); err != nil {
		return Config{}, err
	}
	if cfg.SettingsPollInterval, err = parseDuration("settings_poll_interval", raw.SettingsPollInterval, defaultSettingsPollInterval); err != nil {
		return Config{}, err
	}
	if cfg.RequestTimeout, err = parseDuration("request_timeout", raw.RequestTimeout, defaultRequestTimeout); err != nil {
		return Config{}, err
	}
	cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	cfg.SentryDSN = strings.TrimSpace(raw.SentryDSN)

	if v := strings.ToLower(strings.TrimSpace(raw.Log.Level)); v != "" {
		cfg.Log.Level = v
	}
	if v := strings.ToLower(strings.TrimSpace(raw.Log.Format)); v != "" {
		if v != "json" && v != "text" {
			return Config{}, fmt.Errorf("parse config: log.format %q must be json or text", v)
		}
		cfg.Log.Format = v
	}
	if v := strings.TrimSpace(raw.Log.File); v != "" {
		cfg.Log.File = mustExpand(v)
	}
	cfg.Log.Loki = LokiConfig{
		Enabled: raw.Log.Loki.Enabled,
		URL:     strings.TrimSpace(raw.Log.Loki.URL),
		Labels:  raw.Log.Loki.Labels,
	}

	return cfg, nil
}

// DefaultPath returns the expanded default config location.
func DefaultPath() string {
	return mustExpand(defaultConfigPath)
}

func parseDuration(name, value string, fallback time.Duration) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, fmt.Errorf("parse config: %s: %w", name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("parse config: %s must be positive", name)
	}
	return d, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
