// Package config loads the AgriK dashboard server configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvAssistantAPIKey   = "AGRIK_ASSISTANT_API_KEY"
	EnvAssistantEndpoint = "AGRIK_ASSISTANT_ENDPOINT"
	EnvListen            = "AGRIK_LISTEN"
	EnvLogLevel          = "AGRIK_LOG_LEVEL"
	EnvMQTTBroker        = "AGRIK_MQTT_BROKER"
	EnvExchangeLogPath   = "AGRIK_EXCHANGE_LOG"
)

// DefaultSearchPaths returns the config file search order: ./agrik.yaml,
// ~/.config/agrik/agrik.yaml, /etc/agrik/agrik.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"agrik.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "agrik", "agrik.yaml"))
	}
	return append(paths, "/etc/agrik/agrik.yaml")
}

// FindConfig locates a config file. An explicit path must exist; otherwise the first
// existing search path wins and "" is returned when none exists.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}
	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", nil
}

// Config holds all server configuration.
type Config struct {
	Listen      string            `yaml:"listen"`
	BasePath    string            `yaml:"base_path"`
	LogLevel    string            `yaml:"log_level"`
	LogFormat   string            `yaml:"log_format"`
	Assistant   AssistantConfig   `yaml:"assistant"`
	Dashboard   DashboardConfig   `yaml:"dashboard"`
	Map         MapConfig         `yaml:"map"`
	Charts      ChartsConfig      `yaml:"charts"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
	ExchangeLog ExchangeLogConfig `yaml:"exchange_log"`
}

// AssistantConfig describes the remote assistant endpoint. APIKey stays server-side.
type AssistantConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	APIKey       string        `yaml:"api_key"`
	APIKeyHeader string        `yaml:"api_key_header"`
	Timeout      time.Duration `yaml:"timeout"`
	// Mock answers from a built-in table instead of calling Endpoint.
	Mock bool `yaml:"mock"`
}

// DashboardConfig tunes session handling and prompt validation.
type DashboardConfig struct {
	SessionTTL      time.Duration `yaml:"session_ttl"`
	SweepInterval   time.Duration `yaml:"sweep_interval"`
	MaxPromptLength int           `yaml:"max_prompt_length"`
	// FieldFile is a field manifest replacing the built-in demo sensors.
	FieldFile string `yaml:"field_file"`
	// TemplatesDir overrides the embedded page templates.
	TemplatesDir string `yaml:"templates_dir"`
}

// MapConfig configures the map widget.
type MapConfig struct {
	TileURL         string  `yaml:"tile_url"`
	TileAttribution string  `yaml:"tile_attribution"`
	CenterLat       float64 `yaml:"center_lat"`
	CenterLng       float64 `yaml:"center_lng"`
	Zoom            int     `yaml:"zoom"`
}

// ChartsConfig configures chart rendering.
type ChartsConfig struct {
	AssetsHost   string        `yaml:"assets_host"`
	Height       string        `yaml:"height"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	CacheEntries int           `yaml:"cache_entries"`
}

// MQTTConfig enables the live sensor feed when Broker is set.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
	Window   int    `yaml:"window"`
	// Alert thresholds; nil keeps the feed defaults (35°C, 20%).
	MaxTemperature *float64 `yaml:"max_temperature"`
	MinHumidity    *float64 `yaml:"min_humidity"`
}

// ExchangeLogConfig enables the SQLite exchange log when Path is set.
type ExchangeLogConfig struct {
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		Listen:    ":8080",
		BasePath:  "/agrik",
		LogLevel:  "info",
		LogFormat: "text",
		Assistant: AssistantConfig{
			APIKeyHeader: "x-api-key",
			Timeout:      15 * time.Second,
		},
		Dashboard: DashboardConfig{
			SessionTTL:      2 * time.Hour,
			SweepInterval:   5 * time.Minute,
			MaxPromptLength: 2000,
		},
		Map: MapConfig{
			TileURL:         "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
			TileAttribution: "&copy; OpenStreetMap contributors",
			CenterLat:       3.848,
			CenterLng:       11.502,
			Zoom:            13,
		},
		Charts: ChartsConfig{
			Height:       "220px",
			CacheTTL:     5 * time.Minute,
			CacheEntries: 64,
		},
		MQTT: MQTTConfig{
			Topic:  "agrik/sensors/+",
			Window: 24,
		},
	}
}

// Load reads configuration from a YAML file on top of Default, expanding ${VAR}
// references and applying environment overrides, then overrides (e.g. CLI flags).
// An empty path yields defaults plus overrides.
func Load(path string, overrides ...func(*Config)) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	for _, override := range overrides {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	set := func(key string, target *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*target = strings.TrimSpace(v)
		}
	}
	set(EnvAssistantAPIKey, &c.Assistant.APIKey)
	set(EnvAssistantEndpoint, &c.Assistant.Endpoint)
	set(EnvListen, &c.Listen)
	set(EnvLogLevel, &c.LogLevel)
	set(EnvMQTTBroker, &c.MQTT.Broker)
	set(EnvExchangeLogPath, &c.ExchangeLog.Path)
	if v, ok := lookup("AGRIK_ASSISTANT_MOCK"); ok && v != "" {
		mock, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("AGRIK_ASSISTANT_MOCK: %w", err)
		}
		c.Assistant.Mock = mock
	}
	return nil
}

// Validate reports configuration errors that would prevent serving.
func (c *Config) Validate() error {
	var errs []error
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if !c.Assistant.Mock && c.Assistant.Endpoint == "" {
		errs = append(errs, errors.New("assistant.endpoint is required unless assistant.mock is set"))
	}
	if c.Dashboard.MaxPromptLength < 0 {
		errs = append(errs, errors.New("dashboard.max_prompt_length must not be negative"))
	}
	if c.BasePath != "" && !strings.HasPrefix(c.BasePath, "/") {
		errs = append(errs, fmt.Errorf("base_path %q must start with /", c.BasePath))
	}
	return errors.Join(errs...)
}

// Redacted returns a copy safe to print: the API key is masked.
func (c *Config) Redacted() Config {
	out := *c
	if out.Assistant.APIKey != "" {
		out.Assistant.APIKey = "********"
	}
	return out
}
