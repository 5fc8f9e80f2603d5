// Package config loads boardview settings. Layers, lowest first: built-in
// defaults, an optional TOML file, then BOARDVIEW_* environment variables.
// A .env file in the working directory is read before the environment layer.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override, e.g. BOARDVIEW_API_BASE_URL.
const EnvPrefix = "BOARDVIEW_"

// Config is the resolved application configuration.
type Config struct {
	API    APIConfig    `koanf:"api"`
	Web    WebConfig    `koanf:"web"`
	Status StatusConfig `koanf:"status"`
	Log    LogConfig    `koanf:"log"`
}

// APIConfig points the client at the backend.
type APIConfig struct {
	BaseURL string `koanf:"base_url"`
	// ImageBaseURL defaults to BaseURL + "/images" when empty.
	ImageBaseURL      string        `koanf:"image_base_url"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
}

// WebConfig is the browser front-end used for shareable links.
type WebConfig struct {
	BaseURL string `koanf:"base_url"`
}

// StatusConfig controls the index status poll.
type StatusConfig struct {
	Interval time.Duration `koanf:"interval"`
}

// LogConfig controls the human log and the JSONL event log.
type LogConfig struct {
	Level string `koanf:"level"`
	Dir   string `koanf:"dir"`
}

// defaults are the built-in values, keyed by koanf path.
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"api.base_url":            "http://localhost:8000",
		"api.image_base_url":      "",
		"api.timeout":             "30s",
		"api.requests_per_second": 10.0,
		"web.base_url":            "http://localhost:5173",
		"status.interval":         "30s",
		"log.level":               "info",
		"log.dir":                 filepath.Join(DataDir(), "logs"),
	}
}

// DataDir is ~/.boardview, or ./.boardview when the home directory is unknown.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".boardview"
	}
	return filepath.Join(home, ".boardview")
}

// DefaultPath is the config file read when no path is given.
func DefaultPath() string {
	return filepath.Join(DataDir(), "config.toml")
}

// Load resolves the configuration. An explicit path must exist; when path is
// empty the default file is used only if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
	} else if _, err := os.Stat(DefaultPath()); err == nil {
		if err := k.Load(file.Provider(DefaultPath()), toml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", DefaultPath(), err)
		}
	}

	// BOARDVIEW_API_BASE_URL -> api.base_url: the first underscore splits
	// the section from the key.
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.Replace(s, "_", ".", 1)
	}), nil); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	if cfg.API.ImageBaseURL == "" {
		cfg.API.ImageBaseURL = cfg.API.BaseURL + "/images"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// absoluteURL accepts empty strings and absolute http(s) URLs.
var absoluteURL = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return validation.NewError("validation_url", "must be an absolute http(s) URL")
	}
	return nil
})

// Validate checks the resolved values.
func (c *Config) Validate() error {
	return validation.Errors{
		"api.base_url":            validation.Validate(c.API.BaseURL, validation.Required, absoluteURL),
		"api.image_base_url":      validation.Validate(c.API.ImageBaseURL, absoluteURL),
		"api.timeout":             validation.Validate(c.API.Timeout, validation.Required, validation.Min(time.Second)),
		"api.requests_per_second": validation.Validate(c.API.RequestsPerSecond, validation.Min(0.0)),
		"web.base_url":            validation.Validate(c.Web.BaseURL, absoluteURL),
		"status.interval":         validation.Validate(c.Status.Interval, validation.Required, validation.Min(time.Second)),
		"log.level":               validation.Validate(c.Log.Level, validation.In("debug", "info", "warn", "error")),
	}.Filter()
}

// Sample is written by `bvctl config init`.
const Sample = `# boardview configuration

[api]
base_url = "http://localhost:8000"
# image_base_url = "http://localhost:8000/images"
timeout = "30s"
requests_per_second = 10

[web]
base_url = "http://localhost:5173"

[status]
interval = "30s"

[log]
level = "info"
`

// WriteSample creates a sample config at path, refusing to overwrite.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config: %s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	return os.WriteFile(path, []byte(Sample), 0644)
}

// EventLogPath is the JSONL event log written by the TUI.
func (c *Config) EventLogPath() string {
	return filepath.Join(c.Log.Dir, "boardview.events.jsonl")
}
