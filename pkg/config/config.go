package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-matter-elements/components/elements"
)

// Sample credentials shipped with the demo. Replace them for real deployments.
const (
	DefaultAPIKey        = "mk_matter_sample"
	DefaultAddr          = ":8080"
	DefaultWidgetOrigin  = "https://elements.thisismatter.com"
	DefaultContainerName = "element-container"
	DefaultPublicURL     = "http://localhost:8080"
)

// Config holds application configuration.
type Config struct {
	Matter    MatterConfig    `yaml:"matter"`
	Server    ServerConfig    `yaml:"server"`
	Widget    WidgetConfig    `yaml:"widget"`
	Portfolio PortfolioConfig `yaml:"portfolio"`
	Preview   PreviewConfig   `yaml:"preview"`
	Refresh   RefreshConfig   `yaml:"refresh"`
	Log       LogConfig       `yaml:"log"`
}

// MatterConfig points at the Matter API.
type MatterConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ServerConfig configures the HTTP host.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	PublicURL      string   `yaml:"public_url"`
	StylesheetPath string   `yaml:"stylesheet_path"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	ContainerName  string   `yaml:"container_name"`
}

// WidgetConfig configures the hosted element.
type WidgetConfig struct {
	Impact    string                  `yaml:"impact"`
	ScriptURL string                  `yaml:"script_url"`
	Options   *elements.WidgetOptions `yaml:"options"`
}

// PortfolioConfig selects the portfolio source. An empty file means the
// built-in sample portfolio.
type PortfolioConfig struct {
	File string `yaml:"file"`
}

// PreviewConfig configures the portfolio preview chart.
type PreviewConfig struct {
	Enabled  bool          `yaml:"enabled"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
	Theme    string        `yaml:"theme"`
}

// RefreshConfig enables background token refresh.
type RefreshConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
	Leeway   time.Duration `yaml:"leeway"`
}

// LogConfig mirrors logger.Config.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Matter: MatterConfig{
			APIKey:  DefaultAPIKey,
			Timeout: 10 * time.Second,
		},
		Server: ServerConfig{
			Addr:           DefaultAddr,
			PublicURL:      DefaultPublicURL,
			AllowedOrigins: []string{DefaultWidgetOrigin},
			ContainerName:  DefaultContainerName,
		},
		Widget: WidgetConfig{
			Impact:    string(elements.ImpactCO2),
			ScriptURL: elements.DefaultScriptURL,
		},
		Preview: PreviewConfig{
			Enabled:  true,
			CacheTTL: 5 * time.Minute,
		},
		Refresh: RefreshConfig{
			Interval: time.Minute,
			Leeway:   2 * time.Minute,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads the YAML file at path (optional), then .env and the process
// environment, and validates the result.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("config: open %s: %w", path, err)
		}
		err = decode(f, cfg)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Matter.APIKey = getEnv("MATTER_API_KEY", c.Matter.APIKey)
	c.Matter.BaseURL = getEnv("MATTER_BASE_URL", c.Matter.BaseURL)
	c.Server.Addr = getEnv("ELEMENTS_ADDR", c.Server.Addr)
	c.Server.PublicURL = getEnv("ELEMENTS_PUBLIC_URL", c.Server.PublicURL)
	c.Widget.Impact = getEnv("ELEMENTS_IMPACT", c.Widget.Impact)
	c.Portfolio.File = getEnv("ELEMENTS_PORTFOLIO_FILE", c.Portfolio.File)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Pretty = getEnvAsBool("LOG_PRETTY", c.Log.Pretty)
	c.Refresh.Enabled = getEnvAsBool("ELEMENTS_TOKEN_REFRESH", c.Refresh.Enabled)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Matter.APIKey) == "" {
		return fmt.Errorf("config: MATTER_API_KEY is required")
	}
	if c.Matter.Timeout <= 0 {
		return fmt.Errorf("config: matter.timeout must be positive")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("config: server.addr is required")
	}
	if c.Server.PublicURL != "" && !strings.HasPrefix(c.Server.PublicURL, "http://") && !strings.HasPrefix(c.Server.PublicURL, "https://") {
		return fmt.Errorf("config: server.public_url %q must be an http(s) URL", c.Server.PublicURL)
	}
	for _, origin := range c.Server.AllowedOrigins {
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("config: allowed origin %q must be an http(s) origin", origin)
		}
	}
	if _, err := elements.ParseImpactType(c.Widget.Impact); err != nil {
		return fmt.Errorf("config: widget.impact: %w", err)
	}
	if err := elements.ValidateOptions(c.Widget.Options); err != nil {
		return fmt.Errorf("config: widget.options: %w", err)
	}
	if c.Refresh.Enabled && (c.Refresh.Interval <= 0 || c.Refresh.Leeway <= 0) {
		return fmt.Errorf("config: refresh interval and leeway must be positive")
	}
	return nil
}

// Impact returns the parsed impact type. Call after Validate.
func (c *Config) Impact() elements.ImpactType {
	impact, _ := elements.ParseImpactType(c.Widget.Impact)
	return impact
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
