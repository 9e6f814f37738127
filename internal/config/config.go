package config

import (
	"errors"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the stockdesk client.
type Config struct {
	Backend Backend `yaml:"backend"`
	UI      UI      `yaml:"ui"`
	Logging Logging `yaml:"logging"`
}

// Backend locates the HTTP/WebSocket API the panels talk to.
type Backend struct {
	BaseURL string        `yaml:"base_url"`
	WSURL   string        `yaml:"ws_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// UI holds view timings and presentation settings.
type UI struct {
	Currency     string        `yaml:"currency"`
	Debounce     time.Duration `yaml:"debounce"`
	NewsInterval time.Duration `yaml:"news_interval"`
	ChartPoints  int           `yaml:"chart_points"`
	ExportDir    string        `yaml:"export_dir"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Backend: Backend{
			BaseURL: "http://localhost:8080",
			Timeout: 30 * time.Second,
		},
		UI: UI{
			Currency:     "₹",
			Debounce:     500 * time.Millisecond,
			NewsInterval: 300 * time.Second,
			ChartPoints:  20,
			ExportDir:    ".",
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path on top of the
// defaults and then applies environment variable overrides. An empty path or
// a missing file leaves the defaults in place.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		}
	}

	applyEnvOverrides(cfg)

	if cfg.Backend.WSURL == "" {
		cfg.Backend.WSURL = DeriveWSURL(cfg.Backend.BaseURL)
	}
	if cfg.UI.ChartPoints <= 0 {
		cfg.UI.ChartPoints = 20
	}

	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from a .env file into the process
// environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// DeriveWSURL maps an http(s) base URL to the matching ws(s) URL.
func DeriveWSURL(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return strings.TrimRight(u.String(), "/")
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STOCKDESK_BASE_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("STOCKDESK_WS_URL"); v != "" {
		cfg.Backend.WSURL = v
	}
	if v := os.Getenv("STOCKDESK_CURRENCY"); v != "" {
		cfg.UI.Currency = v
	}
	if v := os.Getenv("STOCKDESK_EXPORT_DIR"); v != "" {
		cfg.UI.ExportDir = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("STOCKDESK_LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}
}
