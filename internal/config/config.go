package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// SourceConfig selects and parameterizes the upstream data providers.
type SourceConfig struct {
	Default        string `yaml:"default"`
	UserAgent      string `yaml:"user_agent"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	CafeFURL       string `yaml:"cafef_url"`
	VNDURL         string `yaml:"vnd_url"`
	// AllowPartial keeps a multi-symbol load going when one symbol fails.
	// Off by default: the whole request fails fast on the first bad symbol.
	AllowPartial bool `yaml:"allow_partial"`
}

// FinanceConfig parameterizes fundamental ratio retrieval.
type FinanceConfig struct {
	RatiosURL string `yaml:"ratios_url"`
	// ItemNames translates provider item codes to output column names.
	ItemNames map[string]string `yaml:"item_names"`
}

// ChartConfig carries rendering defaults.
type ChartConfig struct {
	Theme  string `yaml:"theme"`
	Width  string `yaml:"width"`
	Height string `yaml:"height"`
}

// DatabaseConfig locates the optional quote history database.
type DatabaseConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

// WatchConfig drives the scheduled refresh mode.
type WatchConfig struct {
	Cron       string   `yaml:"cron"`
	WindowDays int      `yaml:"window_days"`
	StateFile  string   `yaml:"state_file"`
	OutputDir  string   `yaml:"output_dir"`
	Symbols    []string `yaml:"symbols"`
}

// LogConfig selects log level, encoding and the optional rotated file sink.
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	OutputFile string `yaml:"output_file"`
}

// Config holds all application configuration. It is loaded once at startup
// and passed explicitly; nothing mutates it afterwards.
type Config struct {
	Source   SourceConfig   `yaml:"source"`
	Finance  FinanceConfig  `yaml:"finance"`
	Chart    ChartConfig    `yaml:"chart"`
	Database DatabaseConfig `yaml:"database"`
	Watch    WatchConfig    `yaml:"watch"`
	Log      LogConfig      `yaml:"log"`
	Proxy    string         `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is fine; defaults apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("VNQUANT_SOURCE"); v != "" {
		cfg.Source.Default = v
	}
	if v := os.Getenv("VNQUANT_USER_AGENT"); v != "" {
		cfg.Source.UserAgent = v
	}
	if v := os.Getenv("VNQUANT_ALLOW_PARTIAL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Source.AllowPartial = b
		}
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("WATCH_CRON"); v != "" {
		cfg.Watch.Cron = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	// Defaults
	if cfg.Source.Default == "" {
		cfg.Source.Default = "cafef"
	}
	if cfg.Source.UserAgent == "" {
		cfg.Source.UserAgent = "Mozilla/5.0"
	}
	if cfg.Source.TimeoutSeconds == 0 {
		cfg.Source.TimeoutSeconds = 30
	}
	if cfg.Finance.ItemNames == nil {
		cfg.Finance.ItemNames = map[string]string{
			"51003": "roa",
			"53030": "roe",
			"53021": "eps",
			"54018": "book_value",
			"52001": "current_ratio",
		}
	}
	if cfg.Chart.Theme == "" {
		cfg.Chart.Theme = "white"
	}
	if cfg.Chart.Width == "" {
		cfg.Chart.Width = "1000px"
	}
	if cfg.Chart.Height == "" {
		cfg.Chart.Height = "460px"
	}
	if cfg.Watch.Cron == "" {
		// After the HOSE close, weekdays
		cfg.Watch.Cron = "0 30 15 * * 1-5"
	}
	if cfg.Watch.WindowDays == 0 {
		cfg.Watch.WindowDays = 90
	}
	if cfg.Watch.StateFile == "" {
		cfg.Watch.StateFile = "data/watchlist.json"
	}
	if cfg.Watch.OutputDir == "" {
		cfg.Watch.OutputDir = "charts"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Source.Default {
	case "cafef", "vnd", "mock":
	default:
		return fmt.Errorf("source.default must be cafef, vnd or mock, got %q", c.Source.Default)
	}
	if c.Source.TimeoutSeconds <= 0 {
		return fmt.Errorf("source.timeout_seconds must be positive")
	}
	if c.Watch.WindowDays <= 0 {
		return fmt.Errorf("watch.window_days must be positive")
	}
	return nil
}
