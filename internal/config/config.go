package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/marcin-skalski/prinbox/internal/bitbucket"
)

type Config struct {
	StateFile    string        `yaml:"state_file"`
	LogFile      string        `yaml:"log_file"`
	PollInterval time.Duration `yaml:"-"`
	RawInterval  string        `yaml:"poll_interval"`
	Log          LogConfig     `yaml:"log"`
	API          APIConfig     `yaml:"api"`
	Output       OutputConfig  `yaml:"output"`
	TUI          TUIConfig     `yaml:"tui"`
}

type LogConfig struct {
	Level        string `yaml:"level"`
	ConsoleLevel string `yaml:"console_level"`
}

type APIConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"-"`
	RawTimeout string        `yaml:"timeout"`
	// RateLimit is requests per second. Unset or 0 means 5; negative disables limiting.
	RateLimit  float64       `yaml:"rate_limit"`
	MaxPages   int           `yaml:"max_pages"`
}

type OutputConfig struct {
	Format string `yaml:"format"`
}

type TUIConfig struct {
	RefreshInterval time.Duration `yaml:"-"`
	RawInterval     string        `yaml:"refresh_interval"`
}

// DefaultPath is $XDG_CONFIG_HOME/prinbox/config.yaml, or the platform equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "prinbox", "config.yaml")
}

// Load reads the settings file at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.setDefaults(); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) setDefaults() error {
	home, _ := os.UserHomeDir()

	if c.StateFile == "" {
		c.StateFile = filepath.Join(home, ".prinbox.json")
	}
	c.StateFile = expandHome(c.StateFile, home)

	if c.LogFile == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			dir = os.TempDir()
		}
		c.LogFile = filepath.Join(dir, "prinbox", "prinbox.log")
	}
	c.LogFile = expandHome(c.LogFile, home)

	if c.RawInterval == "" {
		c.RawInterval = "5m"
	}
	d, err := time.ParseDuration(c.RawInterval)
	if err != nil {
		return fmt.Errorf("parse poll_interval %q: %w", c.RawInterval, err)
	}
	c.PollInterval = d

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.ConsoleLevel == "" {
		c.Log.ConsoleLevel = "warn"
	}

	if c.API.BaseURL == "" {
		c.API.BaseURL = bitbucket.DefaultBaseURL
	}
	if c.API.RawTimeout == "" {
		c.API.RawTimeout = "30s"
	}
	timeout, err := time.ParseDuration(c.API.RawTimeout)
	if err != nil {
		return fmt.Errorf("parse api.timeout %q: %w", c.API.RawTimeout, err)
	}
	c.API.Timeout = timeout
	if c.API.RateLimit == 0 {
		c.API.RateLimit = 5
	}
	if c.API.MaxPages == 0 {
		c.API.MaxPages = 1
	}

	if c.Output.Format == "" {
		c.Output.Format = "plain"
	}

	if c.TUI.RawInterval == "" {
		c.TUI.RawInterval = "3s"
	}
	tuiInterval, err := time.ParseDuration(c.TUI.RawInterval)
	if err != nil {
		return fmt.Errorf("parse tui.refresh_interval %q: %w", c.TUI.RawInterval, err)
	}
	c.TUI.RefreshInterval = tuiInterval

	return nil
}

func (c *Config) validate() error {
	if c.PollInterval < time.Minute {
		return fmt.Errorf("poll_interval must be at least 1m, got %s", c.RawInterval)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %s", c.API.RawTimeout)
	}
	if c.API.MaxPages < 1 {
		return fmt.Errorf("api.max_pages must be at least 1, got %d", c.API.MaxPages)
	}
	if c.TUI.RefreshInterval <= 0 {
		return fmt.Errorf("tui.refresh_interval must be positive, got %s", c.TUI.RawInterval)
	}
	for key, lvl := range map[string]string{"log.level": c.Log.Level, "log.console_level": c.Log.ConsoleLevel} {
		switch lvl {
		case "debug", "info", "warn", "error":
		default:
			return fmt.Errorf("invalid %s %q (debug|info|warn|error)", key, lvl)
		}
	}
	switch c.Output.Format {
	case "plain", "table", "json":
	default:
		return fmt.Errorf("invalid output.format %q (plain|table|json)", c.Output.Format)
	}
	return nil
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
