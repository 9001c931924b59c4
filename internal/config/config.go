// internal/config/config.go
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// BaseURLEnv overrides server.base_url when set
const BaseURLEnv = "MAGICAI_BASE_URL"

type ServerConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout int    `yaml:"timeout"` // seconds, 0 disables
}

type UIConfig struct {
	EnterSubmits *bool  `yaml:"enter_submits,omitempty"`
	Markdown     *bool  `yaml:"markdown,omitempty"`
	ExportDir    string `yaml:"export_dir,omitempty"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

type DevServerConfig struct {
	Addr             string  `yaml:"addr"`
	ModelName        string  `yaml:"model_name"`
	ModelVersion     string  `yaml:"model_version"`
	ModelDescription string  `yaml:"model_description"`
	RateLimit        float64 `yaml:"rate_limit"` // requests per second
	Burst            int     `yaml:"burst"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	UI        UIConfig        `yaml:"ui"`
	Logging   LoggingConfig   `yaml:"logging"`
	DevServer DevServerConfig `yaml:"devserver"`
}

// Load reads the config from the user config dir, falling back to defaults
// when no file exists.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config at path. A missing file yields defaults.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		cfg := defaultConfig()
		applyEnv(cfg)
		return cfg, nil
	}

	// Expand environment variables in config
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	applyEnv(&cfg)

	return &cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = "http://localhost:5000"
	}
	if cfg.UI.EnterSubmits == nil {
		cfg.UI.EnterSubmits = boolPtr(true)
	}
	if cfg.UI.Markdown == nil {
		cfg.UI.Markdown = boolPtr(true)
	}
	if cfg.UI.ExportDir == "" {
		cfg.UI.ExportDir = "."
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.DevServer.Addr == "" {
		cfg.DevServer.Addr = ":5000"
	}
	if cfg.DevServer.ModelName == "" {
		cfg.DevServer.ModelName = "Magic"
	}
	if cfg.DevServer.ModelVersion == "" {
		cfg.DevServer.ModelVersion = "1.0"
	}
	if cfg.DevServer.ModelDescription == "" {
		cfg.DevServer.ModelDescription = "Echo generator for local development"
	}
	if cfg.DevServer.RateLimit == 0 {
		cfg.DevServer.RateLimit = 5
	}
	if cfg.DevServer.Burst == 0 {
		cfg.DevServer.Burst = 10
	}
}

func applyEnv(cfg *Config) {
	if url := os.Getenv(BaseURLEnv); url != "" {
		cfg.Server.BaseURL = url
	}
}

// RequestTimeout returns the per-request timeout, zero meaning none.
func (c *Config) RequestTimeout() time.Duration {
	if c.Server.Timeout <= 0 {
		return 0
	}
	return time.Duration(c.Server.Timeout) * time.Second
}

func (c *Config) EnterSubmits() bool {
	return c.UI.EnterSubmits == nil || *c.UI.EnterSubmits
}

func (c *Config) Markdown() bool {
	return c.UI.Markdown == nil || *c.UI.Markdown
}

// LogFile returns the log destination for the TUI.
func (c *Config) LogFile() string {
	if c.Logging.File != "" {
		return c.Logging.File
	}
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.ExpandEnv("$HOME/.cache")
	}
	return filepath.Join(cacheDir, "magicai", "magicai.log")
}

func ConfigPath() string {
	configDir, _ := os.UserConfigDir()
	if configDir == "" {
		configDir = os.ExpandEnv("$HOME/.config")
	}
	return filepath.Join(configDir, "magicai", "config.yaml")
}

func boolPtr(b bool) *bool { return &b }
