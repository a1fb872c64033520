package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/workany/launcher/internal/logger"
	"github.com/workany/launcher/internal/sidecar"
)

// Well-known defaults. The port constant must match what the API sidecar
// binds to; it is used both for spawn configuration and for reaping.
const (
	DefaultPort    = 2620
	DefaultDevPort = 2026
	DefaultMode    = "production"
	DefaultStore   = "workany.db"

	DefaultGraceTimeout = 5 * time.Second
)

// Config is the top-level TOML structure for the launcher.
type Config struct {
	Port         int           `toml:"port" mapstructure:"port"`
	Mode         string        `toml:"mode" mapstructure:"mode"`
	Listen       string        `toml:"listen" mapstructure:"listen"` // control API addr; empty disables
	StoreDSN     string        `toml:"store" mapstructure:"store"`
	GraceTimeout time.Duration `toml:"grace_timeout" mapstructure:"grace_timeout"`
	DevMode      bool          `toml:"dev_mode" mapstructure:"dev_mode"`
	DevPort      int           `toml:"dev_port" mapstructure:"dev_port"`
	Sidecar      sidecar.Spec  `toml:"sidecar" mapstructure:"sidecar"`
	Log          logger.Config `toml:"log" mapstructure:"log"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Port:         DefaultPort,
		Mode:         DefaultMode,
		StoreDSN:     DefaultStore,
		GraceTimeout: DefaultGraceTimeout,
		DevPort:      DefaultDevPort,
		Sidecar: sidecar.Spec{
			Name:    "workany-api",
			Command: "workany-api",
		},
	}
}

// Load reads a TOML config file and merges it over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Sidecar.Name == "" {
		cfg.Sidecar.Name = "workany-api"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields the supervisor depends on.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.DevPort < 1 || c.DevPort > 65535 {
		return fmt.Errorf("dev_port %d out of range", c.DevPort)
	}
	if c.GraceTimeout <= 0 {
		return fmt.Errorf("grace_timeout must be positive, got %v", c.GraceTimeout)
	}
	if !c.DevMode && strings.TrimSpace(c.Sidecar.Command) == "" {
		return fmt.Errorf("sidecar.command is required outside dev mode")
	}
	return nil
}

// ServicePort is the port the service is expected to listen on: the fixed
// launcher port, or the developer-chosen port in dev mode.
func (c *Config) ServicePort() int {
	if c.DevMode {
		return c.DevPort
	}
	return c.Port
}
