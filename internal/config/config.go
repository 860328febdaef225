package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/claude/coachplan/internal/plan"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Parser    ParserConfig    `yaml:"parser"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// ParserConfig tunes the plan extraction heuristics. Zero values keep the
// parser defaults.
type ParserConfig struct {
	MinTextLength   int              `yaml:"min_text_length"`
	MaxHeaderLength int              `yaml:"max_header_length"`
	MaxRunLength    int              `yaml:"max_run_length"`
	MaxInputBytes   int              `yaml:"max_input_bytes"`
	Proportions     plan.Proportions `yaml:"proportions"`
}

// Options converts the config section into parser options.
func (p ParserConfig) Options() plan.Options {
	return plan.Options{
		MinTextLength:   p.MinTextLength,
		MaxHeaderLength: p.MaxHeaderLength,
		MaxRunLength:    p.MaxRunLength,
		MaxInputBytes:   p.MaxInputBytes,
		Proportions:     p.Proportions,
	}
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix COACHPLAN_ and underscore-separated paths:
//
//	COACHPLAN_SERVER_HOST, COACHPLAN_SERVER_PORT,
//	COACHPLAN_DB_HOST, COACHPLAN_DB_PORT, COACHPLAN_DB_NAME,
//	COACHPLAN_DB_USER, COACHPLAN_DB_PASSWORD, COACHPLAN_DB_SSLMODE,
//	COACHPLAN_AUTH_API_KEY,
//	COACHPLAN_TAILSCALE_ENABLED, COACHPLAN_TAILSCALE_HOSTNAME, COACHPLAN_TAILSCALE_STATE_DIR,
//	COACHPLAN_PARSER_MIN_TEXT_LENGTH, COACHPLAN_PARSER_MAX_INPUT_BYTES
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setString("COACHPLAN_SERVER_HOST", &cfg.Server.Host)
	setInt("COACHPLAN_SERVER_PORT", &cfg.Server.Port)
	setString("COACHPLAN_DB_HOST", &cfg.Database.Host)
	setInt("COACHPLAN_DB_PORT", &cfg.Database.Port)
	setString("COACHPLAN_DB_NAME", &cfg.Database.Name)
	setString("COACHPLAN_DB_USER", &cfg.Database.User)
	setString("COACHPLAN_DB_PASSWORD", &cfg.Database.Password)
	setString("COACHPLAN_DB_SSLMODE", &cfg.Database.SSLMode)
	setString("COACHPLAN_AUTH_API_KEY", &cfg.Auth.APIKey)

	if v := os.Getenv("COACHPLAN_TAILSCALE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
	setString("COACHPLAN_TAILSCALE_HOSTNAME", &cfg.Tailscale.Hostname)
	setString("COACHPLAN_TAILSCALE_STATE_DIR", &cfg.Tailscale.StateDir)

	setInt("COACHPLAN_PARSER_MIN_TEXT_LENGTH", &cfg.Parser.MinTextLength)
	setInt("COACHPLAN_PARSER_MAX_INPUT_BYTES", &cfg.Parser.MaxInputBytes)
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	if c.Parser.MinTextLength < 0 || c.Parser.MaxHeaderLength < 0 || c.Parser.MaxRunLength < 0 || c.Parser.MaxInputBytes < 0 {
		return fmt.Errorf("parser thresholds must not be negative")
	}
	p := c.Parser.Proportions
	if p.WarmUp+p.Main+p.Aux > 1 {
		return fmt.Errorf("parser.proportions must sum to at most 1, got %.2f", p.WarmUp+p.Main+p.Aux)
	}
	return nil
}
