// Package config loads courier configuration from YAML with environment overrides.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces every environment override, e.g. COURIER_OPENAI_API_KEY.
const EnvPrefix = "COURIER"

// Config is the top-level courier configuration.
type Config struct {
	OpenAI      OpenAIConfig      `yaml:"openai" envconfig:"OPENAI"`
	Poll        PollConfig        `yaml:"poll" envconfig:"POLL"`
	ResponseLog ResponseLogConfig `yaml:"response_log" envconfig:"RESPONSE_LOG"`
	Redis       RedisConfig       `yaml:"redis" envconfig:"REDIS"`
	Database    DatabaseConfig    `yaml:"database" envconfig:"DATABASE"`
	Mail        MailConfig        `yaml:"mail" envconfig:"MAIL"`
	Assistant   AssistantConfig   `yaml:"assistant" envconfig:"ASSISTANT"`
	Server      ServerConfig      `yaml:"server" envconfig:"SERVER"`
}

// Load reads a YAML config file from path and returns a validated Config.
// An empty path yields defaults plus environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		return Parse(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes, overlays the environment and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	c.OpenAI.applyDefaults()
	c.Poll.applyDefaults()
	c.ResponseLog.applyDefaults()
	c.Redis.applyDefaults()
	c.Database.applyDefaults()
	c.Mail.applyDefaults()
	c.Assistant.applyDefaults(c.OpenAI.Model)
	c.Server.applyDefaults()
}

// validate checks the settings every subcommand depends on.
func (c *Config) validate() error {
	var errs []string
	if c.OpenAI.APIKey == "" {
		errs = append(errs, "openai.api_key is required")
	}
	if c.OpenAI.MaxRetries < 0 {
		errs = append(errs, "openai.max_retries must not be negative")
	}
	if c.Poll.Interval <= 0 || c.Poll.Timeout <= 0 {
		errs = append(errs, "poll.interval and poll.timeout must be positive")
	}
	if c.Poll.Interval > c.Poll.Timeout {
		errs = append(errs, "poll.interval must not exceed poll.timeout")
	}
	if c.ResponseLog.Capacity < 1 {
		errs = append(errs, "response_log.capacity must be at least 1")
	}
	switch c.ResponseLog.Backend {
	case BackendMemory, BackendRedis:
	default:
		errs = append(errs, fmt.Sprintf("response_log.backend %q is not one of memory, redis", c.ResponseLog.Backend))
	}
	switch c.Database.Driver {
	case DriverMySQL, DriverSQLite:
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not one of mysql, sqlite", c.Database.Driver))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func joinErrors(section string, errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("config: %s incomplete: %s", section, strings.Join(errs, "; "))
}
