package config

import "time"

const (
	DefaultBaseURL        = "https://api.openai.com/v1"
	DefaultModel          = "gpt-4o"
	DefaultRequestTimeout = 30 * time.Second
	DefaultPollInterval   = time.Second
	DefaultPollTimeout    = 60 * time.Second
)

// OpenAIConfig holds credentials and transport settings for the assistants API.
type OpenAIConfig struct {
	APIKey         string        `yaml:"api_key" split_words:"true"`
	BaseURL        string        `yaml:"base_url" split_words:"true"`
	Model          string        `yaml:"model" split_words:"true"`
	RequestTimeout time.Duration `yaml:"request_timeout" split_words:"true"`
	MaxRetries     int           `yaml:"max_retries" split_words:"true"`
	Debug          bool          `yaml:"debug" split_words:"true"`
}

// PollConfig controls how long a turn waits on a run.
type PollConfig struct {
	Interval        time.Duration `yaml:"interval" split_words:"true"`
	Timeout         time.Duration `yaml:"timeout" split_words:"true"`
	CancelOnTimeout bool          `yaml:"cancel_on_timeout" split_words:"true"`
}

func (c *OpenAIConfig) applyDefaults() {
	if c.APIKey == "" {
		c.APIKey = GetEnvOrDefault("OPENAI_API_KEY", "")
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
}

func (c *PollConfig) applyDefaults() {
	if c.Interval == 0 {
		c.Interval = DefaultPollInterval
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultPollTimeout
	}
}
