package config

import "time"

type RateLimitConfig struct {
	Enabled bool          `yaml:"enabled" split_words:"true"`
	MaxHits int           `yaml:"max_hits" split_words:"true"`
	Window  time.Duration `yaml:"window" split_words:"true"`
}

func (c *RateLimitConfig) applyDefaults() {
	if c.MaxHits == 0 {
		c.MaxHits = 30
	}
	if c.Window == 0 {
		c.Window = time.Minute
	}
}
