package config

const DefaultServerAddr = ":8080"

// ServerConfig configures the diagnostics and chat HTTP server.
type ServerConfig struct {
	Addr      string          `yaml:"addr" split_words:"true"`
	JWTSecret string          `yaml:"jwt_secret" split_words:"true"`
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

func (c *ServerConfig) applyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultServerAddr
	}
	if c.JWTSecret == "" {
		c.JWTSecret = GetEnvOrDefault("JWT_SECRET", "")
	}
	c.RateLimit.applyDefaults()
}

// Require reports what is missing to serve authenticated requests.
func (c ServerConfig) Require() error {
	var errs []string
	if len(c.JWTSecret) < 32 {
		errs = append(errs, "server.jwt_secret must be at least 32 bytes")
	}
	return joinErrors("server", errs)
}
