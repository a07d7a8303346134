package config

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"

	DefaultResponseLogCapacity = 100
)

// RedisConfig is optional; an empty Addr disables every Redis-backed feature.
type RedisConfig struct {
	Addr      string `yaml:"addr" split_words:"true"`
	Password  string `yaml:"password" split_words:"true"`
	DB        int    `yaml:"db" split_words:"true"`
	KeyPrefix string `yaml:"key_prefix" split_words:"true"`
}

// ResponseLogConfig sizes the per-category diagnostic buffer.
type ResponseLogConfig struct {
	Capacity int    `yaml:"capacity" split_words:"true"`
	Backend  string `yaml:"backend" split_words:"true"`
}

func (c *RedisConfig) applyDefaults() {
	if c.Addr == "" {
		c.Addr = GetEnvOrDefault("REDIS_URL", "")
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "courier"
	}
}

// Enabled reports whether a Redis address is configured.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

func (c *ResponseLogConfig) applyDefaults() {
	if c.Capacity == 0 {
		c.Capacity = DefaultResponseLogCapacity
	}
	if c.Backend == "" {
		c.Backend = BackendMemory
	}
}
