package redis

import (
	"context"
	"strings"
	"time"

	"github.com/deepgram/courier/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Nil is returned by Get when the key does not exist.
const Nil = redis.Nil

type Service struct {
	client *redis.Client
	prefix string
}

// NewService connects to the configured Redis. It returns nil when Redis is
// not configured or does not answer a ping, so callers fall back to memory.
func NewService(cfg config.RedisConfig) *Service {
	if !cfg.Enabled() {
		log.Warn().Msg("Redis address not configured - service will be unavailable")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Error().
			Err(err).
			Str("addr", cfg.Addr).
			Msg("Failed to establish Redis connection")
		client.Close()
		return nil
	}

	return NewServiceWithClient(client, cfg.KeyPrefix)
}

// NewServiceWithClient wraps an existing client. Keys built with Key are
// namespaced under prefix.
func NewServiceWithClient(client *redis.Client, prefix string) *Service {
	return &Service{client: client, prefix: prefix}
}

// Key joins parts under the service prefix with ':'.
func (s *Service) Key(parts ...string) string {
	if s.prefix == "" {
		return strings.Join(parts, ":")
	}
	return s.prefix + ":" + strings.Join(parts, ":")
}

// Set stores a value in Redis with an optional expiration
func (s *Service) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := s.client.Set(ctx, key, value, expiration).Err(); err != nil {
		log.Error().
			Err(err).
			Str("key", key).
			Dur("expiration", expiration).
			Msg("Critical Redis SET operation failed")
		return err
	}
	return nil
}

// Get retrieves a value from Redis. A missing key yields Nil.
func (s *Service) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err != nil && err != redis.Nil {
		log.Error().
			Err(err).
			Str("key", key).
			Msg("Critical Redis GET operation failed")
		return "", err
	}
	return val, err
}

// Delete removes keys from Redis
func (s *Service) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

// PushCapped appends value to the list at key, keeps only its newest max
// entries and records member in the index set, all in one transaction.
func (s *Service) PushCapped(ctx context.Context, key, value string, max int64, index, member string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, value)
		pipe.LTrim(ctx, key, -max, -1)
		if index != "" {
			pipe.SAdd(ctx, index, member)
		}
		return nil
	})
	if err != nil {
		log.Error().
			Err(err).
			Str("key", key).
			Msg("Critical Redis RPUSH operation failed")
	}
	return err
}

// Range returns the list at key between start and stop inclusive.
func (s *Service) Range(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return s.client.LRange(ctx, key, start, stop).Result()
}

func (s *Service) AddMember(ctx context.Context, key, member string) error {
	return s.client.SAdd(ctx, key, member).Err()
}

func (s *Service) Members(ctx context.Context, key string) ([]string, error) {
	return s.client.SMembers(ctx, key).Result()
}

func (s *Service) RemoveMember(ctx context.Context, key, member string) error {
	return s.client.SRem(ctx, key, member).Err()
}

// Ping checks if Redis is accessible
func (s *Service) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *Service) Close() error {
	return s.client.Close()
}
