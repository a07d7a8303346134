package responselog

import (
	"context"
	"sort"
	"time"

	"github.com/deepgram/courier/internal/infrastructure/redis"
	"github.com/deepgram/courier/pkg/logger"
)

const opTimeout = 2 * time.Second

// RedisLog keeps one capped list per category plus a set of known categories,
// so the buffer survives restarts and is shared between processes. Redis
// failures are logged and otherwise ignored.
type RedisLog struct {
	redis    *redis.Service
	capacity int64
}

func NewRedisLog(redisService *redis.Service, capacity int) *RedisLog {
	return &RedisLog{redis: redisService, capacity: int64(normalize(capacity))}
}

func (l *RedisLog) listKey(category string) string {
	return l.redis.Key("responses", category)
}

func (l *RedisLog) indexKey() string {
	return l.redis.Key("responses")
}

func (l *RedisLog) Append(category, payload string) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := l.redis.PushCapped(ctx, l.listKey(category), payload, l.capacity, l.indexKey(), category); err != nil {
		logger.Warn(logger.REDIS, "Failed to record %s response: %v", category, err)
	}
}

func (l *RedisLog) FetchAll(category string) []string {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	entries, err := l.redis.Range(ctx, l.listKey(category), 0, -1)
	if err != nil {
		logger.Warn(logger.REDIS, "Failed to read %s responses: %v", category, err)
		return []string{}
	}
	if entries == nil {
		entries = []string{}
	}
	return entries
}

func (l *RedisLog) FetchLatest(category string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	entries, err := l.redis.Range(ctx, l.listKey(category), -1, -1)
	if err != nil {
		logger.Warn(logger.REDIS, "Failed to read latest %s response: %v", category, err)
		return "", false
	}
	if len(entries) == 0 {
		return "", false
	}
	return entries[0], true
}

func (l *RedisLog) ClearCategory(category string) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := l.redis.Delete(ctx, l.listKey(category)); err != nil {
		logger.Warn(logger.REDIS, "Failed to clear %s responses: %v", category, err)
		return
	}
	if err := l.redis.RemoveMember(ctx, l.indexKey(), category); err != nil {
		logger.Warn(logger.REDIS, "Failed to unregister category %s: %v", category, err)
	}
}

func (l *RedisLog) ClearAll() {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	cats, err := l.redis.Members(ctx, l.indexKey())
	if err != nil {
		logger.Warn(logger.REDIS, "Failed to list response categories: %v", err)
		return
	}
	keys := make([]string, 0, len(cats)+1)
	for _, c := range cats {
		keys = append(keys, l.listKey(c))
	}
	keys = append(keys, l.indexKey())
	if err := l.redis.Delete(ctx, keys...); err != nil {
		logger.Warn(logger.REDIS, "Failed to clear responses: %v", err)
	}
}

func (l *RedisLog) Categories() []string {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	cats, err := l.redis.Members(ctx, l.indexKey())
	if err != nil {
		logger.Warn(logger.REDIS, "Failed to list response categories: %v", err)
		return []string{}
	}
	sort.Strings(cats)
	return cats
}
