// Package responselog keeps the most recent raw service responses per
// operation category for diagnostics.
package responselog

import (
	"context"
	"sort"
	"sync"

	"github.com/deepgram/courier/internal/infrastructure/redis"
	"github.com/deepgram/courier/pkg/logger"
)

const DefaultCapacity = 100

// Log is a bounded FIFO buffer per category. Appending past capacity evicts
// the oldest entry of that category only.
type Log interface {
	Append(category, payload string)
	FetchAll(category string) []string
	FetchLatest(category string) (string, bool)
	ClearCategory(category string)
	ClearAll()
	Categories() []string
}

// New returns a Redis-backed log when redisService answers a ping and an
// in-memory log otherwise.
func New(redisService *redis.Service, capacity int) Log {
	if redisService != nil {
		if err := redisService.Ping(context.Background()); err != nil {
			logger.Warn(logger.REDIS, "Redis unavailable for response log, using memory: %v", err)
		} else {
			logger.Info(logger.REDIS, "Response log backed by Redis")
			return NewRedisLog(redisService, capacity)
		}
	}
	return NewMemoryLog(capacity)
}

func normalize(capacity int) int {
	if capacity < 1 {
		return DefaultCapacity
	}
	return capacity
}

type MemoryLog struct {
	mu       sync.RWMutex
	capacity int
	entries  map[string][]string
}

// NewMemoryLog creates an empty log. A capacity below 1 uses DefaultCapacity.
func NewMemoryLog(capacity int) *MemoryLog {
	return &MemoryLog{
		capacity: normalize(capacity),
		entries:  make(map[string][]string),
	}
}

func (l *MemoryLog) Append(category, payload string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	buf := append(l.entries[category], payload)
	if over := len(buf) - l.capacity; over > 0 {
		buf = append([]string(nil), buf[over:]...)
	}
	l.entries[category] = buf
}

func (l *MemoryLog) FetchAll(category string) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string{}, l.entries[category]...)
}

func (l *MemoryLog) FetchLatest(category string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	buf := l.entries[category]
	if len(buf) == 0 {
		return "", false
	}
	return buf[len(buf)-1], true
}

func (l *MemoryLog) ClearCategory(category string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, category)
}

func (l *MemoryLog) ClearAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make(map[string][]string)
}

func (l *MemoryLog) Categories() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	cats := make([]string, 0, len(l.entries))
	for c, buf := range l.entries {
		if len(buf) > 0 {
			cats = append(cats, c)
		}
	}
	sort.Strings(cats)
	return cats
}
