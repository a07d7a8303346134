// Package assistant creates and removes the assistant that answers a batch of
// turns, together with its knowledge file and vector store.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/deepgram/courier/internal/config"
	"github.com/deepgram/courier/internal/infrastructure/openai"
	"github.com/deepgram/courier/internal/infrastructure/redis"
	"github.com/deepgram/courier/pkg/logger"
)

const (
	toolFileSearch = "file_search"

	// DefaultLeaseTTL is how long a session outlives its owner's last refresh
	// before Recover treats it as abandoned.
	DefaultLeaseTTL = 2 * time.Minute
)

// Engine is the subset of the assistants client the manager drives.
type Engine interface {
	CreateAssistant(ctx context.Context, req openai.CreateAssistantRequest) (string, error)
	ModifyAssistant(ctx context.Context, assistantID string, req openai.ModifyAssistantRequest) error
	UploadFilePath(ctx context.Context, path, purpose string) (string, error)
	CreateVectorStore(ctx context.Context, req openai.CreateVectorStoreRequest) (string, error)
	DeleteResource(ctx context.Context, kind openai.ResourceKind, id string) bool
}

// Cache records live sessions so resources of a crashed process can be
// cleaned up by the next one. Each session is keyed by its assistant id and
// guarded by a lease its owner keeps refreshing.
type Cache interface {
	Key(parts ...string) string
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, keys ...string) error
	AddMember(ctx context.Context, key, member string) error
	Members(ctx context.Context, key string) ([]string, error)
	RemoveMember(ctx context.Context, key, member string) error
}

// Session lists the remote resources created by Setup.
type Session struct {
	AssistantID   string `json:"assistant_id"`
	FileID        string `json:"file_id,omitempty"`
	VectorStoreID string `json:"vector_store_id,omitempty"`
}

type Manager struct {
	engine   Engine
	cfg      config.AssistantConfig
	cache    Cache
	leaseTTL time.Duration

	mu       sync.Mutex
	sessions map[string]Session
	leases   map[string]chan struct{}
}

// NewManager builds a Manager. A nil *redis.Service disables the cache.
func NewManager(engine Engine, cfg config.AssistantConfig, redisService *redis.Service) *Manager {
	m := &Manager{
		engine:   engine,
		cfg:      cfg,
		leaseTTL: DefaultLeaseTTL,
		sessions: make(map[string]Session),
		leases:   make(map[string]chan struct{}),
	}
	if redisService != nil {
		m.cache = redisService
	}
	return m
}

// WithCache replaces the session cache.
func (m *Manager) WithCache(c Cache) *Manager {
	m.cache = c
	return m
}

// WithLeaseTTL changes how long a session lease lasts without a refresh.
func (m *Manager) WithLeaseTTL(d time.Duration) *Manager {
	if d > 0 {
		m.leaseTTL = d
	}
	return m
}

// Setup creates an assistant for userName, uploads the knowledge file into a
// new vector store and attaches it to the assistant's file search tool. On
// failure everything created so far is deleted.
func (m *Manager) Setup(ctx context.Context, userName string) (string, error) {
	var s Session
	fail := func(step string, err error) (string, error) {
		m.rollback(ctx, s)
		return "", fmt.Errorf("failed to %s: %w", step, err)
	}

	id, err := m.engine.CreateAssistant(ctx, openai.CreateAssistantRequest{
		Model:        m.cfg.Model,
		Name:         openai.String(m.cfg.Name),
		Instructions: openai.String(m.instructions(userName)),
		Tools:        openai.Tools(toolFileSearch),
		Temperature:  openai.Float32(m.cfg.Temperature),
		TopP:         openai.Float32(m.cfg.TopP),
	})
	if err != nil {
		return fail("create assistant", err)
	}
	s.AssistantID = id

	if m.cfg.KnowledgeFile != "" {
		if s.FileID, err = m.engine.UploadFilePath(ctx, m.cfg.KnowledgeFile, openai.PurposeAssistants); err != nil {
			return fail("upload knowledge file", err)
		}
		if s.VectorStoreID, err = m.engine.CreateVectorStore(ctx, openai.CreateVectorStoreRequest{
			Name:    openai.String(m.cfg.VectorStoreName),
			FileIDs: []string{s.FileID},
		}); err != nil {
			return fail("create vector store", err)
		}
		if err := m.engine.ModifyAssistant(ctx, s.AssistantID, openai.ModifyAssistantRequest{
			ToolResources: openai.FileSearchResources(s.VectorStoreID),
		}); err != nil {
			return fail("attach vector store", err)
		}
	}

	m.mu.Lock()
	m.sessions[s.AssistantID] = s
	m.mu.Unlock()
	m.remember(ctx, s)

	logger.Info(logger.ASSISTANT, "Assistant %s ready (vector store %q)", s.AssistantID, s.VectorStoreID)
	return s.AssistantID, nil
}

// Teardown deletes an assistant created by Setup along with its vector store
// and file. Failures are logged only.
func (m *Manager) Teardown(ctx context.Context, assistantID string) {
	m.mu.Lock()
	s, ok := m.sessions[assistantID]
	delete(m.sessions, assistantID)
	if stop, held := m.leases[assistantID]; held {
		close(stop)
		delete(m.leases, assistantID)
	}
	m.mu.Unlock()
	if !ok {
		s = Session{AssistantID: assistantID}
	}
	m.rollback(ctx, s)
	m.forget(ctx, assistantID)
	logger.Info(logger.ASSISTANT, "Assistant %s removed", assistantID)
}

// Close stops refreshing the leases of sessions this manager still holds
// without deleting them, so a later Recover can clean them up.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, stop := range m.leases {
		close(stop)
		delete(m.leases, id)
	}
}

// Recover deletes resources left behind by processes that exited without
// tearing their sessions down. Sessions whose lease is still held belong to
// a live process and are left alone. It reports whether anything was removed.
func (m *Manager) Recover(ctx context.Context) bool {
	if m.cache == nil {
		return false
	}
	ids, err := m.cache.Members(ctx, m.indexKey())
	if err != nil {
		logger.Warn(logger.ASSISTANT, "Failed to list cached sessions: %v", err)
		return false
	}

	recovered := false
	for _, id := range ids {
		if _, err := m.cache.Get(ctx, m.leaseKey(id)); err == nil {
			continue
		} else if err != redis.Nil {
			logger.Warn(logger.ASSISTANT, "Failed to read lease for %s: %v", id, err)
			continue
		}

		s := Session{AssistantID: id}
		data, err := m.cache.Get(ctx, m.sessionKey(id))
		switch {
		case err == nil:
			if jerr := json.Unmarshal([]byte(data), &s); jerr != nil || s.AssistantID != id {
				logger.Warn(logger.ASSISTANT, "Discarding unreadable cached session %s", id)
				s = Session{AssistantID: id}
			}
		case err != redis.Nil:
			logger.Warn(logger.ASSISTANT, "Failed to read cached session %s: %v", id, err)
			continue
		}

		logger.Info(logger.ASSISTANT, "Removing stale assistant %s", id)
		m.rollback(ctx, s)
		m.forget(ctx, id)
		recovered = true
	}
	return recovered
}

func (m *Manager) instructions(userName string) string {
	if userName == "" {
		return m.cfg.Instructions
	}
	return fmt.Sprintf("%s Address the user as %s.", m.cfg.Instructions, userName)
}

// rollback deletes in reverse order of creation.
func (m *Manager) rollback(ctx context.Context, s Session) {
	ctx = context.WithoutCancel(ctx)
	if s.VectorStoreID != "" {
		m.engine.DeleteResource(ctx, openai.KindVectorStores, s.VectorStoreID)
	}
	if s.FileID != "" {
		m.engine.DeleteResource(ctx, openai.KindFiles, s.FileID)
	}
	if s.AssistantID != "" {
		m.engine.DeleteResource(ctx, openai.KindAssistants, s.AssistantID)
	}
}

func (m *Manager) indexKey() string {
	return m.cache.Key("assistant", "sessions")
}

func (m *Manager) sessionKey(assistantID string) string {
	return m.cache.Key("assistant", "session", assistantID)
}

func (m *Manager) leaseKey(assistantID string) string {
	return m.cache.Key("assistant", "lease", assistantID)
}

// remember takes the lease before publishing the session so Recover never
// sees a listed session without one.
func (m *Manager) remember(ctx context.Context, s Session) {
	if m.cache == nil {
		return
	}
	data, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := m.cache.Set(ctx, m.leaseKey(s.AssistantID), "1", m.leaseTTL); err != nil {
		logger.Warn(logger.ASSISTANT, "Failed to take lease for %s: %v", s.AssistantID, err)
		return
	}
	if err := m.cache.Set(ctx, m.sessionKey(s.AssistantID), string(data), 0); err != nil {
		logger.Warn(logger.ASSISTANT, "Failed to cache session %s: %v", s.AssistantID, err)
		return
	}
	if err := m.cache.AddMember(ctx, m.indexKey(), s.AssistantID); err != nil {
		logger.Warn(logger.ASSISTANT, "Failed to index session %s: %v", s.AssistantID, err)
		return
	}

	stop := make(chan struct{})
	m.mu.Lock()
	m.leases[s.AssistantID] = stop
	m.mu.Unlock()
	go m.holdLease(s.AssistantID, stop)
}

// holdLease refreshes the lease until stop is closed.
func (m *Manager) holdLease(assistantID string, stop <-chan struct{}) {
	ticker := time.NewTicker(m.leaseTTL / 3)
	defer ticker.Stop()
	key := m.leaseKey(assistantID)
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), m.leaseTTL/3)
			if err := m.cache.Set(ctx, key, "1", m.leaseTTL); err != nil {
				logger.Warn(logger.ASSISTANT, "Failed to refresh lease for %s: %v", assistantID, err)
			}
			cancel()
		}
	}
}

// forget removes only the entries of assistantID.
func (m *Manager) forget(ctx context.Context, assistantID string) {
	if m.cache == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	if err := m.cache.Delete(ctx, m.leaseKey(assistantID), m.sessionKey(assistantID)); err != nil {
		logger.Warn(logger.ASSISTANT, "Failed to clear cached session %s: %v", assistantID, err)
	}
	if err := m.cache.RemoveMember(ctx, m.indexKey(), assistantID); err != nil {
		logger.Warn(logger.ASSISTANT, "Failed to unindex session %s: %v", assistantID, err)
	}
}
