package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/deepgram/courier/internal/config"
	"github.com/deepgram/courier/internal/infrastructure/openai"
	"github.com/deepgram/courier/internal/responselog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("REDIS_URL", "")
	cfg, err := config.Parse([]byte("openai:\n  api_key: sk-test\n"))
	require.NoError(t, err)
	return cfg
}

func TestInitializeServicesWithoutRedis(t *testing.T) {
	cfg := testConfig(t)

	svc, err := InitializeServices(cfg)
	require.NoError(t, err)
	defer svc.Close()

	assert.IsType(t, &responselog.MemoryLog{}, svc.GetResponseLog())
	assert.NotNil(t, svc.GetClient())
	assert.NotNil(t, svc.GetOrchestrator())
	assert.NotNil(t, svc.GetAssistantManager())
	assert.NotNil(t, svc.GetConnectionManager())
	assert.Same(t, cfg, svc.Config())

	// Nothing cached without Redis, so recovery is a no-op.
	svc.RecoverAssistants(context.Background())
	assert.NoError(t, svc.Close())
}

func TestInitializeServicesWithRedisResponseLog(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Redis.Addr = mr.Addr()
	cfg.ResponseLog.Backend = config.BackendRedis

	svc, err := InitializeServices(cfg)
	require.NoError(t, err)
	defer svc.Close()

	assert.IsType(t, &responselog.RedisLog{}, svc.GetResponseLog())
}

func TestInitializeServicesMemoryBackendIgnoresRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Redis.Addr = mr.Addr()

	svc, err := InitializeServices(cfg)
	require.NoError(t, err)
	defer svc.Close()

	assert.IsType(t, &responselog.MemoryLog{}, svc.GetResponseLog())
}

func TestClientRecordsIntoResponseLog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"thread_abc","object":"thread"}`))
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.OpenAI.BaseURL = srv.URL

	svc, err := InitializeServices(cfg)
	require.NoError(t, err)
	defer svc.Close()

	id, err := svc.GetClient().CreateThread(context.Background(), openai.CreateThreadRequest{})
	require.NoError(t, err)
	assert.Equal(t, "thread_abc", id)
	assert.Len(t, svc.GetResponseLog().FetchAll(openai.LogThread), 1)
}
