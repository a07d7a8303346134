package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	cfg, err := Parse([]byte("openai:\n  api_key: sk-test\n"))
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, DefaultBaseURL, cfg.OpenAI.BaseURL)
	assert.Equal(t, DefaultModel, cfg.OpenAI.Model)
	assert.Equal(t, 0, cfg.OpenAI.MaxRetries)
	assert.Equal(t, time.Second, cfg.Poll.Interval)
	assert.Equal(t, 60*time.Second, cfg.Poll.Timeout)
	assert.False(t, cfg.Poll.CancelOnTimeout)
	assert.Equal(t, 100, cfg.ResponseLog.Capacity)
	assert.Equal(t, BackendMemory, cfg.ResponseLog.Backend)
	assert.Equal(t, "acu_assistant_db", cfg.Database.Name)
	assert.Equal(t, 10, cfg.Database.HistoryLimit)
	assert.Equal(t, "INBOX", cfg.Mail.Folder)
	assert.Equal(t, 70, cfg.Mail.WrapWidth)
	assert.Equal(t, TLSMandatory, cfg.Mail.SMTPSecurity)
	assert.Equal(t, TLSMandatory, cfg.Mail.IMAPSecurity)
	assert.Equal(t, DefaultModel, cfg.Assistant.Model)
	assert.InDelta(t, 0.1, cfg.Assistant.Temperature, 1e-6)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 30, cfg.Server.RateLimit.MaxHits)
}

func TestParseYAMLValues(t *testing.T) {
	data := `
openai:
  api_key: sk-yaml
  max_retries: 2
poll:
  interval: 250ms
  timeout: 5s
  cancel_on_timeout: true
response_log:
  capacity: 2
  backend: redis
database:
  driver: sqlite
  path: /tmp/courier.db
`
	cfg, err := Parse([]byte(data))
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.OpenAI.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Poll.Interval)
	assert.Equal(t, 5*time.Second, cfg.Poll.Timeout)
	assert.True(t, cfg.Poll.CancelOnTimeout)
	assert.Equal(t, 2, cfg.ResponseLog.Capacity)
	assert.Equal(t, BackendRedis, cfg.ResponseLog.Backend)
	assert.Equal(t, "/tmp/courier.db", cfg.Database.DSN())
}

func TestEnvironmentOverridesYAML(t *testing.T) {
	t.Setenv("COURIER_OPENAI_API_KEY", "sk-env")
	t.Setenv("COURIER_POLL_TIMEOUT", "90s")
	t.Setenv("COURIER_MAIL_IMAP_HOST", "imap.example.com")
	t.Setenv("COURIER_RESPONSE_LOG_CAPACITY", "7")

	cfg, err := Parse([]byte("openai:\n  api_key: sk-yaml\n"))
	require.NoError(t, err)

	assert.Equal(t, "sk-env", cfg.OpenAI.APIKey)
	assert.Equal(t, 90*time.Second, cfg.Poll.Timeout)
	assert.Equal(t, "imap.example.com", cfg.Mail.IMAPHost)
	assert.Equal(t, 7, cfg.ResponseLog.Capacity)
}

func TestPlainAPIKeyFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-plain")
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, "sk-plain", cfg.OpenAI.APIKey)
}

func TestValidate(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"missing key", "poll:\n  interval: 1s\n", "openai.api_key is required"},
		{"interval above timeout", "openai:\n  api_key: k\npoll:\n  interval: 2m\n", "poll.interval must not exceed poll.timeout"},
		{"negative capacity", "openai:\n  api_key: k\nresponse_log:\n  capacity: -1\n", "response_log.capacity"},
		{"unknown backend", "openai:\n  api_key: k\nresponse_log:\n  backend: disk\n", "response_log.backend"},
		{"unknown driver", "openai:\n  api_key: k\ndatabase:\n  driver: postgres\n", "database.driver"},
		{"bad yaml", "openai: [", "config: parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "courier.yaml")
		require.NoError(t, os.WriteFile(path, []byte("openai:\n  api_key: sk-file\n"), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "sk-file", cfg.OpenAI.APIKey)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
		assert.True(t, strings.HasPrefix(err.Error(), "config: read"))
	})
}

func TestSectionRequirements(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk")
	cfg, err := Parse(nil)
	require.NoError(t, err)

	assert.Error(t, cfg.Mail.Require())
	assert.Error(t, cfg.Database.Require())
	assert.Error(t, cfg.Server.Require())

	cfg.Mail.IMAPHost = "imap.example.com"
	cfg.Mail.SMTPHost = "smtp.example.com"
	cfg.Mail.Account = "advisor@example.com"
	cfg.Mail.Password = "secret"
	assert.NoError(t, cfg.Mail.Require())

	cfg.Database.User = "courier"
	assert.NoError(t, cfg.Database.Require())
	assert.Equal(t, "courier:@tcp(127.0.0.1:3306)/acu_assistant_db?charset=utf8mb4&parseTime=True&loc=Local", cfg.Database.DSN())

	cfg.Server.JWTSecret = strings.Repeat("s", 32)
	assert.NoError(t, cfg.Server.Require())
}
