package mail

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/deepgram/courier/internal/config"
	"github.com/emersion/go-imap/backend/memory"
	"github.com/emersion/go-imap/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIMAPServer(t *testing.T, raws ...string) config.MailConfig {
	t.Helper()
	be := memory.New()
	user, err := be.Login(nil, "username", "password")
	require.NoError(t, err)
	mbox, err := user.GetMailbox("INBOX")
	require.NoError(t, err)
	for _, raw := range raws {
		require.NoError(t, mbox.CreateMessage([]string{}, time.Now(), bytes.NewBufferString(raw)))
	}

	srv := server.New(be)
	srv.AllowInsecureAuth = true
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go srv.Serve(l)
	t.Cleanup(func() { srv.Close() })

	return config.MailConfig{
		IMAPHost:     "127.0.0.1",
		IMAPPort:     l.Addr().(*net.TCPAddr).Port,
		IMAPSecurity: config.TLSNone,
		Account:      "username",
		Password:     "password",
		Folder:       "INBOX",
	}
}

func TestIMAPFetcher(t *testing.T) {
	first := crlf("From: Jane <jane@example.edu>\nSubject: one\nMessage-ID: <1@example.edu>\nContent-Type: text/plain\n\nfirst question\n")
	second := crlf("From: john@example.edu\nSubject: two\nMessage-ID: <2@example.edu>\nContent-Type: text/plain\n\nsecond question\n")
	cfg := newIMAPServer(t, first, second)
	f := NewIMAPFetcher(cfg)
	ctx := context.Background()

	emails, err := f.FetchUnread(ctx)
	require.NoError(t, err)
	require.Len(t, emails, 2, "the seeded seen message is skipped")
	assert.Equal(t, "jane@example.edu", emails[0].From)
	assert.Equal(t, "first question", emails[0].Body)
	assert.Equal(t, "second question", emails[1].Body)

	again, err := f.FetchUnread(ctx)
	require.NoError(t, err)
	assert.Len(t, again, 2, "fetching does not mark messages read")

	require.NoError(t, f.MarkRead(ctx, emails[0].UID))
	remaining, err := f.FetchUnread(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "john@example.edu", remaining[0].From)
}

func TestIMAPFetcherEmptyInbox(t *testing.T) {
	f := NewIMAPFetcher(newIMAPServer(t))
	emails, err := f.FetchUnread(context.Background())
	require.NoError(t, err)
	assert.Empty(t, emails)
}

func TestIMAPFetcherBadLogin(t *testing.T) {
	cfg := newIMAPServer(t)
	cfg.Password = "wrong"
	_, err := NewIMAPFetcher(cfg).FetchUnread(context.Background())
	assert.ErrorContains(t, err, "login")
}

func TestIMAPFetcherCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewIMAPFetcher(newIMAPServer(t)).FetchUnread(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
