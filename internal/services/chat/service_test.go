package chat

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/deepgram/courier/internal/infrastructure/openai"
	goopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) CreateThread(ctx context.Context, req openai.CreateThreadRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockEngine) AddMessage(ctx context.Context, threadID, content string) (string, error) {
	args := m.Called(ctx, threadID, content)
	return args.String(0), args.Error(1)
}

func (m *MockEngine) CreateRun(ctx context.Context, threadID string, req openai.CreateRunRequest) (string, error) {
	args := m.Called(ctx, threadID, req)
	return args.String(0), args.Error(1)
}

func (m *MockEngine) WaitForRun(ctx context.Context, threadID, runID string, opts openai.PollOptions) openai.PollResult {
	args := m.Called(ctx, threadID, runID, opts)
	return args.Get(0).(openai.PollResult)
}

func (m *MockEngine) ListMessages(ctx context.Context, threadID, runID string) ([]string, error) {
	args := m.Called(ctx, threadID, runID)
	texts, _ := args.Get(0).([]string)
	return texts, args.Error(1)
}

func (m *MockEngine) DeleteResource(ctx context.Context, kind openai.ResourceKind, id string) bool {
	args := m.Called(ctx, kind, id)
	return args.Bool(0)
}

var (
	anyArg    = mock.Anything
	completed = openai.PollResult{Status: goopenai.RunStatusCompleted, Polls: 2}
	transport = openai.NewTransportError("request", errors.New("connection refused"))
)

func TestProcessMessage(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(m *MockEngine)
		want       string
		wantDelete bool
	}{
		{
			name: "answer is first text block",
			setup: func(m *MockEngine) {
				m.On("CreateThread", anyArg, anyArg).Return("thread_1", nil)
				m.On("AddMessage", anyArg, "thread_1", "What is CS 330?").Return("msg_1", nil)
				m.On("CreateRun", anyArg, "thread_1", openai.CreateRunRequest{AssistantID: "asst_1"}).Return("run_1", nil)
				m.On("WaitForRun", anyArg, "thread_1", "run_1", anyArg).Return(completed)
				m.On("ListMessages", anyArg, "thread_1", "run_1").Return([]string{"CS 330 is...", "older"}, nil)
			},
			want:       "CS 330 is...",
			wantDelete: true,
		},
		{
			name: "thread creation fails",
			setup: func(m *MockEngine) {
				m.On("CreateThread", anyArg, anyArg).Return("", transport)
			},
			want: MsgThreadFailed,
		},
		{
			name: "message add fails",
			setup: func(m *MockEngine) {
				m.On("CreateThread", anyArg, anyArg).Return("thread_1", nil)
				m.On("AddMessage", anyArg, "thread_1", anyArg).Return("", transport)
			},
			want:       MsgMessageFailed,
			wantDelete: true,
		},
		{
			name: "run creation fails",
			setup: func(m *MockEngine) {
				m.On("CreateThread", anyArg, anyArg).Return("thread_1", nil)
				m.On("AddMessage", anyArg, "thread_1", anyArg).Return("msg_1", nil)
				m.On("CreateRun", anyArg, "thread_1", anyArg).Return("", transport)
			},
			want:       MsgRunFailed,
			wantDelete: true,
		},
		{
			name: "run expires",
			setup: func(m *MockEngine) {
				m.On("CreateThread", anyArg, anyArg).Return("thread_1", nil)
				m.On("AddMessage", anyArg, "thread_1", anyArg).Return("msg_1", nil)
				m.On("CreateRun", anyArg, "thread_1", anyArg).Return("run_1", nil)
				m.On("WaitForRun", anyArg, "thread_1", "run_1", anyArg).Return(openai.PollResult{
					Status: goopenai.RunStatusExpired,
					Err:    errors.New("expired"),
				})
			},
			want:       MsgPollFailed,
			wantDelete: true,
		},
		{
			name: "no text blocks",
			setup: func(m *MockEngine) {
				m.On("CreateThread", anyArg, anyArg).Return("thread_1", nil)
				m.On("AddMessage", anyArg, "thread_1", anyArg).Return("msg_1", nil)
				m.On("CreateRun", anyArg, "thread_1", anyArg).Return("run_1", nil)
				m.On("WaitForRun", anyArg, "thread_1", "run_1", anyArg).Return(completed)
				m.On("ListMessages", anyArg, "thread_1", "run_1").Return([]string{}, nil)
			},
			want:       MsgNoResponse,
			wantDelete: true,
		},
		{
			name: "answer of only citations",
			setup: func(m *MockEngine) {
				m.On("CreateThread", anyArg, anyArg).Return("thread_1", nil)
				m.On("AddMessage", anyArg, "thread_1", anyArg).Return("msg_1", nil)
				m.On("CreateRun", anyArg, "thread_1", anyArg).Return("run_1", nil)
				m.On("WaitForRun", anyArg, "thread_1", "run_1", anyArg).Return(completed)
				m.On("ListMessages", anyArg, "thread_1", "run_1").Return([]string{" 【4:0†source】 "}, nil)
			},
			want:       MsgNoResponse,
			wantDelete: true,
		},
		{
			name: "listing fails",
			setup: func(m *MockEngine) {
				m.On("CreateThread", anyArg, anyArg).Return("thread_1", nil)
				m.On("AddMessage", anyArg, "thread_1", anyArg).Return("msg_1", nil)
				m.On("CreateRun", anyArg, "thread_1", anyArg).Return("run_1", nil)
				m.On("WaitForRun", anyArg, "thread_1", "run_1", anyArg).Return(completed)
				m.On("ListMessages", anyArg, "thread_1", "run_1").Return(nil, transport)
			},
			want:       MsgNoResponse,
			wantDelete: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &MockEngine{}
			tt.setup(m)
			if tt.wantDelete {
				m.On("DeleteResource", anyArg, openai.KindThreads, "thread_1").Return(true).Once()
			}

			o := NewOrchestrator(m, openai.PollOptions{})
			got := o.ProcessMessage(context.Background(), "asst_1", nil, "What is CS 330?")

			assert.Equal(t, tt.want, got)
			m.AssertExpectations(t)
			if !tt.wantDelete {
				m.AssertNotCalled(t, "DeleteResource", anyArg, anyArg, anyArg)
				m.AssertNotCalled(t, "AddMessage", anyArg, anyArg, anyArg)
				m.AssertNotCalled(t, "CreateRun", anyArg, anyArg, anyArg)
			}
		})
	}
}

func TestProcessMessageFiltersHistory(t *testing.T) {
	m := &MockEngine{}
	history := []Turn{
		{Role: "user", Content: "Hello"},
		{Role: "", Content: "dropped"},
		{Role: "assistant", Content: ""},
		{Role: "assistant", Content: "Hi there"},
	}
	m.On("CreateThread", anyArg, openai.CreateThreadRequest{Messages: []openai.ThreadMessage{
		{Role: "user", Content: "Hello"},
		{Role: "assistant", Content: "Hi there"},
	}}).Return("", transport)

	got := NewOrchestrator(m, openai.PollOptions{}).ProcessMessage(context.Background(), "asst_1", history, "next")
	assert.Equal(t, MsgThreadFailed, got)
	m.AssertExpectations(t)
}

func TestSessionAsk(t *testing.T) {
	m := &MockEngine{}
	m.On("CreateThread", anyArg, anyArg).Return("thread_9", nil)
	m.On("AddMessage", anyArg, "thread_9", "hi").Return("msg_9", nil)
	m.On("CreateRun", anyArg, "thread_9", openai.CreateRunRequest{AssistantID: "asst_bound"}).Return("run_9", nil)
	m.On("WaitForRun", anyArg, "thread_9", "run_9", anyArg).Return(completed)
	m.On("ListMessages", anyArg, "thread_9", "run_9").Return([]string{"hello"}, nil)
	m.On("DeleteResource", anyArg, openai.KindThreads, "thread_9").Return(true)

	s := NewOrchestrator(m, openai.PollOptions{}).Session("asst_bound")
	assert.Equal(t, "asst_bound", s.AssistantID())
	assert.Equal(t, "hello", s.Ask(context.Background(), nil, "hi"))
	m.AssertExpectations(t)
}

func TestCleanResponse(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"CS 330 covers databases【4:0†source】.", "CS 330 covers databases."},
		{"  A【1:2†source】 and B【10:11†acu_database.txt】  ", "A and B"},
		{"no markers", "no markers"},
		{"【0:0†source】", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanResponse(tt.in))
	}
}

// fakeService is a minimal assistants API that plays a scripted run.
type fakeService struct {
	mu         sync.Mutex
	statuses   []string
	polls      int
	deleted    []string
	failThread bool
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/threads":
		if f.failThread {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		io.WriteString(w, `{"id":"thread_1"}`)
	case r.Method == http.MethodPost && r.URL.Path == "/threads/thread_1/messages":
		io.WriteString(w, `{"id":"msg_1"}`)
	case r.Method == http.MethodPost && r.URL.Path == "/threads/thread_1/runs":
		io.WriteString(w, `{"id":"run_1","status":"queued"}`)
	case r.Method == http.MethodGet && r.URL.Path == "/threads/thread_1/runs/run_1":
		s := f.statuses[min(f.polls, len(f.statuses)-1)]
		f.polls++
		io.WriteString(w, `{"id":"run_1","status":"`+s+`"}`)
	case r.Method == http.MethodGet && r.URL.Path == "/threads/thread_1/messages":
		io.WriteString(w, `{"object":"list","data":[{"id":"msg_2","role":"assistant","content":[{"type":"text","text":{"value":"CS 330 is...【3:0†source】","annotations":[]}}]}]}`)
	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/threads/"):
		f.deleted = append(f.deleted, strings.TrimPrefix(r.URL.Path, "/threads/"))
		io.WriteString(w, `{"id":"thread_1","deleted":true}`)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newEndToEnd(t *testing.T, f *fakeService) *Orchestrator {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	client, err := openai.NewClient("sk-test", openai.WithBaseURL(srv.URL), openai.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return NewOrchestrator(client, openai.PollOptions{Interval: 5 * time.Millisecond, Timeout: time.Second})
}

func TestEndToEnd(t *testing.T) {
	t.Run("completes after two polls", func(t *testing.T) {
		f := &fakeService{statuses: []string{"in_progress", "completed"}}
		got := newEndToEnd(t, f).ProcessMessage(context.Background(), "asst_1", nil, "What is CS 330?")

		assert.Equal(t, "CS 330 is...", got)
		assert.Equal(t, 2, f.polls)
		assert.Equal(t, []string{"thread_1"}, f.deleted)
	})

	t.Run("thread creation fails", func(t *testing.T) {
		f := &fakeService{failThread: true}
		got := newEndToEnd(t, f).ProcessMessage(context.Background(), "asst_1", nil, "hi")

		assert.Equal(t, MsgThreadFailed, got)
		assert.Empty(t, f.deleted)
	})

	t.Run("run expires", func(t *testing.T) {
		f := &fakeService{statuses: []string{"queued", "in_progress", "expired"}}
		got := newEndToEnd(t, f).ProcessMessage(context.Background(), "asst_1", nil, "hi")

		assert.Equal(t, MsgPollFailed, got)
		assert.Equal(t, 3, f.polls)
		assert.Equal(t, []string{"thread_1"}, f.deleted)
	})
}

func TestFailed(t *testing.T) {
	for _, msg := range []string{MsgThreadFailed, MsgMessageFailed, MsgRunFailed, MsgPollFailed, MsgNoResponse} {
		assert.True(t, Failed(msg), msg)
	}
	assert.False(t, Failed("CS 330 is a databases course."))
	assert.False(t, Failed(""))
}
