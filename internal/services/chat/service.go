// Package chat runs one conversational turn against a configured assistant.
package chat

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/deepgram/courier/internal/infrastructure/openai"
	"github.com/deepgram/courier/pkg/logger"
	"github.com/google/uuid"
)

// Replies returned to the user when a turn cannot produce an answer.
const (
	MsgThreadFailed  = "Failed to create thread for processing message."
	MsgMessageFailed = "Failed to add message to thread."
	MsgRunFailed     = "Failed to create run for processing message."
	MsgPollFailed    = "The assistant encountered an issue while processing the message."
	MsgNoResponse    = "No response received from the assistant."
)

// Failed reports whether reply is one of the fixed failure replies rather
// than an answer from the assistant.
func Failed(reply string) bool {
	switch reply {
	case MsgThreadFailed, MsgMessageFailed, MsgRunFailed, MsgPollFailed, MsgNoResponse:
		return true
	}
	return false
}

const cleanupTimeout = 10 * time.Second

var citationPattern = regexp.MustCompile(`【\d+:\d+†[^】]*】`)

// Engine is the subset of the assistants client a turn needs.
type Engine interface {
	CreateThread(ctx context.Context, req openai.CreateThreadRequest) (string, error)
	AddMessage(ctx context.Context, threadID, content string) (string, error)
	CreateRun(ctx context.Context, threadID string, req openai.CreateRunRequest) (string, error)
	WaitForRun(ctx context.Context, threadID, runID string, opts openai.PollOptions) openai.PollResult
	ListMessages(ctx context.Context, threadID, runID string) ([]string, error)
	DeleteResource(ctx context.Context, kind openai.ResourceKind, id string) bool
}

// Turn is one prior message of a conversation.
type Turn struct {
	Role    string `json:"role" validate:"oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

type Orchestrator struct {
	engine Engine
	poll   openai.PollOptions
}

func NewOrchestrator(engine Engine, poll openai.PollOptions) *Orchestrator {
	return &Orchestrator{engine: engine, poll: poll}
}

// ProcessMessage answers message in the context of history. It always returns
// a string: the assistant's answer, or a fixed reply naming the failed step.
// The thread it creates is deleted before returning.
func (o *Orchestrator) ProcessMessage(ctx context.Context, assistantID string, history []Turn, message string) string {
	reply, outcome := o.process(ctx, assistantID, history, message)
	turnsTotal.WithLabelValues(outcome).Inc()
	return reply
}

func (o *Orchestrator) process(ctx context.Context, assistantID string, history []Turn, message string) (string, string) {
	turnID := uuid.New().String()
	logger.Debug(logger.ASSISTANT, "Turn %s: processing message with %d prior turns", turnID, len(history))

	threadID, err := o.engine.CreateThread(ctx, openai.CreateThreadRequest{Messages: threadMessages(history)})
	if err != nil {
		logger.Error(logger.ASSISTANT, "Turn %s: failed to create thread: %v", turnID, err)
		return MsgThreadFailed, "thread_failed"
	}
	defer o.cleanup(ctx, turnID, threadID)

	if _, err := o.engine.AddMessage(ctx, threadID, message); err != nil {
		logger.Error(logger.ASSISTANT, "Turn %s: failed to add message to thread %s: %v", turnID, threadID, err)
		return MsgMessageFailed, "message_failed"
	}

	runID, err := o.engine.CreateRun(ctx, threadID, openai.CreateRunRequest{AssistantID: assistantID})
	if err != nil {
		logger.Error(logger.ASSISTANT, "Turn %s: failed to create run on thread %s: %v", turnID, threadID, err)
		return MsgRunFailed, "run_failed"
	}

	res := o.engine.WaitForRun(ctx, threadID, runID, o.poll)
	if !res.Succeeded() {
		logger.Error(logger.ASSISTANT, "Turn %s: run %s did not complete (status %q): %v", turnID, runID, res.Status, res.Err)
		return MsgPollFailed, "poll_failed"
	}

	texts, err := o.engine.ListMessages(ctx, threadID, runID)
	if err != nil {
		logger.Error(logger.ASSISTANT, "Turn %s: failed to list messages of run %s: %v", turnID, runID, err)
		return MsgNoResponse, "no_response"
	}
	if len(texts) == 0 {
		logger.Warn(logger.ASSISTANT, "Turn %s: run %s produced no text", turnID, runID)
		return MsgNoResponse, "no_response"
	}

	// A reply made only of citation markers carries nothing to relay.
	answer := CleanResponse(texts[0])
	if answer == "" {
		logger.Warn(logger.ASSISTANT, "Turn %s: run %s answered with citations only", turnID, runID)
		return MsgNoResponse, "no_response"
	}
	logger.Info(logger.ASSISTANT, "Turn %s: answered after %d polls in %s", turnID, res.Polls, res.Elapsed)
	return answer, "answered"
}

// cleanup deletes the thread even when ctx has already been cancelled.
func (o *Orchestrator) cleanup(ctx context.Context, turnID, threadID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if !o.engine.DeleteResource(ctx, openai.KindThreads, threadID) {
		logger.Warn(logger.ASSISTANT, "Turn %s: thread %s was not deleted", turnID, threadID)
	}
}

func threadMessages(history []Turn) []openai.ThreadMessage {
	msgs := make([]openai.ThreadMessage, 0, len(history))
	for _, t := range history {
		if t.Role == "" || t.Content == "" {
			continue
		}
		msgs = append(msgs, openai.ThreadMessage{Role: t.Role, Content: t.Content})
	}
	return msgs
}

// CleanResponse removes file search citation markers such as 【4:0†source】.
func CleanResponse(s string) string {
	return strings.TrimSpace(citationPattern.ReplaceAllString(s, ""))
}

// Session binds an Orchestrator to one assistant for callers that ask many
// questions of the same assistant.
type Session struct {
	orchestrator *Orchestrator
	assistantID  string
}

func (o *Orchestrator) Session(assistantID string) *Session {
	return &Session{orchestrator: o, assistantID: assistantID}
}

func (s *Session) AssistantID() string {
	return s.assistantID
}

func (s *Session) Ask(ctx context.Context, history []Turn, message string) string {
	return s.orchestrator.ProcessMessage(ctx, s.assistantID, history, message)
}
