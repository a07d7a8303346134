// Package inbox answers unread mail with the assistant and replies in thread.
package inbox

import (
	"context"
	"fmt"
	"time"

	"github.com/deepgram/courier/internal/config"
	"github.com/deepgram/courier/internal/infrastructure/mail"
	"github.com/deepgram/courier/internal/services/chat"
	"github.com/deepgram/courier/pkg/logger"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"

	MsgNoEmails = "No new emails found."
	MsgComplete = "Email processing complete."

	// MsgSetupFailed is the reply sent when no assistant could be created.
	MsgSetupFailed = "Failed to set up the assistant."
)

// Conversations is the history store the processor reads and appends to.
type Conversations interface {
	GetOrCreateConversation(ctx context.Context, email string) (uint, error)
	UserName(ctx context.Context, email string) (string, error)
	SetUserName(ctx context.Context, email, name string) error
	History(ctx context.Context, email string, limit int) ([]chat.Turn, error)
	AddMessage(ctx context.Context, conversationID uint, isUser bool, content string) (uint, error)
}

// Responder produces the answer to one inbound message.
type Responder interface {
	Respond(ctx context.Context, userName string, history []chat.Turn, message string) string
}

// Summary reports one batch run.
type Summary struct {
	Status          string           `json:"status"`
	Timestamp       time.Time        `json:"timestamp"`
	TotalEmails     int              `json:"totalEmails,omitempty"`
	ProcessedEmails []ProcessedEmail `json:"processedEmails,omitempty"`
	Message         string           `json:"message"`
}

// ProcessedEmail reports what happened to one inbound message.
type ProcessedEmail struct {
	UID             uint32 `json:"id"`
	From            string `json:"from"`
	Subject         string `json:"subject"`
	ConversationID  uint   `json:"conversationId,omitempty"`
	UserName        string `json:"userName,omitempty"`
	HistoryCount    int    `json:"historyCount"`
	UserMessageID   uint   `json:"userMessageId,omitempty"`
	ResponsePreview string `json:"responsePreview,omitempty"`
	ReplySent       bool   `json:"replySent"`
	Error           string `json:"error,omitempty"`
}

type Processor struct {
	fetcher       mail.Fetcher
	sender        mail.Sender
	conversations Conversations
	responder     Responder
	historyLimit  int
	wrapWidth     int
	now           func() time.Time
}

func NewProcessor(fetcher mail.Fetcher, sender mail.Sender, conversations Conversations, responder Responder, historyLimit, wrapWidth int) *Processor {
	if historyLimit <= 0 {
		historyLimit = config.DefaultHistoryLimit
	}
	if wrapWidth <= 0 {
		wrapWidth = config.DefaultWrapWidth
	}
	return &Processor{
		fetcher:       fetcher,
		sender:        sender,
		conversations: conversations,
		responder:     responder,
		historyLimit:  historyLimit,
		wrapWidth:     wrapWidth,
		now:           time.Now,
	}
}

// Process answers every unread email once. A failure on one email is
// recorded in its entry and the batch moves on.
func (p *Processor) Process(ctx context.Context) Summary {
	summary := Summary{Status: StatusSuccess, Timestamp: p.now()}

	emails, err := p.fetcher.FetchUnread(ctx)
	if err != nil {
		logger.Error(logger.MAIL, "Failed to fetch unread mail: %v", err)
		summary.Status = StatusError
		summary.Message = err.Error()
		return summary
	}
	if len(emails) == 0 {
		summary.Message = MsgNoEmails
		return summary
	}

	summary.TotalEmails = len(emails)
	summary.ProcessedEmails = make([]ProcessedEmail, 0, len(emails))
	for _, e := range emails {
		if err := ctx.Err(); err != nil {
			summary.Status = StatusError
			summary.Message = fmt.Sprintf("processing interrupted: %v", err)
			return summary
		}
		summary.ProcessedEmails = append(summary.ProcessedEmails, p.processEmail(ctx, e))
	}
	summary.Message = MsgComplete
	return summary
}

func (p *Processor) processEmail(ctx context.Context, e mail.Email) ProcessedEmail {
	out := ProcessedEmail{UID: e.UID, From: e.From, Subject: e.Subject}
	fail := func(step string, err error) ProcessedEmail {
		logger.Error(logger.MAIL, "Email %d from %s: failed to %s: %v", e.UID, e.From, step, err)
		out.Error = fmt.Sprintf("failed to %s: %v", step, err)
		return out
	}

	convID, err := p.conversations.GetOrCreateConversation(ctx, e.From)
	if err != nil {
		return fail("load conversation", err)
	}
	out.ConversationID = convID

	userName, err := p.userName(ctx, e)
	if err != nil {
		return fail("resolve user name", err)
	}
	out.UserName = userName

	history, err := p.conversations.History(ctx, e.From, p.historyLimit)
	if err != nil {
		return fail("load history", err)
	}
	out.HistoryCount = len(history)

	if out.UserMessageID, err = p.conversations.AddMessage(ctx, convID, true, e.Body); err != nil {
		return fail("store message", err)
	}

	response := p.responder.Respond(ctx, userName, history, e.Body)
	if _, err := p.conversations.AddMessage(ctx, convID, false, response); err != nil {
		return fail("store response", err)
	}
	out.ResponsePreview = preview(response)

	if err := p.fetcher.MarkRead(ctx, e.UID); err != nil {
		return fail("mark as read", err)
	}

	reply := mail.Outgoing{
		To:        e.From,
		Subject:   ReplySubject(e.Subject),
		Body:      FormatReply(response, p.wrapWidth),
		InReplyTo: e.MessageID,
	}
	if err := p.sender.Send(ctx, reply); err != nil {
		return fail("send reply", err)
	}
	out.ReplySent = true

	logger.Info(logger.MAIL, "Email %d from %s answered (conversation %d, %d prior turns)", e.UID, e.From, convID, len(history))
	return out
}

// userName returns the stored name for the sender, deriving and storing one
// on first contact.
func (p *Processor) userName(ctx context.Context, e mail.Email) (string, error) {
	name, err := p.conversations.UserName(ctx, e.From)
	if err != nil {
		return "", err
	}
	if name != "" {
		return name, nil
	}
	name = NameFromAddress(e.From)
	if name == "" {
		return "", nil
	}
	if err := p.conversations.SetUserName(ctx, e.From, name); err != nil {
		return "", err
	}
	return name, nil
}
