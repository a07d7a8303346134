// Package mail fetches unread mail over IMAP and sends replies over SMTP.
package mail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	mailmsg "github.com/emersion/go-message/mail"
)

// Email is an inbound message reduced to what a reply needs.
type Email struct {
	UID       uint32
	MessageID string
	From      string
	FromName  string
	Subject   string
	Body      string
	Date      time.Time
}

// Outgoing is a reply to be delivered.
type Outgoing struct {
	To         string
	Subject    string
	Body       string
	InReplyTo  string
	References string
}

// Fetcher reads the inbox.
type Fetcher interface {
	FetchUnread(ctx context.Context) ([]Email, error)
	MarkRead(ctx context.Context, uid uint32) error
}

// Sender delivers replies.
type Sender interface {
	Send(ctx context.Context, msg Outgoing) error
}

// ParseMessage decodes a raw RFC 5322 message. Body is the first text/plain
// part, or the first other text part when the message has no plain text.
func ParseMessage(uid uint32, r io.Reader) (Email, error) {
	mr, err := mailmsg.CreateReader(r)
	if err != nil && !message.IsUnknownCharset(err) {
		return Email{}, fmt.Errorf("mail: parse message %d: %w", uid, err)
	}
	defer mr.Close()

	e := Email{UID: uid}
	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		e.From = from[0].Address
		e.FromName = from[0].Name
	}
	if e.From == "" {
		return Email{}, fmt.Errorf("mail: message %d has no sender address", uid)
	}
	e.Subject, _ = mr.Header.Subject()
	e.Date, _ = mr.Header.Date()
	if id, err := mr.Header.MessageID(); err == nil && id != "" {
		e.MessageID = "<" + id + ">"
	}

	var fallback string
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) {
			return Email{}, fmt.Errorf("mail: read part of message %d: %w", uid, err)
		}
		h, ok := p.Header.(*mailmsg.InlineHeader)
		if !ok {
			continue
		}
		ct, _, _ := h.ContentType()
		data, err := io.ReadAll(p.Body)
		if err != nil {
			return Email{}, fmt.Errorf("mail: read body of message %d: %w", uid, err)
		}
		if ct == "text/plain" || ct == "" {
			e.Body = strings.TrimSpace(string(data))
			return e, nil
		}
		if fallback == "" && strings.HasPrefix(ct, "text/") {
			fallback = strings.TrimSpace(string(data))
		}
	}
	e.Body = fallback
	return e, nil
}
