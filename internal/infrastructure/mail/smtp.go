package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/deepgram/courier/internal/config"
	"github.com/deepgram/courier/pkg/logger"
	gomail "github.com/wneessen/go-mail"
)

const (
	smtpTimeout = 30 * time.Second
	portSMTPS   = 465
)

// SMTPSender delivers plain text replies from the configured account.
type SMTPSender struct {
	from string
	host string
	opts []gomail.Option
}

func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	opts := []gomail.Option{
		gomail.WithPort(cfg.SMTPPort),
		gomail.WithTimeout(smtpTimeout),
		gomail.WithTLSPolicy(tlsPolicy(cfg.SMTPSecurity)),
	}
	if cfg.SMTPPort == portSMTPS && cfg.SMTPSecurity != config.TLSNone {
		opts = append(opts, gomail.WithSSL())
	}
	if cfg.Account != "" && cfg.Password != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Account),
			gomail.WithPassword(cfg.Password),
		)
	}
	return &SMTPSender{from: cfg.Account, host: cfg.SMTPHost, opts: opts}
}

func tlsPolicy(security string) gomail.TLSPolicy {
	switch security {
	case config.TLSOpportunistic:
		return gomail.TLSOpportunistic
	case config.TLSNone:
		return gomail.NoTLS
	default:
		return gomail.TLSMandatory
	}
}

// Build renders msg as a message from the sender's account. Threading headers
// are set only when the original carried a Message-ID.
func (s *SMTPSender) Build(msg Outgoing) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.From(s.from); err != nil {
		return nil, fmt.Errorf("mail: from %q: %w", s.from, err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("mail: to %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetDate()
	m.SetMessageID()
	if msg.InReplyTo != "" {
		m.SetGenHeader(gomail.HeaderInReplyTo, msg.InReplyTo)
		refs := msg.References
		if refs == "" {
			refs = msg.InReplyTo
		}
		m.SetGenHeader(gomail.HeaderReferences, refs)
	}
	m.SetBodyString(gomail.TypeTextPlain, msg.Body)
	return m, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg Outgoing) error {
	m, err := s.Build(msg)
	if err != nil {
		return err
	}
	c, err := gomail.NewClient(s.host, s.opts...)
	if err != nil {
		return fmt.Errorf("mail: smtp client for %s: %w", s.host, err)
	}
	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("mail: send to %s: %w", msg.To, err)
	}
	logger.Info(logger.MAIL, "Reply sent to %s", msg.To)
	return nil
}
