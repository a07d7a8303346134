package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/deepgram/courier/internal/config"
	"github.com/deepgram/courier/pkg/logger"
	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

const (
	dialTimeout    = 30 * time.Second
	commandTimeout = time.Minute
)

// IMAPFetcher opens a short session per call: dial, login, select the
// folder, run the command, logout.
type IMAPFetcher struct {
	addr      string
	host      string
	security  string
	account   string
	password  string
	folder    string
	tlsConfig *tls.Config
}

func NewIMAPFetcher(cfg config.MailConfig) *IMAPFetcher {
	return &IMAPFetcher{
		addr:      net.JoinHostPort(cfg.IMAPHost, strconv.Itoa(cfg.IMAPPort)),
		host:      cfg.IMAPHost,
		security:  cfg.IMAPSecurity,
		account:   cfg.Account,
		password:  cfg.Password,
		folder:    cfg.Folder,
		tlsConfig: &tls.Config{ServerName: cfg.IMAPHost},
	}
}

func (f *IMAPFetcher) dial() (*client.Client, error) {
	dialer := &net.Dialer{Timeout: dialTimeout}
	if f.security == config.TLSMandatory {
		return client.DialWithDialerTLS(dialer, f.addr, f.tlsConfig)
	}

	c, err := client.DialWithDialer(dialer, f.addr)
	if err != nil {
		return nil, err
	}
	if f.security == config.TLSOpportunistic {
		if ok, _ := c.SupportStartTLS(); ok {
			if err := c.StartTLS(f.tlsConfig); err != nil {
				c.Logout()
				return nil, fmt.Errorf("starttls: %w", err)
			}
		}
	}
	return c, nil
}

func (f *IMAPFetcher) session(ctx context.Context, readOnly bool, fn func(c *client.Client) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c, err := f.dial()
	if err != nil {
		return fmt.Errorf("mail: connect to %s: %w", f.addr, err)
	}
	defer c.Logout()
	c.Timeout = commandTimeout

	// go-imap has no context support; closing the connection aborts a
	// command in flight.
	stop := context.AfterFunc(ctx, func() { c.Terminate() })
	defer stop()

	if err := c.Login(f.account, f.password); err != nil {
		return fmt.Errorf("mail: login as %s: %w", f.account, err)
	}
	if _, err := c.Select(f.folder, readOnly); err != nil {
		return fmt.Errorf("mail: select %s: %w", f.folder, err)
	}
	return fn(c)
}

// FetchUnread returns every unseen message in the folder without marking it
// read. Messages that cannot be parsed are logged and skipped.
func (f *IMAPFetcher) FetchUnread(ctx context.Context) ([]Email, error) {
	var emails []Email
	err := f.session(ctx, true, func(c *client.Client) error {
		criteria := imap.NewSearchCriteria()
		criteria.WithoutFlags = []string{imap.SeenFlag}
		uids, err := c.UidSearch(criteria)
		if err != nil {
			return fmt.Errorf("mail: search unseen: %w", err)
		}
		if len(uids) == 0 {
			return nil
		}

		seqset := new(imap.SeqSet)
		seqset.AddNum(uids...)
		section := &imap.BodySectionName{Peek: true}
		items := []imap.FetchItem{imap.FetchUid, section.FetchItem()}

		messages := make(chan *imap.Message, len(uids))
		done := make(chan error, 1)
		go func() {
			done <- c.UidFetch(seqset, items, messages)
		}()

		for msg := range messages {
			body := msg.GetBody(section)
			if body == nil {
				logger.Warn(logger.MAIL, "Server returned no body for message %d", msg.Uid)
				continue
			}
			e, err := ParseMessage(msg.Uid, body)
			if err != nil {
				logger.Warn(logger.MAIL, "Skipping message %d: %v", msg.Uid, err)
				continue
			}
			emails = append(emails, e)
		}
		if err := <-done; err != nil {
			return fmt.Errorf("mail: fetch: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info(logger.MAIL, "Found %d unread messages in %s", len(emails), f.folder)
	return emails, nil
}

// MarkRead sets the \Seen flag on the message with the given UID.
func (f *IMAPFetcher) MarkRead(ctx context.Context, uid uint32) error {
	return f.session(ctx, false, func(c *client.Client) error {
		seqset := new(imap.SeqSet)
		seqset.AddNum(uid)
		item := imap.FormatFlagsOp(imap.AddFlags, true)
		if err := c.UidStore(seqset, item, []interface{}{imap.SeenFlag}, nil); err != nil {
			return fmt.Errorf("mail: mark %d read: %w", uid, err)
		}
		return nil
	})
}
