package mail

import (
	"bytes"
	"testing"

	"github.com/deepgram/courier/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"
)

func TestTLSPolicy(t *testing.T) {
	assert.Equal(t, gomail.TLSMandatory, tlsPolicy(config.TLSMandatory))
	assert.Equal(t, gomail.TLSOpportunistic, tlsPolicy(config.TLSOpportunistic))
	assert.Equal(t, gomail.NoTLS, tlsPolicy(config.TLSNone))
	assert.Equal(t, gomail.TLSMandatory, tlsPolicy(""))
}

func TestBuildReply(t *testing.T) {
	s := NewSMTPSender(config.MailConfig{
		SMTPHost:     "smtp.example.edu",
		SMTPPort:     587,
		SMTPSecurity: config.TLSMandatory,
		Account:      "advisor@example.edu",
		Password:     "secret",
	})

	m, err := s.Build(Outgoing{
		To:        "jane@example.edu",
		Subject:   "Re: Course question",
		Body:      "Dear Jane,\n\nCS 330 covers databases.",
		InReplyTo: "<abc123@example.edu>",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)
	out := buf.String()

	assert.Contains(t, out, "From: <advisor@example.edu>")
	assert.Contains(t, out, "To: <jane@example.edu>")
	assert.Contains(t, out, "Subject: Re: Course question")
	assert.Contains(t, out, "In-Reply-To: <abc123@example.edu>")
	assert.Contains(t, out, "References: <abc123@example.edu>")
	assert.Contains(t, out, "CS 330 covers databases.")
}

func TestBuildWithoutThreading(t *testing.T) {
	s := NewSMTPSender(config.MailConfig{SMTPHost: "smtp.example.edu", SMTPPort: 25, Account: "advisor@example.edu"})
	m, err := s.Build(Outgoing{To: "jane@example.edu", Subject: "Hello", Body: "x"})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "In-Reply-To")
}

func TestBuildRejectsBadRecipient(t *testing.T) {
	s := NewSMTPSender(config.MailConfig{Account: "advisor@example.edu"})
	_, err := s.Build(Outgoing{To: "not an address"})
	assert.Error(t, err)
}
