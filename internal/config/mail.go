package config

const (
	TLSMandatory     = "mandatory"
	TLSOpportunistic = "opportunistic"
	TLSNone          = "none"

	DefaultWrapWidth = 70
)

// MailConfig holds the IMAP inbox and SMTP relay settings.
type MailConfig struct {
	IMAPHost     string `yaml:"imap_host" split_words:"true"`
	IMAPPort     int    `yaml:"imap_port" split_words:"true"`
	IMAPSecurity string `yaml:"imap_security" split_words:"true"`
	Account      string `yaml:"account" split_words:"true"`
	Password     string `yaml:"password" split_words:"true"`
	Folder       string `yaml:"folder" split_words:"true"`
	SMTPHost     string `yaml:"smtp_host" split_words:"true"`
	SMTPPort     int    `yaml:"smtp_port" split_words:"true"`
	SMTPSecurity string `yaml:"smtp_security" split_words:"true"`
	WrapWidth    int    `yaml:"wrap_width" split_words:"true"`
}

func (c *MailConfig) applyDefaults() {
	if c.IMAPPort == 0 {
		c.IMAPPort = 993
	}
	if c.IMAPSecurity == "" {
		c.IMAPSecurity = TLSMandatory
	}
	if c.Folder == "" {
		c.Folder = "INBOX"
	}
	if c.SMTPPort == 0 {
		c.SMTPPort = 587
	}
	if c.SMTPSecurity == "" {
		c.SMTPSecurity = TLSMandatory
	}
	if c.WrapWidth == 0 {
		c.WrapWidth = DefaultWrapWidth
	}
}

// Require reports what is missing for a mail batch run.
func (c MailConfig) Require() error {
	var errs []string
	if c.IMAPHost == "" {
		errs = append(errs, "mail.imap_host is required")
	}
	if c.SMTPHost == "" {
		errs = append(errs, "mail.smtp_host is required")
	}
	if c.Account == "" || c.Password == "" {
		errs = append(errs, "mail.account and mail.password are required")
	}
	for _, f := range []struct{ key, value string }{
		{"imap_security", c.IMAPSecurity},
		{"smtp_security", c.SMTPSecurity},
	} {
		switch f.value {
		case TLSMandatory, TLSOpportunistic, TLSNone:
		default:
			errs = append(errs, "mail."+f.key+" must be one of mandatory, opportunistic, none")
		}
	}
	return joinErrors("mail", errs)
}
