// Package mail delivers the confirmation links of new registrations.
package mail

import (
	"bytes"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/balccon/balcconator/core"
	"github.com/rs/zerolog/log"
)

var confirmationTmpl = template.Must(template.New("").Parse(`Hello {{.Name}},

thank you for registering at the BalCCon conference site. Please confirm your registration by visiting this link:

{{.Link}}

If you have not registered, you can ignore this mail.
`))

// Message returns the complete mail including headers. Lines end with CRLF.
func Message(from string, to *core.Account, link string) ([]byte, error) {

	var body bytes.Buffer
	err := confirmationTmpl.Execute(&body, struct {
		Name string
		Link string
	}{to.Name(), link})
	if err != nil {
		return nil, err
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", to.Email)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", "Confirm your registration"))
	fmt.Fprintf(&msg, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(strings.ReplaceAll(body.String(), "\n", "\r\n"))
	return msg.Bytes(), nil
}

// SMTP sends mails through a relay. Authentication is used if a username is configured.
type SMTP struct {
	core.MailConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error // smtp.SendMail, replaced in tests
}

func NewSMTP(cfg core.MailConfig) *SMTP {
	return &SMTP{
		MailConfig: cfg,
		send:       smtp.SendMail,
	}
}

func (s *SMTP) SendConfirmation(to *core.Account, link string) error {

	if to.Email == "" {
		return core.ErrMissingEmail
	}

	msg, err := Message(s.From, to, link)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if s.Username != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, s.Host)
	}

	var addr = net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	if err := s.send(addr, auth, s.From, []string{to.Email}, msg); err != nil {
		return fmt.Errorf("sending mail to %s via %s: %w", to.Email, addr, err)
	}

	log.Info().Str("username", to.Username).Msg("confirmation mail sent")
	return nil
}

// Log writes confirmation links to the log instead of sending them. It is used when no SMTP host is configured.
type Log struct{}

func (Log) SendConfirmation(to *core.Account, link string) error {
	log.Warn().Str("username", to.Username).Str("email", to.Email).Str("link", link).Msg("no mail server configured, confirmation link not sent")
	return nil
}

// New returns an SMTP mailer if a host is configured, else a Log mailer.
func New(cfg core.MailConfig) core.Mailer {
	if cfg.Host == "" {
		return Log{}
	}
	return NewSMTP(cfg)
}
