package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer sends plain-text mail through one SMTP relay.
type Mailer struct {
	config MailConfig
	send   sendMailFunc
	now    func() time.Time
}

func NewMailer(config MailConfig) *Mailer {
	if config.Port == 0 {
		config.Port = 587
	}
	return &Mailer{config: config, send: smtp.SendMail, now: time.Now}
}

func (m *Mailer) Configured() bool {
	return m != nil && strings.TrimSpace(m.config.Host) != "" && strings.TrimSpace(m.config.From) != "" && len(m.config.To) > 0
}

// Send delivers one message to the configured recipients. replyTo may be empty.
func (m *Mailer) Send(ctx context.Context, subject, body, replyTo string) error {
	if !m.Configured() {
		return errors.New("smtp is not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if m.config.Username != "" {
		auth = smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	}
	addr := net.JoinHostPort(m.config.Host, strconv.Itoa(m.config.Port))
	msg := buildMessage(m.config.From, m.config.To, replyTo, subject, body, m.now())
	if err := m.send(addr, auth, m.config.From, m.config.To, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func buildMessage(from string, to []string, replyTo, subject, body string, date time.Time) []byte {
	var buf bytes.Buffer
	header := func(k, v string) {
		buf.WriteString(k + ": " + v + "\r\n")
	}
	header("From", from)
	header("To", strings.Join(to, ", "))
	if replyTo = sanitizeHeader(replyTo); replyTo != "" {
		header("Reply-To", replyTo)
	}
	header("Subject", mime.QEncoding.Encode("utf-8", sanitizeHeader(subject)))
	header("Date", date.Format(time.RFC1123Z))
	header("MIME-Version", "1.0")
	header("Content-Type", `text/plain; charset="utf-8"`)
	header("Content-Transfer-Encoding", "8bit")
	buf.WriteString("\r\n")
	buf.WriteString(strings.ReplaceAll(strings.ReplaceAll(body, "\r\n", "\n"), "\n", "\r\n"))
	return buf.Bytes()
}

// sanitizeHeader strips line breaks so form input cannot inject headers.
func sanitizeHeader(v string) string {
	v = strings.ReplaceAll(v, "\r", " ")
	v = strings.ReplaceAll(v, "\n", " ")
	return strings.TrimSpace(v)
}
