package jobs

import (
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

// Message is a plain-text e-mail.
type Message struct {
	To      []string
	ReplyTo string
	Subject string
	Body    string
}

// Mailer delivers e-mail.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer relays through an unauthenticated SMTP server such as a local relay or Mailpit.
type SMTPMailer struct {
	addr string
	from string
	now  func() time.Time
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer constructs a mailer for host:port.
func NewSMTPMailer(host string, port int, from string) *SMTPMailer {
	return &SMTPMailer{
		addr: net.JoinHostPort(host, strconv.Itoa(port)),
		from: from,
		now:  time.Now,
		send: smtp.SendMail,
	}
}

// Send implements Mailer.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return errors.New("mailer: no recipient")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.send(m.addr, nil, m.from, msg.To, m.compose(msg)); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", strings.Join(msg.To, ","), err)
	}
	return nil
}

func (m *SMTPMailer) compose(msg Message) []byte {
	var b strings.Builder
	header := func(k, v string) {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("\r\n")
	}
	header("From", m.from)
	header("To", strings.Join(msg.To, ", "))
	if msg.ReplyTo != "" {
		header("Reply-To", msg.ReplyTo)
	}
	header("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	header("Date", m.now().Format(time.RFC1123Z))
	header("MIME-Version", "1.0")
	header("Content-Type", "text/plain; charset=utf-8")
	header("Content-Transfer-Encoding", "8bit")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}
