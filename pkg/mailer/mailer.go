// Package mailer delivers plain text emails over SMTP.
package mailer

import (
	"gopkg.in/gomail.v2"
)

// Config carries SMTP connection settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer sends messages through a single SMTP account.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func New(cfg Config) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// Send delivers one plain text message. Each call dials a fresh connection;
// batch sizes are small enough that connection reuse is not worth the state.
func (m *Mailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return m.dialer.DialAndSend(msg)
}
