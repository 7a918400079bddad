package notify

import (
	"gopkg.in/gomail.v2"
)

// Message is one transactional email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers a single message synchronously. Delivery retries and
// failure tracking live in the outbox worker, not here.
type Mailer interface {
	Send(msg Message) error
}

// SMTPMailer sends mail through an SMTP relay via gomail.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (m *SMTPMailer) Send(msg Message) error {
	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTML)
	return m.dialer.DialAndSend(gm)
}
