package notify

import (
	"gopkg.in/gomail.v2"

	"github.com/buildwatch/buildwatch/internal/buildwatch/config"
)

const defaultSMTPPort = 587

// emailSender delivers outcomes over SMTP.
type emailSender struct {
	cfg  config.Email
	dial func(m *gomail.Message) error
}

func newEmailSender(cfg config.Email) *emailSender {
	if cfg.SMTPPort == 0 {
		cfg.SMTPPort = defaultSMTPPort
	}
	s := &emailSender{cfg: cfg}
	s.dial = func(m *gomail.Message) error {
		d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password)
		return d.DialAndSend(m)
	}
	return s
}

func (e *emailSender) name() string { return "email" }

func (e *emailSender) send(event Event) error {
	from := e.cfg.From
	if from == "" {
		from = e.cfg.Username
	}
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", e.cfg.To)
	m.SetHeader("Subject", event.Title)
	m.SetBody("text/plain", event.Message)
	return e.dial(m)
}
