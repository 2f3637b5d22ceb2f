// Package mail relays a delivered photo to its recipient over SMTP.
package mail

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"photobooth/internal/config"
)

// Fixed message content; the service does no templating.
const (
	Subject  = "Your PhotoBooth Picture"
	BodyText = "Here is your photo!"
)

// Mailer sends one photo attachment to one recipient. Implementations
// must be safe for concurrent use; the service calls Send from
// independent request handlers.
type Mailer interface {
	Send(to, attachmentPath string) error
}

// SMTPMailer is the production transport.
type SMTPMailer struct {
	cfg config.MailConfig
}

// NewSMTP builds a mailer from the mail configuration. Credentials are
// checked here so a misconfigured service fails at startup, not on the
// first visitor.
func NewSMTP(cfg config.MailConfig) (*SMTPMailer, error) {
	if cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("mail transport needs MAIL_USER and MAIL_PASS")
	}
	return &SMTPMailer{cfg: cfg}, nil
}

// Send dials the SMTP server and sends the photo as an attachment with
// the fixed subject and body.
func (m *SMTPMailer) Send(to, attachmentPath string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.Username)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", Subject)
	msg.SetBody("text/plain", BodyText)
	msg.Attach(attachmentPath, gomail.Rename("photo.jpg"))

	d := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	return d.DialAndSend(msg)
}
