package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTPMailer notifies listing owners of moderation outcomes.
type SMTPMailer struct {
	host     string
	port     int
	from     string
	password string
}

func NewSMTPMailer(host string, port int, from, password string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		from:     from,
		password: password,
	}
}

func (m *SMTPMailer) SendListingApprovedEmail(toEmail, listingName string) error {
	body := fmt.Sprintf("Good news! Your listing %q has been approved and is now visible in the directory.", listingName)
	return m.send(toEmail, "Your listing has been approved", body)
}

func (m *SMTPMailer) SendListingRejectedEmail(toEmail, listingName string) error {
	body := fmt.Sprintf("Your listing %q was not approved. You can edit it and it will be reviewed again.", listingName)
	return m.send(toEmail, "Your listing needs changes", body)
}

func (m *SMTPMailer) send(toEmail, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", toEmail)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	d := gomail.NewDialer(m.host, m.port, m.from, m.password)
	return d.DialAndSend(msg)
}
