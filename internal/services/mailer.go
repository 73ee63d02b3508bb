package services

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/gomail.v2"
)

// SMTPMailer delivers notification mail over SMTP. Delivery runs on its
// own goroutine so a slow mail server never blocks a request; failures are
// logged and discarded.
type SMTPMailer struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
}

// NewSMTPMailerFromEnv builds a mailer from MAIL_* environment variables.
// When MAIL_SERVER is not set the mailer is disabled and Send only logs.
func NewSMTPMailerFromEnv() *SMTPMailer {
	host := os.Getenv("MAIL_SERVER")

	if host == "" {
		log.Println("MAIL_SERVER not set, outbound email disabled")
		return &SMTPMailer{}
	}

	port, err := strconv.Atoi(os.Getenv("MAIL_PORT"))

	if err != nil {
		port = 587
	}

	return &SMTPMailer{
		dialer:   gomail.NewDialer(host, port, os.Getenv("MAIL_USERNAME"), os.Getenv("MAIL_PASSWORD")),
		from:     os.Getenv("MAIL_FROM"),
		fromName: os.Getenv("MAIL_FROM_NAME"),
	}
}

func (m *SMTPMailer) Send(to, subject, html string) error {
	if m.dialer == nil {
		log.Printf("Mailer disabled, skipping email to %s", to)
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.from, m.fromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)

	go func() {
		if err := m.dialer.DialAndSend(msg); err != nil {
			log.Printf("Failed to deliver email to %s: %v", to, err)
		}
	}()

	return nil
}
