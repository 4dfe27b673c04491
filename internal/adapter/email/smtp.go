package email

import (
	"context"
	"fmt"
	"net/mail"

	"gopkg.in/gomail.v2"

	"loancrm/internal/config"
	"loancrm/internal/domain/notification"
)

var _ notification.Mailer = (*SMTPMailer)(nil)

// sender is satisfied by *gomail.Dialer.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPMailer struct {
	sender sender
	from   string
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// SendEmail gives up waiting when ctx ends; gomail itself cannot be
// interrupted, so the dial may still finish in the background.
func (s *SMTPMailer) SendEmail(ctx context.Context, e notification.Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m, err := s.message(e)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- s.sender.DialAndSend(m) }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send email to %s: %w", e.To, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SMTPMailer) message(e notification.Email) (*gomail.Message, error) {
	from := e.From
	if from == "" {
		from = s.from
	}
	fromAddr, err := mail.ParseAddress(from)
	if err != nil {
		return nil, fmt.Errorf("invalid from address %q: %w", from, err)
	}
	toAddr, err := mail.ParseAddress(e.To)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", e.To, err)
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", fromAddr.Address, fromAddr.Name)
	m.SetAddressHeader("To", toAddr.Address, toAddr.Name)
	if e.ReplyTo != "" {
		if rt, err := mail.ParseAddress(e.ReplyTo); err == nil {
			m.SetAddressHeader("Reply-To", rt.Address, rt.Name)
		}
	}
	m.SetHeader("Subject", e.Subject)
	m.SetBody("text/plain", e.Body)
	return m, nil
}
