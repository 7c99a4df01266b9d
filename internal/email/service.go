package email

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gopkg.in/gomail.v2"
)

// QRCard is a rendered QR card sent as HTML with the PNG attached.
type QRCard struct {
	To       string
	Subject  string
	HTML     string
	PNG      []byte
	Filename string
}

type Service interface {
	SendQRCard(ctx context.Context, card QRCard) error
	SendCustom(ctx context.Context, to string, subject string, content string) error
}

// Sender delivers composed messages. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpService struct {
	sender Sender
	from   string
}

func NewSMTPService(cfg Config) Service {
	return NewService(gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), cfg.From)
}

func NewService(sender Sender, from string) Service {
	return &smtpService{sender: sender, from: from}
}

func (s *smtpService) SendQRCard(ctx context.Context, card QRCard) error {
	if card.To == "" {
		return errors.New("recipient is required")
	}
	if card.Filename == "" {
		card.Filename = "qrcode.png"
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", card.To)
	m.SetHeader("Subject", card.Subject)
	m.SetBody("text/html", card.HTML)
	if len(card.PNG) > 0 {
		png := card.PNG
		m.Attach(card.Filename, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(png)
			return err
		}))
	}

	return s.send(ctx, m)
}

func (s *smtpService) SendCustom(ctx context.Context, to string, subject string, content string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", content)
	return s.send(ctx, m)
}

func (s *smtpService) send(ctx context.Context, m *gomail.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
