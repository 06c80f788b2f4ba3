package notifier

import (
	"context"
	"errors"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/adamscao/certwatch/internal/config"
	"github.com/adamscao/certwatch/internal/models"
)

type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSink mails reports through an SMTP relay
type SMTPSink struct {
	sender     mailSender
	from       string
	recipients []string
	subject    string
}

// NewSMTPSink creates an SMTP sink. Credentials are optional.
func NewSMTPSink(cfg config.SMTPConfig, recipients []string, subject string) (*SMTPSink, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("%w: smtp host is required", ErrInvalidSink)
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("%w: smtp from address is required", ErrInvalidSink)
	}
	recipients = cleanRecipients(recipients)
	if len(recipients) == 0 {
		return nil, fmt.Errorf("%w: at least one recipient is required", ErrInvalidSink)
	}

	return &SMTPSink{
		sender:     gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:       cfg.From,
		recipients: recipients,
		subject:    subject,
	}, nil
}

func (s *SMTPSink) Name() string { return config.SinkSMTP }

func (s *SMTPSink) Deliver(ctx context.Context, report models.NotificationReport) error {
	if err := ctx.Err(); err != nil {
		return errors.Join(ErrDelivery, err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", s.recipients...)
	m.SetHeader("Subject", s.subject)
	m.SetBody("text/plain", RenderReport(report))

	if err := s.sender.DialAndSend(m); err != nil {
		return errors.Join(ErrDelivery, err)
	}
	return nil
}
