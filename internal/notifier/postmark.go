package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mrz1836/postmark"

	"github.com/adamscao/certwatch/internal/config"
	"github.com/adamscao/certwatch/internal/models"
)

type postmarkClient interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

// PostmarkSink mails reports through the Postmark API
type PostmarkSink struct {
	client     postmarkClient
	from       string
	recipients []string
	subject    string
}

func NewPostmarkSink(cfg config.PostmarkConfig, recipients []string, subject string) (*PostmarkSink, error) {
	if cfg.ServerToken == "" {
		return nil, fmt.Errorf("%w: postmark server token is required", ErrInvalidSink)
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("%w: postmark from address is required", ErrInvalidSink)
	}
	recipients = cleanRecipients(recipients)
	if len(recipients) == 0 {
		return nil, fmt.Errorf("%w: at least one recipient is required", ErrInvalidSink)
	}

	return &PostmarkSink{
		client:     postmark.NewClient(cfg.ServerToken, cfg.AccountToken),
		from:       cfg.From,
		recipients: recipients,
		subject:    subject,
	}, nil
}

func (s *PostmarkSink) Name() string { return config.SinkPostmark }

func (s *PostmarkSink) Deliver(ctx context.Context, report models.NotificationReport) error {
	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:     s.from,
		To:       strings.Join(s.recipients, ","),
		Subject:  s.subject,
		Tag:      "certwatch-report",
		TextBody: RenderReport(report),
	})
	if err != nil {
		return errors.Join(ErrDelivery, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrDelivery, fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message))
	}
	return nil
}
