package notifier

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/adamscao/certwatch/internal/config"
	"github.com/adamscao/certwatch/internal/models"
)

// Sink delivers a report to operators
type Sink interface {
	Name() string
	Deliver(ctx context.Context, report models.NotificationReport) error
}

// NewSink builds the sink selected by cfg.Sink
func NewSink(cfg config.NotifyConfig, logger *zap.Logger) (Sink, error) {
	switch cfg.Sink {
	case config.SinkLog, "":
		return NewLogSink(logger), nil
	case config.SinkSMTP:
		return NewSMTPSink(cfg.SMTP, cfg.Recipients, cfg.Subject)
	case config.SinkPostmark:
		return NewPostmarkSink(cfg.Postmark, cfg.Recipients, cfg.Subject)
	default:
		return nil, fmt.Errorf("%w: unknown sink %q", ErrInvalidSink, cfg.Sink)
	}
}

// LogSink writes reports to the log
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a sink that logs at warn level
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return config.SinkLog }

func (s *LogSink) Deliver(_ context.Context, report models.NotificationReport) error {
	s.logger.Warn("certificates need attention",
		zap.Strings("expired", report.Expired),
		zap.Strings("due_for_renewal", report.DueForRenewal),
		zap.Time("generated_at", report.GeneratedAt))
	return nil
}

func cleanRecipients(recipients []string) []string {
	var out []string
	for _, r := range recipients {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
