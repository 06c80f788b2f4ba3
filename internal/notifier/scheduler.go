// Package notifier periodically scans tracked hosts and delivers a report of
// the certificates that need renewal.
package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adamscao/certwatch/internal/metrics"
	"github.com/adamscao/certwatch/internal/models"
)

// Scanner produces the current notification report
type Scanner interface {
	Scan(ctx context.Context) (*models.NotificationReport, error)
}

// Recorder persists delivery attempts
type Recorder interface {
	Create(ctx context.Context, log *models.NotificationLog) error
}

// Scheduler runs a scan and delivery on a fixed interval. It is either
// stopped or running; Start and Stop move between the two.
type Scheduler struct {
	scanner     Scanner
	sink        Sink
	recorder    Recorder
	interval    time.Duration
	scanTimeout time.Duration
	logger      *zap.Logger
	metrics     *metrics.Metrics

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Scheduler
type Option func(*Scheduler)

func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithScanTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.scanTimeout = d
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(s *Scheduler) { s.recorder = r }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// New creates a stopped scheduler
func New(scanner Scanner, sink Sink, opts ...Option) *Scheduler {
	s := &Scheduler{
		scanner:     scanner,
		sink:        sink,
		interval:    12 * time.Hour,
		scanTimeout: 2 * time.Minute,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the scan loop. The first firing happens immediately. The
// loop runs until Stop is called or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return ErrAlreadyRunning
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)

	s.logger.Info("scheduler started",
		zap.Duration("interval", s.interval),
		zap.String("sink", s.sink.Name()))

	return nil
}

// Stop cancels the loop and waits for an in-flight firing to finish
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if s.cancel == nil {
		s.mu.Unlock()
		return ErrNotRunning
	}
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	cancel()
	<-done

	s.logger.Info("scheduler stopped")
	return nil
}

// Run starts the scheduler and blocks until ctx is cancelled, then stops it.
// It fits errgroup.Group.Go.
func (s *Scheduler) Run(ctx context.Context) func() error {
	return func() error {
		if err := s.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		if err := s.Stop(); err != nil && !errors.Is(err, ErrNotRunning) {
			return err
		}
		return nil
	}
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.fire(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fire(ctx)
		}
	}
}

// fire runs one firing. Errors and panics are logged and never stop the loop.
func (s *Scheduler) fire(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.metrics.Scan(metrics.ResultError)
			s.logger.Error("scan panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()

	if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("scheduled scan failed", zap.Error(err))
	}
}

// RunOnce scans and, when any host needs attention, delivers the report
// through the sink. The report is returned even when delivery fails.
func (s *Scheduler) RunOnce(ctx context.Context) (*models.NotificationReport, error) {
	logger := s.logger.With(zap.String("scan_id", uuid.NewString()))

	scanCtx, cancel := context.WithTimeout(ctx, s.scanTimeout)
	defer cancel()

	report, err := s.scanner.Scan(scanCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan hosts: %w", err)
	}

	if report.Empty() {
		s.metrics.Notification(s.sink.Name(), metrics.ResultSkipped)
		logger.Debug("no certificates need attention")
		return report, nil
	}

	err = s.sink.Deliver(scanCtx, *report)
	if err != nil && !errors.Is(err, ErrDelivery) {
		err = errors.Join(ErrDelivery, err)
	}
	s.record(ctx, logger, report, err)

	if err != nil {
		s.metrics.Notification(s.sink.Name(), metrics.ResultUndelivered)
		return report, err
	}

	s.metrics.Notification(s.sink.Name(), metrics.ResultDelivered)
	logger.Info("notification delivered",
		zap.String("sink", s.sink.Name()),
		zap.Int("expired", len(report.Expired)),
		zap.Int("due_for_renewal", len(report.DueForRenewal)))

	return report, nil
}

func (s *Scheduler) record(ctx context.Context, logger *zap.Logger, report *models.NotificationReport, deliveryErr error) {
	if s.recorder == nil {
		return
	}

	hosts, err := json.Marshal(map[string][]string{
		"expired":         report.Expired,
		"due_for_renewal": report.DueForRenewal,
	})
	if err != nil {
		logger.Warn("failed to encode notification hosts", zap.Error(err))
		return
	}

	entry := &models.NotificationLog{
		SentAt:       report.GeneratedAt,
		Sink:         s.sink.Name(),
		ExpiredCount: len(report.Expired),
		DueCount:     len(report.DueForRenewal),
		Hosts:        string(hosts),
		Success:      deliveryErr == nil,
	}
	if deliveryErr != nil {
		entry.ErrorMsg = deliveryErr.Error()
	}

	if err := s.recorder.Create(ctx, entry); err != nil {
		logger.Warn("failed to record notification", zap.Error(err))
	}
}
