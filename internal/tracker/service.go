// Package tracker records certificate issuances and derives each host's
// renewal status from its latest record.
package tracker

import (
	"time"

	"go.uber.org/zap"

	"github.com/adamscao/certwatch/internal/db"
	"github.com/adamscao/certwatch/internal/db/repository"
	"github.com/adamscao/certwatch/internal/metrics"
	"github.com/adamscao/certwatch/internal/policy"
)

// Service is the tracker. It is safe for concurrent use.
type Service struct {
	db      *db.DB
	hosts   *repository.HostRepository
	records *repository.RecordRepository
	sans    *repository.SANRepository
	policy  policy.Policy
	clock   func() time.Time
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the time source used to stamp records and evaluate status
func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the metrics sink
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New creates a tracker over an already migrated database
func New(database *db.DB, p policy.Policy, opts ...Option) *Service {
	s := &Service{
		db:      database,
		hosts:   repository.NewHostRepository(database),
		records: repository.NewRecordRepository(database),
		sans:    repository.NewSANRepository(database),
		policy:  p,
		clock:   time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the renewal policy in effect
func (s *Service) Policy() policy.Policy {
	return s.policy
}

func (s *Service) now() time.Time {
	return s.clock().UTC().Truncate(time.Second)
}
