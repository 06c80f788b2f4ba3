package notifier

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/adamscao/certwatch/internal/metrics"
	"github.com/adamscao/certwatch/internal/models"
)

type scannerFunc func(ctx context.Context) (*models.NotificationReport, error)

func (f scannerFunc) Scan(ctx context.Context) (*models.NotificationReport, error) { return f(ctx) }

func staticScanner(report models.NotificationReport) Scanner {
	return scannerFunc(func(context.Context) (*models.NotificationReport, error) {
		r := report
		return &r, nil
	})
}

type fakeSink struct {
	mu        sync.Mutex
	delivered []models.NotificationReport
	attempts  atomic.Int32
	fail      func(attempt int32) error
}

func (s *fakeSink) Name() string { return "fake" }

func (s *fakeSink) Deliver(_ context.Context, report models.NotificationReport) error {
	n := s.attempts.Add(1)
	if s.fail != nil {
		if err := s.fail(n); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivered = append(s.delivered, report)
	return nil
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.delivered)
}

type fakeRecorder struct {
	mu   sync.Mutex
	logs []*models.NotificationLog
}

func (r *fakeRecorder) Create(_ context.Context, log *models.NotificationLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, log)
	return nil
}

var attention = models.NotificationReport{
	Expired:       []string{"old.example.com"},
	DueForRenewal: []string{"due.example.com"},
	GeneratedAt:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
}

func TestRunOnceDeliversReport(t *testing.T) {
	sink := &fakeSink{}
	recorder := &fakeRecorder{}
	s := New(staticScanner(attention), sink, WithRecorder(recorder), WithLogger(zaptest.NewLogger(t)))

	report, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, attention.Expired, report.Expired)

	require.Equal(t, 1, sink.count())
	assert.Equal(t, attention, sink.delivered[0])

	require.Len(t, recorder.logs, 1)
	assert.True(t, recorder.logs[0].Success)
	assert.Equal(t, 1, recorder.logs[0].ExpiredCount)
	assert.Equal(t, 1, recorder.logs[0].DueCount)
	assert.JSONEq(t, `{"expired":["old.example.com"],"due_for_renewal":["due.example.com"]}`, recorder.logs[0].Hosts)
}

func TestRunOnceSkipsEmptyReport(t *testing.T) {
	sink := &fakeSink{}
	recorder := &fakeRecorder{}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	s := New(staticScanner(models.NotificationReport{}), sink, WithRecorder(recorder), WithMetrics(m))

	report, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Empty())
	assert.Zero(t, sink.attempts.Load())
	assert.Empty(t, recorder.logs)
}

func TestRunOnceDeliveryFailure(t *testing.T) {
	sink := &fakeSink{fail: func(int32) error { return errors.New("relay down") }}
	recorder := &fakeRecorder{}
	s := New(staticScanner(attention), sink, WithRecorder(recorder))

	report, err := s.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrDelivery)
	assert.NotNil(t, report)

	require.Len(t, recorder.logs, 1)
	assert.False(t, recorder.logs[0].Success)
	assert.Contains(t, recorder.logs[0].ErrorMsg, "relay down")
}

func TestRunOnceScanFailure(t *testing.T) {
	sink := &fakeSink{}
	s := New(scannerFunc(func(context.Context) (*models.NotificationReport, error) {
		return nil, errors.New("database is locked")
	}), sink)

	_, err := s.RunOnce(context.Background())
	assert.Error(t, err)
	assert.Zero(t, sink.attempts.Load())
}

func TestRunOnceAppliesScanTimeout(t *testing.T) {
	var deadline time.Time
	s := New(scannerFunc(func(ctx context.Context) (*models.NotificationReport, error) {
		deadline, _ = ctx.Deadline()
		return &models.NotificationReport{}, nil
	}), &fakeSink{}, WithScanTimeout(time.Second))

	start := time.Now()
	_, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.WithinDuration(t, start.Add(time.Second), deadline, 500*time.Millisecond)
}

func TestSchedulerLifecycle(t *testing.T) {
	s := New(staticScanner(models.NotificationReport{}), &fakeSink{}, WithInterval(time.Hour))

	assert.ErrorIs(t, s.Stop(), ErrNotRunning)

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.ErrorIs(t, s.Stop(), ErrNotRunning)

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop())
}

func TestSinkFailureDoesNotStopLaterFirings(t *testing.T) {
	sink := &fakeSink{fail: func(attempt int32) error {
		if attempt == 1 {
			return errors.New("temporary failure")
		}
		return nil
	}}
	s := New(staticScanner(attention), sink, WithInterval(10*time.Millisecond), WithLogger(zaptest.NewLogger(t)))

	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop() })

	require.Eventually(t, func() bool { return sink.count() >= 2 }, 2*time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, sink.attempts.Load(), int32(3))
}

func TestPanicInFiringIsRecovered(t *testing.T) {
	var calls atomic.Int32
	scanner := scannerFunc(func(context.Context) (*models.NotificationReport, error) {
		if calls.Add(1) == 1 {
			panic("boom")
		}
		return &models.NotificationReport{}, nil
	})
	reg := prometheus.NewRegistry()
	s := New(scanner, &fakeSink{}, WithInterval(10*time.Millisecond), WithMetrics(metrics.New(reg)))

	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop() })

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "certwatch_scans_total"))
}

func TestRunStopsOnContextCancel(t *testing.T) {
	fired := make(chan struct{}, 1)
	scanner := scannerFunc(func(context.Context) (*models.NotificationReport, error) {
		select {
		case fired <- struct{}{}:
		default:
		}
		return &models.NotificationReport{}, nil
	})
	s := New(scanner, &fakeSink{}, WithInterval(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx)() }()

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not start the loop")
	}
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.ErrorIs(t, s.Stop(), ErrNotRunning)
}
