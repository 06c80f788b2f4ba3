package tracker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/adamscao/certwatch/internal/metrics"
	"github.com/adamscao/certwatch/internal/models"
	"github.com/adamscao/certwatch/internal/policy"
	"github.com/adamscao/certwatch/internal/provider"
)

// Status evaluates every host against the policy at the current time.
// Hosts are ordered by common name.
func (s *Service) Status(ctx context.Context) ([]models.HostStatus, error) {
	latest, err := s.records.LatestPerHost(ctx)
	if err != nil {
		return nil, storageError(err)
	}

	statuses := s.evaluate(latest)
	s.metrics.Hosts(countByStatus(statuses))
	return statuses, nil
}

// HostStatus evaluates a single host
func (s *Service) HostStatus(ctx context.Context, commonName string) (*models.HostStatus, error) {
	host, err := s.hosts.GetByCommonName(ctx, normalizeName(commonName))
	if err != nil {
		return nil, storageError(err)
	}

	records, err := s.records.ListByHost(ctx, host.ID, 1)
	if err != nil {
		return nil, storageError(err)
	}

	latest := models.LatestRecord{Host: *host}
	if len(records) > 0 {
		latest.Record = records[0]
	}

	status := s.evaluateOne(latest, s.now())
	return &status, nil
}

// Scan builds the notification report: the hosts whose latest issuance is
// past the expiry or the renewal threshold. Hosts without records are left out.
func (s *Service) Scan(ctx context.Context) (*models.NotificationReport, error) {
	statuses, err := s.Status(ctx)
	if err != nil {
		s.metrics.Scan(metrics.ResultError)
		return nil, err
	}

	report := &models.NotificationReport{
		Expired:       []string{},
		DueForRenewal: []string{},
		GeneratedAt:   s.now(),
	}
	for _, st := range statuses {
		if !st.Status.NeedsAttention() {
			continue
		}
		if st.Status == policy.Expired {
			report.Expired = append(report.Expired, st.CommonName)
		} else {
			report.DueForRenewal = append(report.DueForRenewal, st.CommonName)
		}
	}

	s.metrics.Scan(metrics.ResultOK)
	s.logger.Debug("scan complete",
		zap.Int("hosts", len(statuses)),
		zap.Int("expired", len(report.Expired)),
		zap.Int("due_for_renewal", len(report.DueForRenewal)))

	return report, nil
}

func (s *Service) evaluate(latest []models.LatestRecord) []models.HostStatus {
	now := s.now()
	statuses := make([]models.HostStatus, 0, len(latest))
	for _, l := range latest {
		statuses = append(statuses, s.evaluateOne(l, now))
	}
	return statuses
}

// evaluateOne classifies a host using its current duration, not the duration
// snapshot on the record.
func (s *Service) evaluateOne(l models.LatestRecord, now time.Time) models.HostStatus {
	st := models.HostStatus{
		CommonName:    l.Host.CommonName,
		Duration:      l.Host.Duration,
		ProviderLabel: provider.UnknownLabel,
		SANs:          []string{},
		Status:        policy.Unknown,
	}
	if l.Record == nil {
		return st
	}

	issued := l.Record.Timestamp
	th := s.policy.ThresholdsFor(issued, l.Host.Duration)

	st.MostRecentTimestamp = &issued
	st.NextExpectedRenewal = &th.RenewAt
	st.ExpiresAt = &th.ExpireAt
	st.ProviderLabel = provider.Label(l.Record.Provider)
	if l.Record.Provider != "" {
		p := l.Record.Provider
		st.Provider = &p
	}
	if l.Record.SANs != nil {
		st.SANs = l.Record.SANs
	}
	st.Status = th.Classify(now)

	return st
}

func countByStatus(statuses []models.HostStatus) map[policy.Status]int {
	counts := map[policy.Status]int{}
	for _, st := range statuses {
		counts[st.Status]++
	}
	return counts
}
