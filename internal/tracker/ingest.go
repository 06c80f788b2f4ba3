package tracker

import (
	"context"
	"database/sql"
	"strings"

	"go.uber.org/zap"

	"github.com/adamscao/certwatch/internal/metrics"
	"github.com/adamscao/certwatch/internal/models"
	"github.com/adamscao/certwatch/internal/policy"
	"github.com/adamscao/certwatch/internal/provider"
)

// IngestRequest is one issuance report from an agent
type IngestRequest struct {
	CommonName      string   `json:"common_name"`
	ProviderURLHost string   `json:"provider_url_host"`
	Duration        int      `json:"duration"`
	SANs            []string `json:"sans"`
}

// IngestResult describes what an ingestion stored
type IngestResult struct {
	HostID    int64  `json:"host_id"`
	RecordID  int64  `json:"record_id"`
	SANsAdded int    `json:"sans_added"`
	Provider  string `json:"provider,omitempty"`
}

// normalize validates req and returns a cleaned copy
func (req IngestRequest) normalize() (IngestRequest, error) {
	cn := normalizeName(req.CommonName)
	if cn == "" {
		return req, validationError("common_name is required")
	}
	if !policy.ValidDuration(req.Duration) {
		return req, durationError()
	}
	if req.SANs == nil {
		return req, validationError("sans is required")
	}

	seen := map[string]bool{}
	sans := []string{}
	for _, san := range req.SANs {
		san = normalizeName(san)
		if san == "" || seen[san] {
			continue
		}
		seen[san] = true
		sans = append(sans, san)
	}

	return IngestRequest{
		CommonName:      cn,
		ProviderURLHost: req.ProviderURLHost,
		Duration:        req.Duration,
		SANs:            sans,
	}, nil
}

func normalizeName(name string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), ".")
}

// Ingest stores one issuance report. The host upsert, the record and its sans
// are written in a single transaction stamped with the server clock.
func (s *Service) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	req, err := req.normalize()
	if err != nil {
		s.metrics.Ingestion(metrics.ResultInvalid)
		return nil, err
	}

	providerHost, ok := provider.ParseHost(req.ProviderURLHost)
	if !ok && strings.TrimSpace(req.ProviderURLHost) != "" {
		s.logger.Debug("unparseable provider, storing as unknown",
			zap.String("common_name", req.CommonName),
			zap.String("provider_url_host", req.ProviderURLHost))
	}

	now := s.now()
	result := &IngestResult{Provider: providerHost}

	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		hostID, err := s.hosts.WithTx(tx).Upsert(ctx, req.CommonName, req.Duration)
		if err != nil {
			return err
		}

		recordID, err := s.records.WithTx(tx).Append(ctx, hostID, providerHost, req.Duration, now)
		if err != nil {
			return err
		}

		added, err := s.sans.WithTx(tx).Add(ctx, recordID, req.SANs)
		if err != nil {
			return err
		}

		result.HostID = hostID
		result.RecordID = recordID
		result.SANsAdded = added
		return nil
	})
	if err != nil {
		s.metrics.Ingestion(metrics.ResultError)
		s.logger.Error("ingestion failed", zap.String("common_name", req.CommonName), zap.Error(err))
		return nil, storageError(err)
	}

	s.metrics.Ingestion(metrics.ResultOK)
	s.logger.Info("issuance recorded",
		zap.String("common_name", req.CommonName),
		zap.Int64("record_id", result.RecordID),
		zap.Int("duration", req.Duration),
		zap.String("provider", providerHost),
		zap.Int("sans", len(req.SANs)))

	return result, nil
}

// Register creates a host ahead of its first issuance report, or updates the
// duration of an existing one.
func (s *Service) Register(ctx context.Context, commonName string, duration int) (*models.Host, error) {
	commonName = normalizeName(commonName)
	if commonName == "" {
		return nil, validationError("common_name is required")
	}
	if !policy.ValidDuration(duration) {
		return nil, durationError()
	}

	id, err := s.hosts.Upsert(ctx, commonName, duration)
	if err != nil {
		return nil, storageError(err)
	}

	host, err := s.hosts.GetByID(ctx, id)
	if err != nil {
		return nil, storageError(err)
	}

	return host, nil
}

// History returns a host and its most recent issuance records, newest first
func (s *Service) History(ctx context.Context, commonName string, limit int) (*models.Host, []*models.IssuanceRecord, error) {
	host, err := s.hosts.GetByCommonName(ctx, normalizeName(commonName))
	if err != nil {
		return nil, nil, storageError(err)
	}

	records, err := s.records.ListByHost(ctx, host.ID, limit)
	if err != nil {
		return nil, nil, storageError(err)
	}

	return host, records, nil
}
