package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/adamscao/certwatch/internal/auth"
	"github.com/adamscao/certwatch/internal/config"
	"github.com/adamscao/certwatch/internal/db/dbtest"
	"github.com/adamscao/certwatch/internal/metrics"
	"github.com/adamscao/certwatch/internal/models"
	"github.com/adamscao/certwatch/internal/policy"
	"github.com/adamscao/certwatch/internal/tracker"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *prometheus.Registry) {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	reg := prometheus.NewRegistry()
	svc := tracker.New(dbtest.Open(t), policy.Default(),
		tracker.WithClock(func() time.Time { return epoch }),
		tracker.WithMetrics(metrics.New(reg)))
	return NewServer(cfg, svc, zaptest.NewLogger(t), reg), reg
}

func do(s *Server, method, path, body string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

const validBody = `{"common_name":"example.com","provider_url_host":"acme-v02.api.letsencrypt.org","duration":15,"sans":["www.example.com"]}`

func TestCreateRecord(t *testing.T) {
	s, _ := newTestServer(t, nil)

	w := do(s, http.MethodPost, "/v1/records", validBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.JSONEq(t, `{"status":"ok","record_id":1}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = do(s, http.MethodGet, "/v1/hosts", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Hosts []models.HostStatus `json:"hosts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Hosts, 1)
	assert.Equal(t, "example.com", body.Hosts[0].CommonName)
	assert.Equal(t, policy.Healthy, body.Hosts[0].Status)
	assert.Equal(t, "letsencrypt", body.Hosts[0].ProviderLabel)
	assert.Equal(t, []string{"www.example.com"}, body.Hosts[0].SANs)
}

func TestCreateRecordValidation(t *testing.T) {
	s, _ := newTestServer(t, nil)

	cases := map[string]string{
		"malformed json":   `{"common_name":`,
		"missing duration": `{"common_name":"example.com","sans":[]}`,
		"zero duration":    `{"common_name":"example.com","duration":0,"sans":[]}`,
		"string duration":  `{"common_name":"example.com","duration":"15","sans":[]}`,
		"missing sans":     `{"common_name":"example.com","duration":15}`,
		"empty name":       `{"common_name":"","duration":15,"sans":[]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := do(s, http.MethodPost, "/v1/records", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), `"validation_error"`)
		})
	}

	w := do(s, http.MethodGet, "/v1/hosts", "")
	assert.JSONEq(t, `{"hosts":[]}`, w.Body.String())
}

func TestCreateRecordRequiresToken(t *testing.T) {
	token, err := auth.GenerateAgentToken()
	require.NoError(t, err)
	hash, err := auth.HashToken(token)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Ingest.TokenHashes = []string{hash}
	s, _ := newTestServer(t, cfg)

	w := do(s, http.MethodPost, "/v1/records", validBody)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(s, http.MethodPost, "/v1/records", validBody, "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(s, http.MethodPost, "/v1/records", validBody, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusCreated, w.Code)

	// dashboard routes stay open
	w = do(s, http.MethodGet, "/v1/hosts", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetHostAndReport(t *testing.T) {
	s, _ := newTestServer(t, nil)
	require.Equal(t, http.StatusCreated, do(s, http.MethodPost, "/v1/records", validBody).Code)

	w := do(s, http.MethodGet, "/v1/hosts/example.com", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"next_expected_renewal":"2024-03-11T12:00:00Z"`)

	w = do(s, http.MethodGet, "/v1/hosts/missing.example.com", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(s, http.MethodGet, "/v1/report", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"expired":[],"due_for_renewal":[],"generated_at":"2024-03-01T12:00:00Z"}`, w.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	s, _ := newTestServer(t, nil)
	require.Equal(t, http.StatusCreated, do(s, http.MethodPost, "/v1/records", validBody).Code)

	w := do(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `certwatch_ingestions_total{result="ok"} 1`)

	cfg := config.Default()
	cfg.Metrics.Enabled = false
	s, _ = newTestServer(t, cfg)
	assert.Equal(t, http.StatusNotFound, do(s, http.MethodGet, "/metrics", "").Code)
}

type failingTracker struct{ err error }

func (f failingTracker) Ingest(context.Context, tracker.IngestRequest) (*tracker.IngestResult, error) {
	return nil, f.err
}

func (f failingTracker) Status(context.Context) ([]models.HostStatus, error) { return nil, f.err }

func (f failingTracker) HostStatus(context.Context, string) (*models.HostStatus, error) {
	return nil, f.err
}

func (f failingTracker) Scan(context.Context) (*models.NotificationReport, error) { return nil, f.err }

func TestServiceErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
		body string
	}{
		{errors.Join(tracker.ErrStorage, errors.New("database is locked")), http.StatusServiceUnavailable, "storage_error"},
		{errors.Join(tracker.ErrNotFound, errors.New("gone")), http.StatusNotFound, "not_found"},
		{errors.Join(tracker.ErrValidation, errors.New("bad")), http.StatusBadRequest, "validation_error"},
		{errors.New("unexpected"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		s := NewServer(config.Default(), failingTracker{err: tc.err}, zaptest.NewLogger(t), nil)

		w := do(s, http.MethodPost, "/v1/records", validBody)
		assert.Equal(t, tc.code, w.Code)
		assert.Contains(t, w.Body.String(), tc.body)

		w = do(s, http.MethodGet, "/v1/hosts", "")
		assert.Equal(t, tc.code, w.Code)
	}
}
