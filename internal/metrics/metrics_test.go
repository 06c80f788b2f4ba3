package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/adamscao/certwatch/internal/policy"
)

func TestCollectors(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Ingestion(ResultOK)
	m.Ingestion(ResultOK)
	m.Ingestion(ResultInvalid)
	m.Notification("smtp", ResultUndelivered)
	m.Hosts(map[policy.Status]int{policy.Expired: 2, policy.Healthy: 5})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ingestions.WithLabelValues(ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ingestions.WithLabelValues(ResultInvalid)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("smtp", ResultUndelivered)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.hosts.WithLabelValues(string(policy.Expired))))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.hosts.WithLabelValues(string(policy.DueForRenewal))))
}

func TestScansCountEveryCaller(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Scan(ResultOK)
	m.Scan(ResultOK)
	m.Scan(ResultError)

	expected := `
# HELP certwatch_scans_total Renewal scans from any caller, by result.
# TYPE certwatch_scans_total counter
certwatch_scans_total{result="error"} 1
certwatch_scans_total{result="ok"} 2
`
	assert.NoError(t, testutil.CollectAndCompare(m.scans, strings.NewReader(expected)))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.Ingestion(ResultOK)
		m.Scan(ResultError)
		m.Notification("log", ResultDelivered)
		m.Hosts(nil)
	})
}
