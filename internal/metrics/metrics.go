// Package metrics exposes certwatch's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/adamscao/certwatch/internal/policy"
)

const namespace = "certwatch"

// Result label values
const (
	ResultOK          = "ok"
	ResultInvalid     = "invalid"
	ResultError       = "error"
	ResultSkipped     = "skipped"
	ResultDelivered   = "delivered"
	ResultUndelivered = "undelivered"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	ingestions    *prometheus.CounterVec
	scans         *prometheus.CounterVec
	notifications *prometheus.CounterVec
	hosts         *prometheus.GaugeVec
}

// New registers the collectors with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ingestions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingestions_total",
			Help:      "Issuance reports received, by result.",
		}, []string{"result"}),
		scans: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Renewal scans from any caller, by result.",
		}, []string{"result"}),
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification deliveries, by sink and result.",
		}, []string{"sink", "result"}),
		hosts: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hosts",
			Help:      "Hosts per renewal status at the last evaluation.",
		}, []string{"status"}),
	}
}

// Ingestion counts one ingestion call
func (m *Metrics) Ingestion(result string) {
	if m == nil {
		return
	}
	m.ingestions.WithLabelValues(result).Inc()
}

// Scan counts one renewal scan, whoever requested it
func (m *Metrics) Scan(result string) {
	if m == nil {
		return
	}
	m.scans.WithLabelValues(result).Inc()
}

// Notification counts one delivery attempt
func (m *Metrics) Notification(sink, result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(sink, result).Inc()
}

// Hosts records the number of hosts per status
func (m *Metrics) Hosts(counts map[policy.Status]int) {
	if m == nil {
		return
	}
	for _, status := range []policy.Status{policy.Healthy, policy.DueForRenewal, policy.Expired, policy.Unknown} {
		m.hosts.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
}
