package models

import "time"

// IssuanceRecord is one reported certificate issuance. Records are never updated.
type IssuanceRecord struct {
	ID        int64     `json:"id"`
	HostID    int64     `json:"host_id"`
	Timestamp time.Time `json:"timestamp"`
	Provider  string    `json:"provider,omitempty"` // raw issuer hostname, empty when unknown
	Duration  int       `json:"duration"`           // duration in effect at issuance, days
	SANs      []string  `json:"sans,omitempty"`
}

// LatestRecord pairs a host with its most recent issuance. Record is nil for
// hosts that were never issued a certificate.
type LatestRecord struct {
	Host   Host
	Record *IssuanceRecord
}
