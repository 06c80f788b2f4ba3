package models

import (
	"time"

	"github.com/adamscao/certwatch/internal/policy"
)

// HostStatus is the derived renewal state of a host
type HostStatus struct {
	CommonName          string        `json:"common_name"`
	Duration            int           `json:"duration"`
	MostRecentTimestamp *time.Time    `json:"most_recent_timestamp"`
	NextExpectedRenewal *time.Time    `json:"next_expected_renewal"`
	ExpiresAt           *time.Time    `json:"expires_at"`
	Provider            *string       `json:"provider"`
	ProviderLabel       string        `json:"provider_label"`
	SANs                []string      `json:"sans"`
	Status              policy.Status `json:"status"`
}

// NotificationReport lists the hosts that need operator attention
type NotificationReport struct {
	Expired       []string  `json:"expired"`
	DueForRenewal []string  `json:"due_for_renewal"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// Empty reports whether no host needs attention
func (r NotificationReport) Empty() bool {
	return len(r.Expired) == 0 && len(r.DueForRenewal) == 0
}
