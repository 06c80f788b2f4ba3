// Package policy classifies a host's renewal health from its most recent issuance.
//
// Renewal is expected a fixed fraction of the way through the validity window
// (2/3 by default) and the certificate counts as expired once the full window
// has elapsed. All arithmetic is done in whole seconds.
package policy

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Status is the renewal health of a host
type Status string

const (
	Healthy       Status = "healthy"
	DueForRenewal Status = "due_for_renewal"
	Expired       Status = "expired"
	// Unknown is reported for hosts that never had an issuance record
	Unknown Status = "unknown"
)

const secondsPerDay = 24 * 60 * 60

// MaxDurationDays is the longest accepted validity window (100 years)
const MaxDurationDays = 36500

// Fraction bounds. With MaxDurationDays they keep every threshold within
// the range of time.Duration.
const (
	maxFractionTerm  = 1000
	maxFractionValue = 2
)

// Fraction is a non-negative rational number num/den
type Fraction struct {
	Num int64
	Den int64
}

// ParseFraction parses "2/3" or a whole number such as "1"
func ParseFraction(s string) (Fraction, error) {
	s = strings.TrimSpace(s)
	num, den, found := strings.Cut(s, "/")
	if !found {
		den = "1"
	}

	n, err := strconv.ParseInt(strings.TrimSpace(num), 10, 64)
	if err != nil {
		return Fraction{}, fmt.Errorf("invalid numerator in %q", s)
	}
	d, err := strconv.ParseInt(strings.TrimSpace(den), 10, 64)
	if err != nil {
		return Fraction{}, fmt.Errorf("invalid denominator in %q", s)
	}

	f := Fraction{Num: n, Den: d}
	if err := f.validate(); err != nil {
		return Fraction{}, err
	}

	return f, nil
}

func (f Fraction) validate() error {
	if f.Den <= 0 {
		return fmt.Errorf("fraction %d/%d must have a positive denominator", f.Num, f.Den)
	}
	if f.Num <= 0 {
		return fmt.Errorf("fraction %d/%d must be positive", f.Num, f.Den)
	}
	if f.Num > maxFractionTerm || f.Den > maxFractionTerm {
		return fmt.Errorf("fraction %d/%d terms must not exceed %d", f.Num, f.Den, maxFractionTerm)
	}
	if f.Num > maxFractionValue*f.Den {
		return fmt.Errorf("fraction %d/%d must not exceed %d", f.Num, f.Den, maxFractionValue)
	}
	return nil
}

// less reports f < o
func (f Fraction) less(o Fraction) bool {
	return f.Num*o.Den < o.Num*f.Den
}

func (f Fraction) String() string {
	return fmt.Sprintf("%d/%d", f.Num, f.Den)
}

// of returns the fraction of durationDays, truncated to whole seconds.
// durationDays is clamped to [0, MaxDurationDays].
func (f Fraction) of(durationDays int) time.Duration {
	durationDays = min(max(durationDays, 0), MaxDurationDays)
	secs := int64(durationDays) * secondsPerDay * f.Num / f.Den
	return time.Duration(secs) * time.Second
}

// Policy holds the renewal and expiry thresholds
type Policy struct {
	RenewalAfter Fraction
	ExpiryAfter  Fraction
}

// Default returns the 2/3 renewal, 1/1 expiry policy
func Default() Policy {
	return Policy{
		RenewalAfter: Fraction{Num: 2, Den: 3},
		ExpiryAfter:  Fraction{Num: 1, Den: 1},
	}
}

// Validate checks that both fractions are positive and renewal comes before expiry
func (p Policy) Validate() error {
	if err := p.RenewalAfter.validate(); err != nil {
		return fmt.Errorf("renewal threshold: %w", err)
	}
	if err := p.ExpiryAfter.validate(); err != nil {
		return fmt.Errorf("expiry threshold: %w", err)
	}
	if !p.RenewalAfter.less(p.ExpiryAfter) {
		return fmt.Errorf("renewal threshold %s must be below expiry threshold %s", p.RenewalAfter, p.ExpiryAfter)
	}
	return nil
}

// Thresholds holds the derived points in time for one issuance
type Thresholds struct {
	RenewAt  time.Time
	ExpireAt time.Time
}

// ValidDuration reports whether durationDays is an accepted validity window
func ValidDuration(durationDays int) bool {
	return durationDays > 0 && durationDays <= MaxDurationDays
}

// ThresholdsFor derives the renewal and expiry points for an issuance at issuedAt
func (p Policy) ThresholdsFor(issuedAt time.Time, durationDays int) Thresholds {
	issuedAt = issuedAt.UTC().Truncate(time.Second)

	return Thresholds{
		RenewAt:  issuedAt.Add(p.RenewalAfter.of(durationDays)),
		ExpireAt: issuedAt.Add(p.ExpiryAfter.of(durationDays)),
	}
}

// Classify evaluates the thresholds at now, with second precision
func (t Thresholds) Classify(now time.Time) Status {
	now = now.UTC().Truncate(time.Second)

	switch {
	case now.Before(t.RenewAt):
		return Healthy
	case now.Before(t.ExpireAt):
		return DueForRenewal
	default:
		return Expired
	}
}

// NeedsAttention reports whether a status should be included in notifications
func (s Status) NeedsAttention() bool {
	return s == DueForRenewal || s == Expired
}
