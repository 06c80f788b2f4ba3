// Package provider turns certificate-acquisition URLs into issuer hostnames and short labels.
package provider

import (
	"net"
	"net/url"
	"strings"
)

// UnknownLabel is shown for records stored without a provider
const UnknownLabel = "unknown"

// Rule maps hostnames ending in Suffix to Label
type Rule struct {
	Suffix string
	Label  string
}

// Rules is the ordered list of known issuers. First match wins, so more specific
// suffixes must come before the ones they end with.
var Rules = []Rule{
	{Suffix: "acme-staging-v02.api.letsencrypt.org", Label: "letsencrypt-staging"},
	{Suffix: "letsencrypt.org", Label: "letsencrypt"},
	{Suffix: "zerossl.com", Label: "zerossl"},
	{Suffix: "buypass.com", Label: "buypass"},
	{Suffix: "buypass.no", Label: "buypass"},
	{Suffix: "pki.goog", Label: "google"},
	{Suffix: "digicert.com", Label: "digicert"},
	{Suffix: "sectigo.com", Label: "sectigo"},
	{Suffix: "ssl.com", Label: "ssl.com"},
}

// ParseHost extracts the lowercase hostname from a URL or bare host[:port].
// ok is false when nothing usable can be extracted.
func ParseHost(raw string) (host string, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", false
		}
		host = u.Hostname()
	} else {
		host = raw
		if i := strings.IndexAny(host, "/?#"); i >= 0 {
			host = host[:i]
		}
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
	}

	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if !validHost(host) {
		return "", false
	}

	return host, true
}

func validHost(host string) bool {
	if host == "" || len(host) > 253 {
		return false
	}
	if net.ParseIP(host) != nil {
		return true
	}
	for _, label := range strings.Split(host, ".") {
		if label == "" || len(label) > 63 {
			return false
		}
		for _, r := range label {
			if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
				return false
			}
		}
	}
	return true
}

// Label returns the short name for a stored provider hostname. Unrecognized
// hosts are returned unchanged and an empty host yields UnknownLabel.
func Label(host string) string {
	if host == "" {
		return UnknownLabel
	}
	for _, rule := range Rules {
		if host == rule.Suffix || strings.HasSuffix(host, "."+rule.Suffix) {
			return rule.Label
		}
	}
	return host
}
