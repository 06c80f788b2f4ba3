// Package reporter turns ACME certificates into issuance events and posts
// them to a certwatch server.
package reporter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-acme/lego/v4/certcrypto"
	"github.com/go-acme/lego/v4/certificate"
)

const day = 24 * time.Hour

// Event is the body of POST /v1/records
type Event struct {
	CommonName      string   `json:"common_name"`
	ProviderURLHost string   `json:"provider_url_host"`
	Duration        int      `json:"duration"`
	SANs            []string `json:"sans"`
}

// LoadResource reads a certificate as written by lego: the PEM bundle in
// certPath and, optionally, the resource metadata json in metaPath.
func LoadResource(certPath, metaPath string) (*certificate.Resource, error) {
	res := &certificate.Resource{}

	if metaPath != "" {
		meta, err := os.ReadFile(metaPath)
		if err != nil {
			return nil, fmt.Errorf("read certificate metadata: %w", err)
		}
		if err := json.Unmarshal(meta, res); err != nil {
			return nil, fmt.Errorf("parse certificate metadata: %w", err)
		}
	}

	cert, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("read certificate: %w", err)
	}
	res.Certificate = cert

	return res, nil
}

// EventFromResource builds an event from a certificate resource. The duration
// is the certificate's validity window in days, or defaultDays when the
// window cannot be determined.
func EventFromResource(res *certificate.Resource, defaultDays int) (*Event, error) {
	if res == nil || len(res.Certificate) == 0 {
		return nil, errors.New("certificate resource is empty")
	}

	cert, err := certcrypto.ParsePEMCertificate(res.Certificate)
	if err != nil {
		return nil, fmt.Errorf("parse certificate: %w", err)
	}

	commonName := cert.Subject.CommonName
	if commonName == "" {
		commonName = res.Domain
	}
	if commonName == "" && len(cert.DNSNames) > 0 {
		commonName = cert.DNSNames[0]
	}
	if commonName == "" {
		return nil, errors.New("certificate has no common name")
	}

	duration := ValidityDays(cert.NotBefore, cert.NotAfter)
	if duration <= 0 {
		duration = defaultDays
	}
	if duration <= 0 {
		return nil, errors.New("certificate duration unknown and no default given")
	}

	sans := []string{}
	for _, name := range cert.DNSNames {
		if !strings.EqualFold(name, commonName) {
			sans = append(sans, name)
		}
	}

	return &Event{
		CommonName:      commonName,
		ProviderURLHost: providerHost(res),
		Duration:        duration,
		SANs:            sans,
	}, nil
}

// ValidityDays rounds a validity window to whole days. An end that is not
// after the start yields 0.
func ValidityDays(notBefore, notAfter time.Time) int {
	if !notAfter.After(notBefore) {
		return 0
	}
	return int(notAfter.Sub(notBefore).Round(day) / day)
}

func providerHost(res *certificate.Resource) string {
	for _, raw := range []string{res.CertURL, res.CertStableURL} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err == nil && u.Hostname() != "" {
			return u.Hostname()
		}
	}
	return ""
}
