package config

import (
	"fmt"
	"time"

	"github.com/adamscao/certwatch/internal/auth"
	"github.com/adamscao/certwatch/internal/policy"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server" envPrefix:"SERVER_"`
	Database DatabaseConfig `yaml:"database" envPrefix:"DATABASE_"`
	Ingest   IngestConfig   `yaml:"ingest" envPrefix:"INGEST_"`
	Policy   PolicyConfig   `yaml:"policy" envPrefix:"POLICY_"`
	Notify   NotifyConfig   `yaml:"notify" envPrefix:"NOTIFY_"`
	Logging  LoggingConfig  `yaml:"logging" envPrefix:"LOGGING_"`
	Metrics  MetricsConfig  `yaml:"metrics" envPrefix:"METRICS_"`
}

// ServerConfig contains server configuration
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr" env:"LISTEN_ADDR"`
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Path         string `yaml:"path" env:"PATH"`
	MaxOpenConns int    `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
}

// IngestConfig controls how agents report issuance events
type IngestConfig struct {
	// bcrypt hashes of agent tokens. Empty disables ingestion auth.
	TokenHashes         []string `yaml:"token_hashes" env:"TOKEN_HASHES" envSeparator:","`
	DefaultDurationDays int      `yaml:"default_duration_days" env:"DEFAULT_DURATION_DAYS"`
}

// PolicyConfig contains the renewal thresholds as fractions of the duration
type PolicyConfig struct {
	RenewalAfter string `yaml:"renewal_after" env:"RENEWAL_AFTER"`
	ExpiryAfter  string `yaml:"expiry_after" env:"EXPIRY_AFTER"`
}

// NotifyConfig contains the scan-and-notify configuration
type NotifyConfig struct {
	Enabled     bool           `yaml:"enabled" env:"ENABLED"`
	Interval    string         `yaml:"interval" env:"INTERVAL"`
	ScanTimeout string         `yaml:"scan_timeout" env:"SCAN_TIMEOUT"`
	Sink        string         `yaml:"sink" env:"SINK"`
	Recipients  []string       `yaml:"recipients" env:"RECIPIENTS" envSeparator:","`
	Subject     string         `yaml:"subject" env:"SUBJECT"`
	SMTP        SMTPConfig     `yaml:"smtp" envPrefix:"SMTP_"`
	Postmark    PostmarkConfig `yaml:"postmark" envPrefix:"POSTMARK_"`
}

// SMTPConfig contains SMTP delivery settings
type SMTPConfig struct {
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	Username string `yaml:"username" env:"USERNAME"`
	Password string `yaml:"password" env:"PASSWORD"`
	From     string `yaml:"from" env:"FROM"`
}

// PostmarkConfig contains Postmark delivery settings
type PostmarkConfig struct {
	ServerToken  string `yaml:"server_token" env:"SERVER_TOKEN"`
	AccountToken string `yaml:"account_token" env:"ACCOUNT_TOKEN"`
	From         string `yaml:"from" env:"FROM"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// MetricsConfig toggles the /metrics endpoint
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`
}

// Sink names
const (
	SinkLog      = "log"
	SinkSMTP     = "smtp"
	SinkPostmark = "postmark"
)

// Default returns a configuration with every optional value filled in
func Default() *Config {
	return &Config{
		Server:   ServerConfig{ListenAddr: ":4444"},
		Database: DatabaseConfig{Path: "certwatch.db", MaxOpenConns: 4},
		Ingest:   IngestConfig{DefaultDurationDays: 15},
		Policy:   PolicyConfig{RenewalAfter: "2/3", ExpiryAfter: "1/1"},
		Notify: NotifyConfig{
			Enabled:     true,
			Interval:    "12h",
			ScanTimeout: "2m",
			Sink:        SinkLog,
			Subject:     "certwatch: certificates need attention",
			SMTP:        SMTPConfig{Port: 587},
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr is required")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}

	for i, hash := range c.Ingest.TokenHashes {
		if !auth.IsTokenHash(hash) {
			return fmt.Errorf("ingest.token_hashes[%d] is not a bcrypt hash", i)
		}
	}
	if c.Ingest.DefaultDurationDays <= 0 {
		return fmt.Errorf("ingest.default_duration_days must be positive")
	}

	if _, err := c.RenewalPolicy(); err != nil {
		return err
	}

	if err := c.Notify.validate(); err != nil {
		return err
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("logging.format must be 'json' or 'text'")
	}

	return nil
}

func (n *NotifyConfig) validate() error {
	interval, err := parseDuration(n.Interval)
	if err != nil {
		return fmt.Errorf("notify.interval is invalid: %w", err)
	}
	if interval <= 0 {
		return fmt.Errorf("notify.interval must be positive")
	}

	timeout, err := parseDuration(n.ScanTimeout)
	if err != nil {
		return fmt.Errorf("notify.scan_timeout is invalid: %w", err)
	}
	if timeout <= 0 {
		return fmt.Errorf("notify.scan_timeout must be positive")
	}

	switch n.Sink {
	case SinkLog:
	case SinkSMTP:
		if n.SMTP.Host == "" {
			return fmt.Errorf("notify.smtp.host is required")
		}
		if n.SMTP.Port <= 0 {
			return fmt.Errorf("notify.smtp.port must be positive")
		}
		if n.SMTP.From == "" {
			return fmt.Errorf("notify.smtp.from is required")
		}
	case SinkPostmark:
		if n.Postmark.ServerToken == "" {
			return fmt.Errorf("notify.postmark.server_token is required")
		}
		if n.Postmark.From == "" {
			return fmt.Errorf("notify.postmark.from is required")
		}
	default:
		return fmt.Errorf("notify.sink must be one of: log, smtp, postmark")
	}

	if n.Sink != SinkLog && len(n.Recipients) == 0 {
		return fmt.Errorf("notify.recipients is required for sink %q", n.Sink)
	}

	return nil
}

// RenewalPolicy returns the parsed renewal thresholds
func (c *Config) RenewalPolicy() (policy.Policy, error) {
	renewal, err := policy.ParseFraction(c.Policy.RenewalAfter)
	if err != nil {
		return policy.Policy{}, fmt.Errorf("policy.renewal_after is invalid: %w", err)
	}

	expiry, err := policy.ParseFraction(c.Policy.ExpiryAfter)
	if err != nil {
		return policy.Policy{}, fmt.Errorf("policy.expiry_after is invalid: %w", err)
	}

	p := policy.Policy{RenewalAfter: renewal, ExpiryAfter: expiry}
	if err := p.Validate(); err != nil {
		return policy.Policy{}, err
	}

	return p, nil
}

// GetNotifyInterval returns the scan interval as time.Duration
func (c *Config) GetNotifyInterval() time.Duration {
	d, _ := parseDuration(c.Notify.Interval)
	return d
}

// GetScanTimeout returns the per-scan timeout as time.Duration
func (c *Config) GetScanTimeout() time.Duration {
	d, _ := parseDuration(c.Notify.ScanTimeout)
	return d
}

// parseDuration parses duration with support for days (e.g., "90d")
func parseDuration(s string) (time.Duration, error) {
	if len(s) > 1 && s[len(s)-1] == 'd' {
		days := s[:len(s)-1]
		var d int
		if _, err := fmt.Sscanf(days, "%d", &d); err != nil {
			return 0, err
		}
		return time.Duration(d) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}
