package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adamscao/certwatch/pkg/reporter"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Report an issued certificate to a certwatch server",
	Long:  "Reads a certificate written by lego (<domain>.crt and optionally <domain>.json) and posts it as an issuance event.",
	Args:  cobra.NoArgs,
	RunE:  reportCertificate,
}

var (
	reportCertPath string
	reportMetaPath string
	reportServer   string
	reportToken    string
	reportDuration int
)

func init() {
	reportCmd.Flags().StringVar(&reportCertPath, "cert", "", "Certificate PEM file (required)")
	reportCmd.Flags().StringVar(&reportMetaPath, "meta", "", "lego resource json with the certificate URL")
	reportCmd.Flags().StringVar(&reportServer, "server", "http://localhost:4444", "certwatch server URL")
	reportCmd.Flags().StringVar(&reportToken, "token", "", "Agent token")
	reportCmd.Flags().IntVar(&reportDuration, "duration", 0, "Override the validity in days")

	reportCmd.MarkFlagRequired("cert")
}

func reportCertificate(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	res, err := reporter.LoadResource(reportCertPath, reportMetaPath)
	if err != nil {
		return err
	}

	event, err := reporter.EventFromResource(res, cfg.Ingest.DefaultDurationDays)
	if err != nil {
		return err
	}
	if reportDuration > 0 {
		event.Duration = reportDuration
	}

	id, err := reporter.NewClient(reportServer, reportToken).Report(cmd.Context(), event)
	if err != nil {
		var apiErr *reporter.APIError
		if errors.As(err, &apiErr) && apiErr.Retryable() {
			return fmt.Errorf("%w (retryable)", err)
		}
		return err
	}

	fmt.Printf("Reported %s (duration %dd, %d SANs) as record %d\n", event.CommonName, event.Duration, len(event.SANs), id)
	return nil
}
