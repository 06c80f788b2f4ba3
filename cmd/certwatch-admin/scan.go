package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/adamscao/certwatch/internal/db/repository"
	"github.com/adamscao/certwatch/internal/notifier"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Show which certificates need renewal",
	Long:  "Evaluates every host against the renewal policy and prints the report. With --notify the report is also delivered through the configured sink.",
	RunE:  scan,
}

var notify bool

func init() {
	scanCmd.Flags().BoolVar(&notify, "notify", false, "Deliver the report through the configured sink")
}

func scan(cmd *cobra.Command, args []string) error {
	if err := initDB(); err != nil {
		return err
	}
	defer database.Close()

	svc, err := newTracker()
	if err != nil {
		return err
	}

	if !notify {
		report, err := svc.Scan(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to scan: %w", err)
		}
		printReport(os.Stdout, report)
		return nil
	}

	sink, err := notifier.NewSink(cfg.Notify, logger)
	if err != nil {
		return err
	}

	scheduler := notifier.New(svc, sink,
		notifier.WithScanTimeout(cfg.GetScanTimeout()),
		notifier.WithRecorder(repository.NewNotificationRepository(database)),
		notifier.WithLogger(logger))

	report, err := scheduler.RunOnce(cmd.Context())
	if report != nil {
		printReport(os.Stdout, report)
	}
	if err != nil {
		return err
	}

	if !report.Empty() {
		fmt.Printf("\nReport delivered via %s\n", sink.Name())
	}
	return nil
}
