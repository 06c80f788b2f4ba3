package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adamscao/certwatch/internal/models"
)

var hostsCmd = &cobra.Command{
	Use:   "hosts",
	Short: "Manage tracked hosts",
}

var hostsAddCmd = &cobra.Command{
	Use:   "add <common-name>",
	Short: "Register a host before its first issuance report",
	Args:  cobra.ExactArgs(1),
	RunE:  addHost,
}

var hostsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List hosts with their renewal status",
	RunE:  listHosts,
}

var hostsShowCmd = &cobra.Command{
	Use:   "show <common-name>",
	Short: "Show a host's status and issuance history",
	Args:  cobra.ExactArgs(1),
	RunE:  showHost,
}

var (
	hostDuration int
	historyLimit int
)

func init() {
	hostsAddCmd.Flags().IntVarP(&hostDuration, "duration", "d", 0, "Certificate validity in days (default from ingest.default_duration_days)")
	hostsShowCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of records to show")

	hostsCmd.AddCommand(hostsAddCmd)
	hostsCmd.AddCommand(hostsListCmd)
	hostsCmd.AddCommand(hostsShowCmd)
}

func addHost(cmd *cobra.Command, args []string) error {
	if err := initDB(); err != nil {
		return err
	}
	defer database.Close()

	svc, err := newTracker()
	if err != nil {
		return err
	}

	duration := hostDuration
	if duration == 0 {
		duration = cfg.Ingest.DefaultDurationDays
	}

	host, err := svc.Register(cmd.Context(), args[0], duration)
	if err != nil {
		return fmt.Errorf("failed to register host: %w", err)
	}

	fmt.Printf("Host registered: %s (duration %dd, id %d)\n", host.CommonName, host.Duration, host.ID)
	return nil
}

func listHosts(cmd *cobra.Command, args []string) error {
	if err := initDB(); err != nil {
		return err
	}
	defer database.Close()

	svc, err := newTracker()
	if err != nil {
		return err
	}

	statuses, err := svc.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list hosts: %w", err)
	}

	if len(statuses) == 0 {
		fmt.Println("No hosts found")
		return nil
	}

	fmt.Printf("\nTotal hosts: %d\n\n", len(statuses))
	fmt.Println(statusTable(statuses))
	return nil
}

func showHost(cmd *cobra.Command, args []string) error {
	if err := initDB(); err != nil {
		return err
	}
	defer database.Close()

	svc, err := newTracker()
	if err != nil {
		return err
	}

	status, err := svc.HostStatus(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to load host: %w", err)
	}

	_, records, err := svc.History(cmd.Context(), args[0], historyLimit)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	fmt.Println(statusTable([]models.HostStatus{*status}))
	if len(status.SANs) > 0 {
		fmt.Printf("SANs: %s\n", strings.Join(status.SANs, ", "))
	}
	if len(records) == 0 {
		fmt.Println("\nNo issuance records")
		return nil
	}

	fmt.Printf("\nIssuance history (latest %d):\n\n", len(records))
	fmt.Println(historyTable(records))
	return nil
}
