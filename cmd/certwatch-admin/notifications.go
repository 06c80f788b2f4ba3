package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/adamscao/certwatch/internal/db/repository"
)

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Inspect the notification delivery log",
}

var notificationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent delivery attempts",
	RunE:  listNotifications,
}

var notificationsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete delivery attempts older than a given age",
	RunE:  pruneNotifications,
}

var (
	notificationLimit int
	pruneOlderThan    time.Duration
)

func init() {
	notificationsListCmd.Flags().IntVarP(&notificationLimit, "limit", "n", 20, "Number of entries to show")
	notificationsPruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 90*24*time.Hour, "Minimum age of entries to delete")

	notificationsCmd.AddCommand(notificationsListCmd)
	notificationsCmd.AddCommand(notificationsPruneCmd)
}

func listNotifications(cmd *cobra.Command, args []string) error {
	if err := initDB(); err != nil {
		return err
	}
	defer database.Close()

	logs, err := repository.NewNotificationRepository(database).List(cmd.Context(), notificationLimit)
	if err != nil {
		return fmt.Errorf("failed to list notifications: %w", err)
	}

	if len(logs) == 0 {
		fmt.Println("No notifications sent")
		return nil
	}

	fmt.Println(notificationTable(logs))
	return nil
}

func pruneNotifications(cmd *cobra.Command, args []string) error {
	if pruneOlderThan <= 0 {
		return fmt.Errorf("--older-than must be positive")
	}

	if err := initDB(); err != nil {
		return err
	}
	defer database.Close()

	deleted, err := repository.NewNotificationRepository(database).DeleteOld(cmd.Context(), time.Now().Add(-pruneOlderThan))
	if err != nil {
		return fmt.Errorf("failed to prune notifications: %w", err)
	}

	fmt.Printf("Deleted %d notification log entries\n", deleted)
	return nil
}
