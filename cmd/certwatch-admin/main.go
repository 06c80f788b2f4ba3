package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adamscao/certwatch/internal/config"
	"github.com/adamscao/certwatch/internal/db"
	"github.com/adamscao/certwatch/internal/logging"
	"github.com/adamscao/certwatch/internal/tracker"
)

var (
	configPath string
	cfg        *config.Config
	database   *db.DB
	logger     *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "certwatch-admin",
	Short:         "certwatch administration tool",
	Long:          "Administrative tool for managing tracked hosts, agent tokens, and notifications",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Root flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "/etc/certwatch/config.yaml", "Config file path")

	// Add commands
	rootCmd.AddCommand(hostsCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(notificationsCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(reportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() error {
	var err error
	cfg, err = config.LoadWithEnv(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logCfg := cfg.Logging
	logCfg.Format = "text"
	logger, err = logging.New(logCfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	return nil
}

func initDB() error {
	if err := loadConfig(); err != nil {
		return err
	}

	// Connect to database
	var err error
	database, err = db.New(cfg.Database.Path, cfg.Database.MaxOpenConns)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.RunMigrations(database); err != nil {
		database.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func newTracker() (*tracker.Service, error) {
	renewal, err := cfg.RenewalPolicy()
	if err != nil {
		return nil, err
	}
	return tracker.New(database, renewal, tracker.WithLogger(logger)), nil
}
