package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/adamscao/certwatch/internal/api"
	"github.com/adamscao/certwatch/internal/config"
	"github.com/adamscao/certwatch/internal/db"
	"github.com/adamscao/certwatch/internal/db/repository"
	"github.com/adamscao/certwatch/internal/logging"
	"github.com/adamscao/certwatch/internal/metrics"
	"github.com/adamscao/certwatch/internal/notifier"
	"github.com/adamscao/certwatch/internal/tracker"
)

var (
	// Version information (set via ldflags)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "/etc/certwatch/config.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("certwatch\n")
		fmt.Printf("Version:    %s\n", Version)
		fmt.Printf("Commit:     %s\n", Commit)
		fmt.Printf("Build Time: %s\n", BuildTime)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("certwatch stopped with error", zap.Error(err))
	}
	logger.Info("certwatch stopped")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("starting certwatch",
		zap.String("version", Version),
		zap.String("commit", Commit))

	renewal, err := cfg.RenewalPolicy()
	if err != nil {
		return err
	}

	// Initialize database
	logger.Info("opening database", zap.String("path", cfg.Database.Path))
	database, err := db.New(cfg.Database.Path, cfg.Database.MaxOpenConns)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	// Run migrations
	if err := db.RunMigrations(database); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	svc := tracker.New(database, renewal,
		tracker.WithLogger(logger.With(zap.String("component", "tracker"))),
		tracker.WithMetrics(m))

	server := api.NewServer(cfg, svc, logger, reg)

	var scheduler *notifier.Scheduler
	if cfg.Notify.Enabled {
		sink, err := notifier.NewSink(cfg.Notify, logger.With(zap.String("component", "sink")))
		if err != nil {
			return err
		}

		scheduler = notifier.New(svc, sink,
			notifier.WithInterval(cfg.GetNotifyInterval()),
			notifier.WithScanTimeout(cfg.GetScanTimeout()),
			notifier.WithRecorder(repository.NewNotificationRepository(database)),
			notifier.WithLogger(logger.With(zap.String("component", "notifier"))),
			notifier.WithMetrics(m))
	} else {
		logger.Info("notifications disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(ctx) })
	if scheduler != nil {
		g.Go(scheduler.Run(ctx))
	}

	return g.Wait()
}
