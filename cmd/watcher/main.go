package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/qepting91/campsite-watcher/internal/collector"
	"github.com/qepting91/campsite-watcher/internal/config"
	"github.com/qepting91/campsite-watcher/internal/dashboard"
	"github.com/qepting91/campsite-watcher/internal/domain"
	"github.com/qepting91/campsite-watcher/internal/ingest"
	"github.com/qepting91/campsite-watcher/internal/listener"
	"github.com/qepting91/campsite-watcher/internal/notify"
	"github.com/qepting91/campsite-watcher/internal/poller"
	"github.com/qepting91/campsite-watcher/internal/scheduler"
	"github.com/qepting91/campsite-watcher/internal/storage"
	"github.com/qepting91/campsite-watcher/internal/telegram"
	"github.com/spf13/cobra"
)

// set with -ldflags "-X main.version=..."
var version = "dev"

var rootCmd = &cobra.Command{
	Use:           "watcher",
	Short:         "Watch recreation.gov for campsite availability",
	Long:          "Polls recreation.gov campgrounds for runs of consecutive open nights and pushes alerts to Telegram.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	config.RegisterFlags(rootCmd.Flags())
}

func main() {
	// .env is optional
	godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Resolve(cmd.Flags(), os.LookupEnv)
	if err != nil {
		return err
	}
	if cfg.CampgroundsFile != "" {
		ids, err := ingest.LoadCampgrounds(cfg.CampgroundsFile)
		if err != nil {
			return fmt.Errorf("loading campgrounds file: %w", err)
		}
		cfg.Campgrounds = config.MergeIDs(cfg.Campgrounds, ids)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	src, err := collector.NewCollector(cfg.Collector, "")
	if err != nil {
		return err
	}

	pollCfg := cfg.PollConfig()
	logBanner(logger, cfg, pollCfg)

	var notifier domain.Notifier = notify.LogNotifier{Logger: logger}
	var tg *telegram.Client
	destination := ""
	if cfg.TelegramEnabled() {
		tg = telegram.NewClient(cfg.TelegramToken, "")
		notifier = notify.NewTelegramNotifier(tg, logger)
		destination = cfg.TelegramChatID
	} else {
		logger.Warn("Telegram credentials are not set. Notifications will only be logged.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch := poller.New(pollCfg, src, notifier, destination, logger)

	snapshots := storage.NewSnapshotStore()
	results := make(chan domain.CycleResult, 8)
	orch.PublishTo(results)
	var writerWg sync.WaitGroup
	writerWg.Add(1)
	go snapshots.Start(&writerWg, results)

	var wg sync.WaitGroup
	if cfg.DashboardPort != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("Starting Dashboard", "port", cfg.DashboardPort)
			if err := dashboard.Serve(ctx, cfg.DashboardPort, dashboard.NewHandler(snapshots, pollCfg)); err != nil {
				logger.Error("Dashboard failed", "err", err)
			}
		}()
	}

	if tg != nil {
		l := listener.New(tg, orch, cfg.TelegramChatID, snapshots, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Run(ctx)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		scheduler.Run(ctx, orch, pollCfg.Interval)
	}()

	<-ctx.Done()
	logger.Info("Gracefully shutting down...")
	wg.Wait()
	close(results)
	writerWg.Wait()
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func logBanner(logger *slog.Logger, cfg config.Config, pc domain.PollConfig) {
	starts := "any date"
	if len(pc.StartDates) > 0 {
		starts = strings.Join(pc.StartDates, " or ")
	}
	telegramState := "not configured"
	if cfg.TelegramEnabled() {
		telegramState = "bot configured, chat " + cfg.TelegramChatID
	} else if cfg.TelegramToken != "" {
		telegramState = "bot configured, chat ID not set"
	}
	partial := "disabled"
	if pc.NotifyPartial {
		partial = "enabled"
	}

	logger.Info("Recreation.gov Availability Watcher",
		"version", version,
		"campgrounds", strings.Join(pc.CampgroundIDs, ", "),
		"months", strings.Join(pc.Months, ", "),
		"interval", pc.Interval.String(),
		"min_nights", pc.MinNights,
		"start_dates", starts,
		"telegram", telegramState,
		"partial_notifications", partial,
		"collector", cfg.Collector,
		"requests_per_poll", pc.Requests(),
	)
}
