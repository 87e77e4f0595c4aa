package cmd

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"repodump/internal/config"
	"repodump/internal/history"
)

var watchSchedule string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Periodically re-download the configured targets",
	Long: `Runs the configured targets on a cron schedule so local mirrors stay
current. Runs headless and records every run in the history store.

Examples:
  repodump watch --schedule "0 3 * * *"     every night at 03:00
  repodump watch --schedule "@every 6h"`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchSchedule, "schedule", "s", "@daily",
		"cron expression or @every duration")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if len(cfg.Targets) == 0 {
		return fmt.Errorf("no targets configured; run `repodump init` first")
	}

	store, err := history.New(cfg.History)
	if err != nil {
		slog.Warn("History store unavailable, runs will not be recorded", "error", err)
		store = nil
	} else {
		defer store.Close()
	}

	// The dashboard makes no sense for unattended runs.
	downloadHeadless = true

	runAll := func() {
		for _, target := range cfg.Targets {
			results, err := downloadTarget(ctx, cfg, store, target)
			if err != nil {
				slog.Error("Scheduled download failed",
					"platform", target.Platform, "username", target.Username, "error", err)
				continue
			}
			slog.Info("Scheduled download finished",
				"platform", target.Platform, "username", target.Username,
				"succeeded", len(results.Successful), "failed", len(results.Issues))
		}
	}

	c := cron.New()
	if _, err := c.AddFunc(watchSchedule, runAll); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", watchSchedule, err)
	}

	slog.Info("Watching targets", "schedule", watchSchedule, "targets", len(cfg.Targets))
	fmt.Printf("Watching %d target(s) on schedule %q. Ctrl-C to stop.\n",
		len(cfg.Targets), watchSchedule)

	// First pass immediately so a fresh setup mirrors right away.
	runAll()

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
