package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/amishk599/internfeed/internal/scheduler"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the harvest daemon",
	Long:  "Runs one cycle immediately, then one per schedule.interval or schedule.cron tick; blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var schedule cron.Schedule
	if cfg.Schedule.Cron != "" {
		schedule, err = scheduler.ParseCron(cfg.Schedule.Cron)
		if err != nil {
			logger.Error("invalid schedule", "error", err)
			os.Exit(1)
		}
	} else {
		schedule = scheduler.Every(cfg.Schedule.Interval)
	}

	logger.Info("config loaded",
		"interval", cfg.Schedule.Interval.String(),
		"cron", cfg.Schedule.Cron,
		"timezone", cfg.Schedule.Location.String(),
		"sources", len(cfg.Sources),
		"title_keywords", len(cfg.Filters.TitleKeywords),
	)

	deps, cleanup, err := newPipelineDeps(cfg, true, logger)
	if err != nil {
		logger.Error("failed to set up pipeline", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.NewScheduler(deps.pipeline.Job(), schedule, cfg.Schedule.Location, logger)
	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		return err
	}

	logger.Info("goodbye")
	return nil
}
