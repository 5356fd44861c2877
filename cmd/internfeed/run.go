package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one full cycle and exit",
	Long:  "Fetches every enabled source, stores new postings, delivers up to pipeline.max_per_run pending ones, then exits.",
	RunE:  runOnce,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch and store postings without delivering",
	Long:  "Fetches every enabled source and stores new postings. Needs no delivery credentials.",
	RunE:  runIngest,
}

var broadcastCmd = &cobra.Command{
	Use:   "broadcast",
	Short: "Deliver pending postings without fetching",
	Long:  "Delivers up to pipeline.max_per_run stored postings that have not been delivered yet.",
	RunE:  runBroadcast,
}

func init() {
	rootCmd.AddCommand(runCmd, ingestCmd, broadcastCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	return runPipeline(func(ctx context.Context, deps *pipelineDeps) error {
		stats, err := deps.pipeline.Run(ctx)
		fmt.Println(runStatsTable(stats))
		return err
	}, true)
}

func runIngest(cmd *cobra.Command, args []string) error {
	return runPipeline(func(ctx context.Context, deps *pipelineDeps) error {
		stats, err := deps.pipeline.Ingest(ctx)
		fmt.Println(runStatsTable(stats))
		return err
	}, false)
}

func runBroadcast(cmd *cobra.Command, args []string) error {
	return runPipeline(func(ctx context.Context, deps *pipelineDeps) error {
		stats, err := deps.pipeline.Broadcast(ctx)
		fmt.Println(runStatsTable(stats))
		return err
	}, true)
}

// runPipeline loads config, takes the store lock and wires the pipeline
// before handing it to fn. Delivery credentials are checked only when
// withSink is set.
func runPipeline(fn func(context.Context, *pipelineDeps) error, withSink bool) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	deps, cleanup, err := newPipelineDeps(cfg, withSink, logger)
	if err != nil {
		logger.Error("failed to set up pipeline", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return fn(ctx, deps)
}
