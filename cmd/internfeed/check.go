package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/internfeed/internal/model"
	"github.com/amishk599/internfeed/internal/scheduler"
	"github.com/amishk599/internfeed/internal/store"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Fetch once, print what would be stored, exit",
	Long:  "One-shot dry run: fetches every enabled source into an in-memory store and prints the fresh postings. Does not write to the configured store or deliver anything.",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("check mode: nothing will be stored or delivered")

	mem := store.NewMemoryStore()
	p, err := buildPipeline(cfg, mem, nil, newHTTPClient(), logger)
	if err != nil {
		logger.Error("failed to set up pipeline", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats, err := p.Ingest(ctx)
	if err != nil {
		return err
	}
	fmt.Println(runStatsTable(stats))

	recs, err := mem.QueryPending(ctx, 0, model.NewestFirst)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		notice("No fresh postings found.")
		return nil
	}
	next := scheduler.Cap(recs, cfg.Pipeline.MaxPerRun)
	fmt.Println(recordTable(recs))
	notice("%d fresh postings; a run would deliver the first %d.", len(recs), len(next))
	return nil
}
