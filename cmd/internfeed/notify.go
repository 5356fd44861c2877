package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/internfeed/internal/notifier"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Delivery subcommands",
}

var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test message",
	Long:  "Sends a sample posting through the configured delivery channel.",
	RunE:  runNotifyTest,
}

func init() {
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifyTestCmd)
}

func runNotifyTest(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	sink, err := setupSink(cfg, newHTTPClient(), logger)
	if err != nil {
		logger.Error("failed to set up delivery", "error", err)
		os.Exit(1)
	}

	if err := notifier.SendTestMessage(context.Background(), sink); err != nil {
		logger.Error("test message failed", "error", err)
		os.Exit(1)
	}
	logger.Info("test message sent successfully", "delivery", cfg.Delivery.Type)
	return nil
}
