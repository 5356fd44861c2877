package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show store counts",
	Long:  "Prints how many postings are stored, delivered and still pending.",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	st, cleanup, err := openStore(cfg)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	s, err := st.Stats(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Println(newTable("Store", "Total", "Delivered", "Pending").
		Row(cfg.Store.Path, strconv.Itoa(s.Total), strconv.Itoa(s.Delivered), strconv.Itoa(s.Pending)))
	return nil
}
