package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/internfeed/internal/model"
	"github.com/amishk599/internfeed/internal/query"
)

var (
	searchCountry string
	searchField   string
	searchUser    string
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search stored postings by country and field",
	Long:  "Returns the most recent stored postings matching --country and --field. Each call counts against the requester's daily quota.",
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchCountry, "country", "", "country filter (substring, case-insensitive; empty or All for any)")
	searchCmd.Flags().StringVar(&searchField, "field", "", "field filter (exact; empty or All for any)")
	searchCmd.Flags().StringVar(&searchUser, "user", os.Getenv("USER"), "requester identity the quota is charged to")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
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

	svc := query.NewService(st, cfg.Query.Limit, cfg.Query.DailyLimit, cfg.Schedule.Location, logger)
	res, err := svc.Search(cmd.Context(), query.Request{
		Country:   searchCountry,
		Field:     searchField,
		Requester: searchUser,
	})
	if errors.Is(err, model.ErrQuotaExceeded) {
		notice("Daily limit reached (%d/%d searches). Try again tomorrow.", res.Used, cfg.Query.DailyLimit)
		return nil
	}
	if err != nil {
		return err
	}

	if res.NoResults() {
		notice("No postings found for country=%q field=%q.", searchCountry, searchField)
	} else {
		fmt.Println(recordTable(res.Records))
	}
	fmt.Printf("\n%d searches left today.\n", res.Remaining)
	return nil
}
