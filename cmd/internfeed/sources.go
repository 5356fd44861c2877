package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/internfeed/internal/config"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List all configured sources",
	Long:  "Reads the config and prints a table of all configured sources.",
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	t := newTable("Source", "Type", "Target", "Status")
	enabled, disabled := 0, 0
	for _, s := range cfg.Sources {
		status := "enabled"
		if !s.Enabled {
			status = "disabled"
			disabled++
		} else {
			enabled++
		}
		t.Row(s.Name, s.Type, truncate(sourceTarget(s), 50), status)
	}
	fmt.Println(t)

	fmt.Printf("\nTotal: %d sources (%d enabled, %d disabled)\n", len(cfg.Sources), enabled, disabled)
	return nil
}

func sourceTarget(s config.SourceConfig) string {
	switch {
	case s.URL != "":
		return s.URL
	case s.BoardToken != "":
		return s.BoardToken
	case s.Category != "":
		return s.Category
	default:
		return "-"
	}
}
