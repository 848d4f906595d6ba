// Package cli wires the bakehouse subcommands. The command surface is
// thin glue: argument parsing and construction only, with all behaviour
// in the internal packages.
package cli

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"bakehouse/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "bakehouse",
	Short: "Weekly order compression and packing-slip tooling",
	Long: `bakehouse ingests the weekly order export, compresses each customer's
line items into one order record, syncs those records to the order
history store, and renders packing slips sorted by delivery route.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env is fine; the environment may be set directly.
		_ = godotenv.Load()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() *log.Logger {
	return log.New(os.Stderr, "[bakehouse] ", log.LstdFlags|log.LUTC)
}

func loadConfig() config.Config {
	return config.FromEnv()
}

// parseDate accepts both the operator-facing YYYY/mm/dd form and ISO
// dates.
func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006/01/02", "2006-01-02"} {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q (want YYYY/mm/dd)", s)
}
