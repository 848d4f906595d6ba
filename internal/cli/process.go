package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"bakehouse/internal/compress"
	"bakehouse/internal/orderfile"
	"bakehouse/internal/stock"
)

var processFlags struct {
	file string
	date string
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Compress a weekly order export and sync it to the order history",
	RunE: func(cmd *cobra.Command, args []string) error {
		deliveryDate, err := parseDate(processFlags.date)
		if err != nil {
			return err
		}

		cfg := loadConfig()
		logger := newLogger()
		ctx := cmd.Context()

		policy, err := compress.ParsePolicy(cfg.ChronologyPolicy)
		if err != nil {
			return err
		}

		history, closeStore, err := openHistory(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		rows, err := orderfile.ReadFile(processFlags.file)
		if err != nil {
			return err
		}

		processor := compress.NewProcessor(history, policy, cfg.LookbackDays, logger)

		start := time.Now()
		records, tally, err := processor.Run(ctx, rows, deliveryDate)
		if err != nil {
			return err
		}

		stockFile := filepath.Join(cfg.OutputDir,
			fmt.Sprintf("RequiredStock_%s.csv", deliveryDate.Format("20060102")))
		if err := stock.WriteCSV(stockFile, tally); err != nil {
			return err
		}

		fmt.Printf("Processed %d rows into %d orders in %s; stock requirements in %s\n",
			len(rows), len(records), time.Since(start).Truncate(time.Millisecond), stockFile)
		return nil
	},
}

func init() {
	processCmd.Flags().StringVar(&processFlags.file, "file", "", "location of the weekly order export (csv or xlsx)")
	processCmd.Flags().StringVar(&processFlags.date, "date", "", "delivery date of the input orders (YYYY/mm/dd)")
	_ = processCmd.MarkFlagRequired("file")
	_ = processCmd.MarkFlagRequired("date")
	rootCmd.AddCommand(processCmd)
}
