package cli

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
)

var exportFlags struct {
	from string
	to   string
	out  string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Dump stored orders in a delivery-date range to CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := parseDate(exportFlags.from)
		if err != nil {
			return err
		}
		to, err := parseDate(exportFlags.to)
		if err != nil {
			return err
		}
		if to.Before(from) {
			return fmt.Errorf("export: --to %s is before --from %s", exportFlags.to, exportFlags.from)
		}

		cfg := loadConfig()
		logger := newLogger()
		ctx := cmd.Context()

		history, closeStore, err := openHistory(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		// The store range is half-open, so push the end one day out to
		// make --to inclusive.
		records, err := history.SelectByDeliveryDate(ctx, from, to.AddDate(0, 0, 1))
		if err != nil {
			return err
		}

		outFile := exportFlags.out
		if outFile == "" {
			outFile = filepath.Join(cfg.OutputDir,
				fmt.Sprintf("OrderHistory_%s_%s.csv", from.Format("20060102"), to.Format("20060102")))
		}

		f, err := os.Create(outFile)
		if err != nil {
			return fmt.Errorf("export: create %s: %w", outFile, err)
		}
		defer f.Close()

		w := csv.NewWriter(f)
		header := []string{"ID", "Email", "Delivery Date", "Lineitems", "Billing Address", "Shipping Address", "Total", "Delivery Notes"}
		if err := w.Write(header); err != nil {
			return fmt.Errorf("export: write header: %w", err)
		}
		for _, rec := range records {
			row := []string{
				strconv.Itoa(rec.ID),
				rec.Email,
				rec.DeliveryDate.Format("2006-01-02"),
				rec.Lineitems,
				rec.BillingAddress,
				rec.ShippingAddress,
				strconv.FormatFloat(rec.Total, 'f', 2, 64),
				rec.DeliveryNotes,
			}
			if err := w.Write(row); err != nil {
				return fmt.Errorf("export: write row %d: %w", rec.ID, err)
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return fmt.Errorf("export: flush: %w", err)
		}

		fmt.Printf("Exported %d orders to %s\n", len(records), outFile)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFlags.from, "from", "", "start of the delivery-date range (YYYY/mm/dd, inclusive)")
	exportCmd.Flags().StringVar(&exportFlags.to, "to", "", "end of the delivery-date range (YYYY/mm/dd, inclusive)")
	exportCmd.Flags().StringVar(&exportFlags.out, "out", "", "output csv path (default OUTPUT_DIR/OrderHistory_<from>_<to>.csv)")
	_ = exportCmd.MarkFlagRequired("from")
	_ = exportCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(exportCmd)
}
