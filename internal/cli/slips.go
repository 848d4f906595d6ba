package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"bakehouse/internal/slips"
)

var slipsFlags struct {
	date   string
	routes string
	out    string
}

var slipsCmd = &cobra.Command{
	Use:   "slips",
	Short: "Render packing slips for a delivery date, sorted by route",
	RunE: func(cmd *cobra.Command, args []string) error {
		deliveryDate, err := parseDate(slipsFlags.date)
		if err != nil {
			return err
		}

		cfg := loadConfig()
		logger := newLogger()
		ctx := cmd.Context()

		history, closeStore, err := openHistory(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		outFile := slipsFlags.out
		if outFile == "" {
			outFile = filepath.Join(cfg.OutputDir,
				fmt.Sprintf("PackingSlips_%s.pdf", deliveryDate.Format("20060102")))
		}

		renderer := slips.NewRenderer(history, cfg.ShopName, cfg.WkhtmltopdfPath, cfg.WorkingDir, logger)
		if err := renderer.Generate(ctx, deliveryDate, slipsFlags.routes, outFile); err != nil {
			return err
		}

		fmt.Printf("Packing slips written to %s\n", outFile)
		return nil
	},
}

func init() {
	slipsCmd.Flags().StringVar(&slipsFlags.date, "date", "", "delivery date of the orders (YYYY/mm/dd)")
	slipsCmd.Flags().StringVar(&slipsFlags.routes, "routes", "", "route-assignment csv (Order_Number, Bike, Route, Stop on Route)")
	slipsCmd.Flags().StringVar(&slipsFlags.out, "out", "", "output pdf path (default OUTPUT_DIR/PackingSlips_<date>.pdf)")
	_ = slipsCmd.MarkFlagRequired("date")
	rootCmd.AddCommand(slipsCmd)
}
