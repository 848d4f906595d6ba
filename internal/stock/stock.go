// Package stock writes the weekly stock-requirement export: how much of
// each product must be prepared for one delivery run.
package stock

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
)

// WriteCSV writes the tally as a two-column CSV (Lineitem, Quantity).
// Rows are sorted by item description so repeated runs produce
// byte-identical files.
func WriteCSV(path string, tally map[string]int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create stock file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Lineitem", "Quantity"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	items := make([]string, 0, len(tally))
	for item := range tally {
		items = append(items, item)
	}
	sort.Strings(items)

	for _, item := range items {
		if err := w.Write([]string{item, strconv.Itoa(tally[item])}); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush stock file: %w", err)
	}
	return f.Close()
}
