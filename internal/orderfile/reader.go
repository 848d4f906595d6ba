// Package orderfile reads the weekly order export. Each row of the
// export is one purchased line item; rows belonging to the same order
// share the order reference and are folded back together downstream.
package orderfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"bakehouse/internal/domain"
)

// RawOrderRow is one line of the export, field-for-field. Blank is the
// empty string, never a null marker; values are kept verbatim so that
// downstream code can distinguish blank from whitespace.
type RawOrderRow struct {
	OrderRef      string
	Email         string
	Total         string
	Notes         string
	LineitemName  string
	LineitemQty   string
	LineitemPrice string
	Billing       domain.Address
	Shipping      domain.Address
}

var requiredColumns = []string{
	"Name",
	"Email",
	"Total",
	"Notes",
	"Lineitem name",
	"Lineitem quantity",
	"Lineitem price",
}

// ReadFile reads an order export, choosing the reader by file extension.
// Spreadsheet exports (.xlsx) carry the same columns as the CSV form.
func ReadFile(path string) ([]RawOrderRow, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ReadXLSX(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open order export: %w", err)
	}
	defer f.Close()

	return ReadCSV(f)
}

// ReadCSV reads a CSV order export from r.
func ReadCSV(r io.Reader) ([]RawOrderRow, error) {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas

	headers, err := csvr.Read()
	if err != nil {
		return nil, fmt.Errorf("read headers: %w", err)
	}
	index, err := headerIndex(headers)
	if err != nil {
		return nil, err
	}

	var rows []RawOrderRow
	for {
		record, err := csvr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		rows = append(rows, parseRow(record, index))
	}
	return rows, nil
}

func headerIndex(headers []string) (map[string]int, error) {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(h)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("order export missing column %q: %w", col, domain.ErrMalformedInput)
		}
	}
	return idx, nil
}

func parseRow(record []string, index map[string]int) RawOrderRow {
	return RawOrderRow{
		OrderRef:      pick(record, index, "Name"),
		Email:         pick(record, index, "Email"),
		Total:         pick(record, index, "Total"),
		Notes:         pick(record, index, "Notes"),
		LineitemName:  pick(record, index, "Lineitem name"),
		LineitemQty:   pick(record, index, "Lineitem quantity"),
		LineitemPrice: pick(record, index, "Lineitem price"),
		Billing:       pickAddress(record, index, "Billing"),
		Shipping:      pickAddress(record, index, "Shipping"),
	}
}

func pickAddress(record []string, index map[string]int, prefix string) domain.Address {
	return domain.Address{
		Name:     pick(record, index, prefix+" Name"),
		Street:   pick(record, index, prefix+" Street"),
		Address1: pick(record, index, prefix+" Address1"),
		Address2: pick(record, index, prefix+" Address2"),
		Company:  pick(record, index, prefix+" Company"),
		City:     pick(record, index, prefix+" City"),
		Zip:      pick(record, index, prefix+" Zip"),
		Province: pick(record, index, prefix+" Province"),
		Country:  pick(record, index, prefix+" Country"),
		Phone:    pick(record, index, prefix+" Phone"),
	}
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return record[pos]
}
