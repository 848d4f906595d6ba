package orderfile

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX reads an order export saved as a spreadsheet. The first sheet
// must carry the same header row and columns as the CSV export.
func ReadXLSX(path string) ([]RawOrderRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx export: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx export has no sheets")
	}

	cells, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(cells) == 0 {
		return nil, fmt.Errorf("xlsx export has no header row")
	}

	index, err := headerIndex(cells[0])
	if err != nil {
		return nil, err
	}

	rows := make([]RawOrderRow, 0, len(cells)-1)
	for _, record := range cells[1:] {
		rows = append(rows, parseRow(record, index))
	}
	return rows, nil
}
