package spreadsheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Column is one header/value pair of a row, in sheet order.
type Column struct {
	Header string
	Value  string
}

// Row is an ordered sequence of columns from one spreadsheet line.
type Row struct {
	Columns []Column
}

// Get returns the value of the first column whose header equals key exactly.
func (r Row) Get(key string) (string, bool) {
	for _, col := range r.Columns {
		if col.Header == key {
			return col.Value, true
		}
	}
	return "", false
}

// ReadRows parses the first sheet of an xlsx workbook into ordered rows.
// The first non-empty row is taken as the header row. Cell values are read
// raw, so date cells surface as spreadsheet serial numbers rather than
// locale-formatted strings. Empty cells are omitted from the row, matching
// how ad-hoc score sheets leave optional columns blank.
func ReadRows(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close() //nolint:errcheck

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	raw, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	var headers []string
	var rows []Row
	for _, line := range raw {
		if headers == nil {
			if !hasContent(line) {
				continue
			}
			headers = line
			continue
		}
		if !hasContent(line) {
			continue
		}
		row := Row{}
		for i, value := range line {
			if i >= len(headers) || headers[i] == "" || value == "" {
				continue
			}
			row.Columns = append(row.Columns, Column{Header: headers[i], Value: value})
		}
		if len(row.Columns) > 0 {
			rows = append(rows, row)
		}
	}

	return rows, nil
}

func hasContent(line []string) bool {
	for _, v := range line {
		if v != "" {
			return true
		}
	}
	return false
}
