package fetcher

import (
	"bytes"
	"encoding/csv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// XLSXOptions configures the XLSX parser.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
	SkipRows   int    // rows above the header
}

// ReadXLSXRows reads one sheet of an XLSX file as string rows.
func ReadXLSXRows(path string, opts XLSXOptions) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "xlsx: open %s", path)
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	for i, row := range sheet.Rows {
		if i < opts.SkipRows {
			continue
		}
		rows = append(rows, rowToStrings(row))
	}
	return rows, nil
}

// ReadXLSX decodes one sheet of an XLSX file into typed rows. The first
// row after SkipRows is the header; decoding then follows the same rules
// as ReadCSV, including the skipped-row count.
func ReadXLSX[T any](path string, opts XLSXOptions) (Result[T], error) {
	rows, err := ReadXLSXRows(path, opts)
	if err != nil {
		return Result[T]{}, err
	}
	if len(rows) == 0 {
		return Result[T]{}, nil
	}

	// Trailing empty cells get dropped by sheet parsing; pad back out to
	// the header width so every record matches the header.
	width := len(rows[0])
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range rows {
		for len(row) < width {
			row = append(row, "")
		}
		if len(row) > width {
			row = row[:width]
		}
		if err := w.Write(row); err != nil {
			return Result[T]{}, eris.Wrap(err, "xlsx: rewrite row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return Result[T]{}, eris.Wrap(err, "xlsx: rewrite rows")
	}

	return DecodeCSV[T](&buf, CSVOptions{TrimSpace: true, LazyQuotes: true})
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("xlsx: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}

	return f.Sheets[opts.SheetIndex], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
