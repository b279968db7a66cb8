// Package fetcher parses tabular source files (CSV and XLSX) into typed rows.
package fetcher

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// CSVOptions configures the CSV parser.
type CSVOptions struct {
	Delimiter  rune // default ','
	Comment    rune // comment character (0 = none)
	LazyQuotes bool
	TrimSpace  bool
}

// Result carries decoded rows plus the count of malformed rows that were
// skipped. Skipped rows never fail a load; callers surface the count.
type Result[T any] struct {
	Rows    []T
	Skipped int
}

// ReadCSV opens and decodes a headered CSV file into typed rows.
func ReadCSV[T any](path string, opts CSVOptions) (Result[T], error) {
	f, err := os.Open(path)
	if err != nil {
		return Result[T]{}, eris.Wrapf(err, "csv: open %s", path)
	}
	defer f.Close()

	res, err := DecodeCSV[T](f, opts)
	if err != nil {
		return Result[T]{}, eris.Wrapf(err, "csv: decode %s", path)
	}
	if res.Skipped > 0 {
		zap.L().Warn("skipped malformed csv rows",
			zap.String("path", path),
			zap.Int("skipped", res.Skipped))
	}
	return res, nil
}

// DecodeCSV decodes headered CSV from a reader into typed rows. Rows that
// fail to parse or convert are skipped and counted; structural errors
// (bad header, broken reader) abort.
func DecodeCSV[T any](r io.Reader, opts CSVOptions) (Result[T], error) {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	if opts.Comment != 0 {
		reader.Comment = opts.Comment
	}
	reader.LazyQuotes = opts.LazyQuotes
	reader.FieldsPerRecord = -1 // ragged rows are a skip, not an abort

	dec, err := csvutil.NewDecoder(reader)
	if err != nil {
		if err == io.EOF {
			return Result[T]{}, nil
		}
		return Result[T]{}, eris.Wrap(err, "csv: read header")
	}
	normalizeHeader(dec, opts)

	var res Result[T]
	for {
		var row T
		err := dec.Decode(&row)
		if err == io.EOF {
			return res, nil
		}
		if err != nil {
			if rowLevel(err) {
				res.Skipped++
				continue
			}
			return res, eris.Wrap(err, "csv: decode row")
		}
		res.Rows = append(res.Rows, row)
	}
}

func normalizeHeader(dec *csvutil.Decoder, opts CSVOptions) {
	if !opts.TrimSpace {
		return
	}
	dec.Map = func(field, _ string, _ any) string {
		return strings.TrimSpace(field)
	}
}

// ReadCSVRows reads a headered CSV file as raw string rows, for inputs
// whose column set is dynamic. Ragged rows are kept as-is.
func ReadCSVRows(path string, opts CSVOptions) (header []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "csv: open %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	if opts.Comment != 0 {
		reader.Comment = opts.Comment
	}
	reader.LazyQuotes = opts.LazyQuotes
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, eris.Wrapf(err, "csv: read %s", path)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}
	if opts.TrimSpace {
		for _, rec := range records {
			for i, field := range rec {
				rec[i] = strings.TrimSpace(field)
			}
		}
	}
	return records[0], records[1:], nil
}

// rowLevel reports whether a decode error is confined to one record.
func rowLevel(err error) bool {
	if errors.Is(err, csvutil.ErrFieldCount) {
		return true
	}
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return true
	}
	var typeErr *csvutil.UnmarshalTypeError
	return errors.As(err, &typeErr)
}
