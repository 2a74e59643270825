// Package ingest reads a column of measurements from CSV or Excel files.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrNoColumn is returned when no usable measurement column is found.
	ErrNoColumn = errors.New("ingest: no measurement column")

	// ErrUnsupportedFormat is returned for file extensions other than csv and xlsx.
	ErrUnsupportedFormat = errors.New("ingest: unsupported file format")
)

// preferredHeaders are picked, in order, when no column is named.
var preferredHeaders = []string{"measurement", "value", "reading"}

// Options select what to read. Column matches a header case-insensitively
// or is a 1-based column number. Sheet applies to workbooks only and
// defaults to the first sheet.
type Options struct {
	Column string
	Sheet  string
}

// Result is one column of parsed values.
type Result struct {
	Column  string    `json:"column"`
	Values  []float64 `json:"values"`
	Invalid []string  `json:"invalid,omitempty"`
}

// ReadFile dispatches on the file extension.
func ReadFile(path string, opts Options) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening measurements: %w", err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".txt":
		return ReadCSV(f, opts)
	case ".xlsx", ".xlsm":
		return ReadXLSX(f, opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// ReadCSV reads a comma-separated table.
func ReadCSV(r io.Reader, opts Options) (*Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	return fromRows(rows, opts)
}

// ReadXLSX reads one sheet of an Excel workbook.
func ReadXLSX(r io.Reader, opts Options) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening XLSX: %w", err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("no sheets found in XLSX")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	return fromRows(rows, opts)
}

func fromRows(rows [][]string, opts Options) (*Result, error) {
	rows = dropBlank(rows)
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrNoColumn)
	}

	header := hasHeader(rows[0])
	var names []string
	data := rows
	if header {
		names = rows[0]
		data = rows[1:]
	}

	col, err := pickColumn(names, data, opts.Column)
	if err != nil {
		return nil, err
	}

	res := &Result{Column: columnName(names, col)}
	for _, row := range data {
		if col >= len(row) {
			continue
		}
		cell := strings.TrimSpace(row[col])
		if cell == "" {
			continue
		}
		if v, ok := parseNumber(cell); ok {
			res.Values = append(res.Values, v)
		} else {
			res.Invalid = append(res.Invalid, cell)
		}
	}
	return res, nil
}

func pickColumn(names []string, data [][]string, want string) (int, error) {
	want = strings.TrimSpace(want)
	if want != "" {
		for i, n := range names {
			if strings.EqualFold(strings.TrimSpace(n), want) {
				return i, nil
			}
		}
		if n, err := strconv.Atoi(want); err == nil && n >= 1 && n <= width(names, data) {
			return n - 1, nil
		}
		return 0, fmt.Errorf("%w: %q not found", ErrNoColumn, want)
	}

	for _, pref := range preferredHeaders {
		for i, n := range names {
			if strings.EqualFold(strings.TrimSpace(n), pref) {
				return i, nil
			}
		}
	}
	for i := range width(names, data) {
		for _, row := range data {
			if i < len(row) {
				if _, ok := parseNumber(strings.TrimSpace(row[i])); ok {
					return i, nil
				}
			}
		}
	}
	return 0, fmt.Errorf("%w: no column contains numeric values", ErrNoColumn)
}

// hasHeader treats the first row as a header when any cell is non-numeric text.
func hasHeader(row []string) bool {
	for _, cell := range row {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		if _, ok := parseNumber(cell); !ok {
			return true
		}
	}
	return false
}

func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func width(names []string, data [][]string) int {
	w := len(names)
	for _, row := range data {
		w = max(w, len(row))
	}
	return w
}

func columnName(names []string, col int) string {
	if col < len(names) && strings.TrimSpace(names[col]) != "" {
		return strings.TrimSpace(names[col])
	}
	return fmt.Sprintf("column %d", col+1)
}

func dropBlank(rows [][]string) [][]string {
	out := rows[:0:0]
	for _, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				out = append(out, row)
				break
			}
		}
	}
	return out
}
