// Package ingest reads distributor report files (CSV, XLSX) into raw
// tables of tagged scalar cells. It owns the messy parts of real exports:
// unknown delimiters, BOMs, legacy encodings, ragged rows.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/royaltylab/royalty-report-service/internal/domain"
)

// ErrEmpty is returned when a file parses but contains no data rows.
var ErrEmpty = errors.New("report contains no data rows")

// ErrUnsupported is returned for file extensions outside the allow-list.
var ErrUnsupported = errors.New("unsupported file type: expected .csv or .xlsx")

// Table is a parsed report: ordered raw column names (whitespace-trimmed,
// as found in the file) and one RawRecord per data row.
type Table struct {
	Columns []string
	Rows    []domain.RawRecord
}

// Read parses a report file by extension. The reader is expected to be
// size-capped by the transport layer; Read imposes no further limit.
func Read(filename string, r io.Reader) (*Table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return ReadCSV(r)
	case ".xlsx":
		return ReadXLSX(r)
	default:
		return nil, ErrUnsupported
	}
}

// tableFromRows builds a Table from a header row plus data rows. Header
// cells are trimmed; empty header cells get positional names so the column
// count stays stable. Short rows pad with missing cells, long rows drop
// the overflow. Empty cells become the missing value.
func tableFromRows(rows [][]string) (*Table, error) {
	if len(rows) == 0 {
		return nil, ErrEmpty
	}

	header := rows[0]
	columns := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		columns[i] = h
	}

	records := make([]domain.RawRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		rec := make(domain.RawRecord, len(columns))
		for i, col := range columns {
			if i >= len(row) || strings.TrimSpace(row[i]) == "" {
				rec[col] = domain.Missing()
				continue
			}
			rec[col] = domain.Text(row[i])
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, ErrEmpty
	}
	return &Table{Columns: columns, Rows: records}, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
