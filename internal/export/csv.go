// Package export renders ranked groups as flat CSV tables safe to open in
// spreadsheet software.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/royaltylab/royalty-report-service/internal/analysis"
)

// utf8BOM makes Excel detect UTF-8 instead of guessing a legacy codepage.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// formulaPrefixes are the characters spreadsheets interpret as the start
// of a formula. A label beginning with one of them could execute on
// import elsewhere, so it is neutralized with a leading apostrophe.
const formulaPrefixes = "+-=@"

// WriteCSV renders ranked rows as a flat table: one row per group with
// the dimension label, streams, earnings, and rate columns. Rows are
// written in their ranked order. The dimension header names the label
// field ("Platform", "Track", …).
func WriteCSV(w io.Writer, dimensionHeader string, rows []analysis.Ranked) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write export: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{dimensionHeader, "Streams", "Earnings", "Value per 1K Streams"}); err != nil {
		return fmt.Errorf("write export header: %w", err)
	}

	for _, r := range rows {
		record := []string{
			NeutralizeFormula(r.Label),
			fmt.Sprintf("%.0f", r.Quantity),
			fmt.Sprintf("%.2f", r.Revenue),
			fmt.Sprintf("%.2f", r.Rate),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write export row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// NeutralizeFormula prefixes labels starting with a formula character so
// spreadsheet software treats them as text.
func NeutralizeFormula(label string) string {
	if label != "" && strings.ContainsRune(formulaPrefixes, rune(label[0])) {
		return "'" + label
	}
	return label
}
