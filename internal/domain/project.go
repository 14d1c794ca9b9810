package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Project applies a confirmed mapping to raw rows, producing canonical
// records. Output columns are exactly the ten canonical fields; raw columns
// beyond the mapping are dropped. Quantity and revenue coerce unparsable or
// missing cells to 0 and never fail.
//
// Project assumes the mapping has already passed schema.Validate; an
// unvalidated mapping simply yields empty or zero fields.
func Project(rows []RawRecord, m Mapping) []Record {
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, Record{
			ReportingMonth: projectText(row, m, FieldReportingMonth),
			Country:        projectText(row, m, FieldCountry),
			Platform:       projectText(row, m, FieldPlatform),
			Artist:         projectText(row, m, FieldArtist),
			ReleaseTitle:   projectText(row, m, FieldReleaseTitle),
			TrackTitle:     projectText(row, m, FieldTrackTitle),
			ISRC:           projectText(row, m, FieldISRC),
			UPC:            projectText(row, m, FieldUPC),
			Quantity:       projectNumber(row, m, FieldQuantity),
			Revenue:        projectNumber(row, m, FieldRevenue),
		})
	}
	return records
}

// NewDataset projects raw rows into a Dataset, deriving the currency hint
// from the raw table before the extra columns are discarded. The dataset
// is stamped with the package clock so tests can freeze projection time.
func NewDataset(columns []string, rows []RawRecord, m Mapping) *Dataset {
	return &Dataset{
		Records:      Project(rows, m),
		CurrencyHint: DetectCurrencyHint(columns, rows),
		ProjectedAt:  clock.Now(),
	}
}

func projectText(row RawRecord, m Mapping, f Field) string {
	v, ok := lookup(row, m[f])
	if !ok {
		return ""
	}
	return v.String()
}

func projectNumber(row RawRecord, m Mapping, f Field) float64 {
	v, ok := lookup(row, m[f])
	if !ok {
		return 0
	}
	return v.Float()
}

// lookup finds a raw cell by column name, matching after whitespace
// trimming on both sides. Ingestion trims header names already; the trim
// here covers mappings supplied by callers with untrimmed names.
func lookup(row RawRecord, column string) (Value, bool) {
	if column == "" {
		return Value{}, false
	}
	if v, ok := row[column]; ok {
		return v, true
	}
	trimmed := strings.TrimSpace(column)
	if v, ok := row[trimmed]; ok {
		return v, true
	}
	return Value{}, false
}

// DefaultCurrencyHint is shown when no currency column exists in the raw
// report.
const DefaultCurrencyHint = "in report currency (e.g., $ € £)"

// DetectCurrencyHint inspects an optional raw "currency" column. A single
// distinct value names the currency outright; multiple values flag the
// report as mixed. Currency conversion itself is out of scope.
func DetectCurrencyHint(columns []string, rows []RawRecord) string {
	var currencyCol string
	for _, c := range columns {
		if strings.EqualFold(strings.TrimSpace(c), "currency") {
			currencyCol = c
			break
		}
	}
	if currencyCol == "" {
		return DefaultCurrencyHint
	}

	seen := make(map[string]struct{})
	for _, row := range rows {
		v, ok := row[currencyCol]
		if !ok || v.IsMissing() {
			continue
		}
		s := strings.ToUpper(strings.TrimSpace(v.String()))
		if s == "" {
			continue
		}
		seen[s] = struct{}{}
	}

	switch len(seen) {
	case 0:
		return DefaultCurrencyHint
	case 1:
		for s := range seen {
			return "currency: " + s
		}
	}

	vals := make([]string, 0, len(seen))
	for s := range seen {
		vals = append(vals, s)
	}
	sort.Strings(vals)
	preview := vals
	suffix := ""
	if len(vals) > 3 {
		preview = vals[:3]
		suffix = "…"
	}
	return fmt.Sprintf("mixed currencies (%s%s)", strings.Join(preview, ", "), suffix)
}
