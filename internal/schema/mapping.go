package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/royaltylab/royalty-report-service/internal/domain"
)

// Duplicate records one raw column assigned to two or more canonical fields.
type Duplicate struct {
	Column string
	Fields []domain.Field
}

// Violations is the full validation result for a candidate mapping. Both
// kinds of violation are collected together so a caller fixing the mapping
// sees everything wrong at once, not just the first problem.
type Violations struct {
	Missing    []domain.Field
	Duplicates []Duplicate
}

// Confirmed reports whether the mapping passed: total over the required
// field set and injective over raw columns.
func (v Violations) Confirmed() bool {
	return len(v.Missing) == 0 && len(v.Duplicates) == 0
}

// Err renders the violations as a single error, or nil when confirmed.
func (v Violations) Err() error {
	if v.Confirmed() {
		return nil
	}
	var parts []string
	if len(v.Missing) > 0 {
		labels := make([]string, len(v.Missing))
		for i, f := range v.Missing {
			labels[i] = f.Label()
		}
		parts = append(parts, "missing fields: "+strings.Join(labels, ", "))
	}
	for _, d := range v.Duplicates {
		labels := make([]string, len(d.Fields))
		for i, f := range d.Fields {
			labels[i] = f.Label()
		}
		parts = append(parts, fmt.Sprintf("column %q assigned to multiple fields: %s",
			d.Column, strings.Join(labels, ", ")))
	}
	return fmt.Errorf("mapping not confirmed: %s", strings.Join(parts, "; "))
}

// Validate checks a candidate mapping for totality and injectivity.
// Missing fields are reported in canonical enumeration order; duplicates
// are sorted by column name. Empty column assignments count as missing.
func Validate(m domain.Mapping) Violations {
	var v Violations

	byColumn := make(map[string][]domain.Field)
	for _, f := range domain.Fields() {
		col := strings.TrimSpace(m[f])
		if col == "" {
			v.Missing = append(v.Missing, f)
			continue
		}
		byColumn[col] = append(byColumn[col], f)
	}

	for col, fields := range byColumn {
		if len(fields) > 1 {
			v.Duplicates = append(v.Duplicates, Duplicate{Column: col, Fields: fields})
		}
	}
	sort.Slice(v.Duplicates, func(i, j int) bool {
		return v.Duplicates[i].Column < v.Duplicates[j].Column
	})

	return v
}
