package analysis

import (
	"sort"

	"github.com/royaltylab/royalty-report-service/internal/domain"
)

// AllValues is the sentinel meaning "no constraint" for a filter field.
const AllValues = "ALL"

// Selection is one equality constraint on the canonical record set.
type Selection struct {
	Field domain.Field
	Value string
}

// ApplyFilters narrows records by a sequence of equality predicates.
// Selections carrying the AllValues sentinel or an empty value are
// inactive. The result shares no backing array with the input when any
// constraint is active.
func ApplyFilters(records []domain.Record, selections []Selection) []domain.Record {
	out := records
	for _, sel := range selections {
		if sel.Value == "" || sel.Value == AllValues {
			continue
		}
		filtered := make([]domain.Record, 0, len(out))
		for _, r := range out {
			if r.Text(sel.Field) == sel.Value {
				filtered = append(filtered, r)
			}
		}
		out = filtered
	}
	return out
}

// Options lists the selectable values for a field over a record set:
// distinct non-empty values, sorted. The AllValues sentinel is implied and
// not included.
func Options(records []domain.Record, f domain.Field) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		v := r.Text(f)
		if v == "" {
			continue
		}
		seen[v] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// FilterState holds the per-view filter selections of one analysis
// session. Views are independent: narrowing Tracks leaves Releases alone.
// The zero value is not usable; call NewFilterState.
type FilterState struct {
	selected map[View]map[domain.Field]string
}

// NewFilterState creates a state with every view's filters at AllValues.
func NewFilterState() *FilterState {
	return &FilterState{selected: make(map[View]map[domain.Field]string)}
}

// Set records a selection for one of the view's filter fields. The
// AllValues sentinel (or empty string) clears the constraint.
func (s *FilterState) Set(v View, f domain.Field, value string) {
	if value == "" || value == AllValues {
		if m, ok := s.selected[v]; ok {
			delete(m, f)
		}
		return
	}
	m, ok := s.selected[v]
	if !ok {
		m = make(map[domain.Field]string)
		s.selected[v] = m
	}
	m[f] = value
}

// Reset clears every filter of one view back to AllValues, leaving the
// other views untouched.
func (s *FilterState) Reset(v View) {
	delete(s.selected, v)
}

// ResetAll clears every view, used when the active report changes.
func (s *FilterState) ResetAll() {
	s.selected = make(map[View]map[domain.Field]string)
}

// Selections returns the view's active constraints in cascade order.
func (s *FilterState) Selections(v View) []Selection {
	m := s.selected[v]
	if len(m) == 0 {
		return nil
	}
	var out []Selection
	for _, f := range v.FilterFields() {
		if val, ok := m[f]; ok {
			out = append(out, Selection{Field: f, Value: val})
		}
	}
	return out
}

// FilterOptions describes one filter dropdown after cascading: the values
// still reachable given every earlier filter, and the current selection
// (AllValues when unconstrained).
type FilterOptions struct {
	Field    domain.Field
	Selected string
	Options  []string
}

// Cascade computes each filter's option list over the record set narrowed
// by all earlier filters, and drops any stored selection that is no longer
// reachable. Filter 2's dropdown therefore never offers a value that
// filter 1 already excluded, and stale selections self-heal when the
// active report shrinks. Returns the options and the fully narrowed set.
func (s *FilterState) Cascade(v View, records []domain.Record) ([]FilterOptions, []domain.Record) {
	fields := v.FilterFields()
	opts := make([]FilterOptions, 0, len(fields))
	narrowed := records

	for _, f := range fields {
		available := Options(narrowed, f)

		selected := AllValues
		if m, ok := s.selected[v]; ok {
			if val, ok := m[f]; ok {
				if contains(available, val) {
					selected = val
				} else {
					delete(m, f) // no longer reachable
				}
			}
		}

		opts = append(opts, FilterOptions{Field: f, Selected: selected, Options: available})

		if selected != AllValues {
			narrowed = ApplyFilters(narrowed, []Selection{{Field: f, Value: selected}})
		}
	}
	return opts, narrowed
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
