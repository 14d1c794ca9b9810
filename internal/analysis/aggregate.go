package analysis

import (
	"strings"
	"unicode"

	"github.com/royaltylab/royalty-report-service/internal/domain"
)

// MissingLabel is the placeholder label for groups whose key is missing.
// It matches what spreadsheet users see for empty identifier cells.
const MissingLabel = "NaN"

// Group is one aggregated row: a dimension key, its display label, summed
// quantity and revenue, and the derived per-mille rate. Groups are created
// fresh per aggregation call and never mutated afterwards, only filtered
// and sorted.
type Group struct {
	// Key is the grouping key: code-normalized for identifier fields, raw
	// text otherwise. Empty with KeyMissing set when the key was absent.
	Key        string
	KeyMissing bool

	Label    string
	Quantity float64
	Revenue  float64

	// Rate is revenue per 1000 units of quantity, 0 when quantity is 0.
	Rate float64
}

// NormalizeCode canonicalizes an identifier value: trim, uppercase, strip
// every non-alphanumeric rune. "us-s1z-99-00001 " and "USS1Z9900001" meet
// in the middle. Returns "" when nothing survives.
func NormalizeCode(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Aggregate groups canonical records by the key field, summing quantity
// and revenue, and resolves a display label per group from the label
// field. Key and label may be the same field (platform by platform) or
// differ (group by ISRC, label by track title).
//
// Identifier keys are code-normalized first, and records whose key
// normalizes away are kept in one missing-key group; they are real rows
// that simply lack an identifier. Label resolution is an ordered fallback:
// the key's own text when key == label, else the first non-empty label
// observed for the key in row order, else the key text, else MissingLabel.
// Group order is first appearance in row order, so repeated runs over the
// same records are identical.
func Aggregate(records []domain.Record, key, label domain.Field) []Group {
	type bucket struct {
		group Group
		index int
	}
	buckets := make(map[string]*bucket)
	order := 0

	for _, r := range records {
		k, missing := groupKey(r, key)

		b, ok := buckets[k]
		if !ok {
			b = &bucket{
				group: Group{Key: k, KeyMissing: missing},
				index: order,
			}
			order++
			buckets[k] = b
		}
		b.group.Quantity += r.Quantity
		b.group.Revenue += r.Revenue

		// First non-empty label in row order wins. When several rows for
		// one identifier disagree (a title corrected mid-catalog), this
		// keeps the earliest spelling; documented, deterministic behavior.
		// The missing-key group stays on the placeholder: it pools rows
		// from many titles, so no single observed label is honest.
		if b.group.Label == "" && key != label && !missing {
			b.group.Label = r.Text(label)
		}
	}

	groups := make([]Group, len(buckets))
	for _, b := range buckets {
		g := b.group
		g.Label = resolveLabel(g, key, label)
		if g.Quantity > 0 {
			g.Rate = g.Revenue / g.Quantity * 1000
		}
		groups[b.index] = g
	}
	return groups
}

// groupKey extracts the (possibly normalized) grouping key for a record.
func groupKey(r domain.Record, key domain.Field) (string, bool) {
	raw := r.Text(key)
	if key.IsIdentifier() {
		norm := NormalizeCode(raw)
		return norm, norm == ""
	}
	return raw, raw == ""
}

// resolveLabel applies the label fallback chain to a summed group. Each
// tier is total; the chain always produces a non-empty label.
func resolveLabel(g Group, key, label domain.Field) string {
	if key == label {
		if g.KeyMissing {
			return MissingLabel
		}
		return g.Key
	}
	if g.Label != "" {
		return g.Label
	}
	if !g.KeyMissing && g.Key != "" {
		return g.Key
	}
	return MissingLabel
}
