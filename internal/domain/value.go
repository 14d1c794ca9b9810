package domain

import (
	"strconv"
	"strings"
)

// ValueKind discriminates the closed set of raw cell representations.
type ValueKind uint8

const (
	KindMissing ValueKind = iota
	KindText
	KindNumber
)

// Value is a raw cell as delivered by an ingestion adapter: text, number,
// or missing. Heterogeneous file formats are narrowed to this variant at
// the ingestion boundary so projection never sees format-specific types.
type Value struct {
	kind ValueKind
	text string
	num  float64
}

// Missing returns the missing-value sentinel.
func Missing() Value { return Value{kind: KindMissing} }

// Text wraps a string cell. Empty and whitespace-only strings stay text;
// callers decide whether to treat them as missing.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Number wraps a numeric cell.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Kind returns the variant tag.
func (v Value) Kind() ValueKind { return v.kind }

// IsMissing reports whether the cell carried no value.
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// String renders the cell as text. Missing renders as the empty string;
// numbers render in their shortest decimal form.
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return ""
	}
}

// Float coerces the cell to a number. Unparsable text and missing cells
// coerce to 0 rather than failing: partial numeric corruption is common in
// large reports and must not block analysis.
func (v Value) Float() float64 {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindText:
		s := strings.TrimSpace(v.text)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
