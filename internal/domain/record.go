package domain

import "time"

// RawRecord is one row of an uploaded report: raw column name (as found in
// the file, whitespace-trimmed by the ingestion adapter) to untyped cell.
// Raw records are not retained past projection.
type RawRecord map[string]Value

// Mapping assigns one raw column name to each canonical field. A mapping
// is only usable for projection once it is total over Fields() and
// injective over raw columns; see schema.Validate.
type Mapping map[Field]string

// Clone returns an independent copy of the mapping.
func (m Mapping) Clone() Mapping {
	out := make(Mapping, len(m))
	for f, col := range m {
		out[f] = col
	}
	return out
}

// Record is one canonical row. Text fields keep their raw scalar form
// (missing cells become empty strings); quantity and revenue are coerced
// to numbers at projection time. Records are immutable once projected.
type Record struct {
	ReportingMonth string
	Country        string
	Platform       string
	Artist         string
	ReleaseTitle   string
	TrackTitle     string
	ISRC           string
	UPC            string
	Quantity       float64
	Revenue        float64
}

// Text returns the record's value for a non-numeric canonical field.
// Numeric fields render through Quantity/Revenue instead; Text returns ""
// for them so callers grouping by an unexpected field fail soft.
func (r Record) Text(f Field) string {
	switch f {
	case FieldReportingMonth:
		return r.ReportingMonth
	case FieldCountry:
		return r.Country
	case FieldPlatform:
		return r.Platform
	case FieldArtist:
		return r.Artist
	case FieldReleaseTitle:
		return r.ReleaseTitle
	case FieldTrackTitle:
		return r.TrackTitle
	case FieldISRC:
		return r.ISRC
	case FieldUPC:
		return r.UPC
	default:
		return ""
	}
}

// Dataset is the canonical record set owned by one analysis session,
// together with projection metadata. Derived structures are recomputed
// from Records on every request rather than maintained incrementally.
type Dataset struct {
	Records []Record

	// CurrencyHint describes the report currency, derived from an optional
	// raw "currency" column before projection drops it.
	CurrencyHint string

	ProjectedAt time.Time
}
