package domain

// Field identifies one of the ten canonical business attributes every
// royalty report is normalized into. The set is closed: raw reports may
// carry any number of columns, but analysis only ever sees these.
type Field string

const (
	FieldReportingMonth Field = "reporting_month"
	FieldCountry        Field = "country"
	FieldPlatform       Field = "platform"
	FieldArtist         Field = "artist_name"
	FieldReleaseTitle   Field = "release_title"
	FieldTrackTitle     Field = "track_title"
	FieldISRC           Field = "isrc"
	FieldUPC            Field = "upc"
	FieldQuantity       Field = "quantity"
	FieldRevenue        Field = "revenue"
)

// Fields returns every canonical field in resolution order. Auto-mapping
// walks this slice, so the order is part of the detection contract.
func Fields() []Field {
	return []Field{
		FieldReportingMonth,
		FieldCountry,
		FieldPlatform,
		FieldArtist,
		FieldReleaseTitle,
		FieldTrackTitle,
		FieldISRC,
		FieldUPC,
		FieldQuantity,
		FieldRevenue,
	}
}

// fieldLabels are the short names shown by mapping UIs and CLIs.
var fieldLabels = map[Field]string{
	FieldReportingMonth: "Reporting Month",
	FieldCountry:        "Country",
	FieldPlatform:       "Platform",
	FieldArtist:         "Artist",
	FieldReleaseTitle:   "Release",
	FieldTrackTitle:     "Track",
	FieldISRC:           "ISRC",
	FieldUPC:            "UPC",
	FieldQuantity:       "Quantity (streams/units)",
	FieldRevenue:        "Revenue",
}

// fieldHelp gives a one-line description of what each field should map to.
var fieldHelp = map[Field]string{
	FieldReportingMonth: "Month of the statement/report (e.g., 2023-01)",
	FieldCountry:        "Country / Territory / Region",
	FieldPlatform:       "Store / Service / Partner",
	FieldArtist:         "Performer / Artist name",
	FieldReleaseTitle:   "Album / Release title",
	FieldTrackTitle:     "Song / Track title",
	FieldISRC:           "Track identifier (ISRC)",
	FieldUPC:            "Release identifier (UPC/EAN)",
	FieldQuantity:       "Streams / Units / Downloads",
	FieldRevenue:        "Net/Gross royalty amount",
}

// Label returns the human label for the field.
func (f Field) Label() string {
	if l, ok := fieldLabels[f]; ok {
		return l
	}
	return string(f)
}

// Help returns the one-line description for the field.
func (f Field) Help() string {
	return fieldHelp[f]
}

// IsIdentifier reports whether the field holds a sparse global identifier
// (ISRC for tracks, UPC/EAN for releases). Identifier fields get code
// normalization before grouping; free-text fields do not.
func (f Field) IsIdentifier() bool {
	return f == FieldISRC || f == FieldUPC
}

// IsNumeric reports whether the field is coerced to a number during
// projection.
func (f Field) IsNumeric() bool {
	return f == FieldQuantity || f == FieldRevenue
}

// Valid reports whether f is one of the ten canonical fields.
func (f Field) Valid() bool {
	_, ok := fieldLabels[f]
	return ok
}
