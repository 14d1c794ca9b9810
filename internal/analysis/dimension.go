// Package analysis turns canonical royalty records into grouped, ranked,
// filterable views: the aggregation engine behind the dashboard and export
// surfaces.
package analysis

import (
	"fmt"

	"github.com/royaltylab/royalty-report-service/internal/domain"
)

// View names one analysis dimension tab. Each view fixes how records are
// keyed and labeled, which pair of cascading filters applies, and how the
// export's dimension column is headed.
type View string

const (
	ViewPlatforms View = "platforms"
	ViewCountries View = "countries"
	ViewArtists   View = "artists"
	ViewReleases  View = "releases"
	ViewTracks    View = "tracks"
)

// Views returns all analysis views in display order.
func Views() []View {
	return []View{ViewPlatforms, ViewCountries, ViewArtists, ViewReleases, ViewTracks}
}

// ParseView validates a view name from an API request.
func ParseView(s string) (View, error) {
	v := View(s)
	switch v {
	case ViewPlatforms, ViewCountries, ViewArtists, ViewReleases, ViewTracks:
		return v, nil
	}
	return "", fmt.Errorf("unknown view %q", s)
}

// Title returns the headline used for the view's ranked output.
func (v View) Title() string {
	switch v {
	case ViewPlatforms:
		return "Top Platforms"
	case ViewCountries:
		return "Top Countries"
	case ViewArtists:
		return "Top Artists"
	case ViewReleases:
		return "Top Releases"
	default:
		return "Top Tracks"
	}
}

// FilterFields returns the view's fixed pair of filter fields, in cascade
// order: the first filter narrows the option list of the second.
func (v View) FilterFields() []domain.Field {
	switch v {
	case ViewPlatforms:
		return []domain.Field{domain.FieldArtist, domain.FieldCountry}
	case ViewCountries:
		return []domain.Field{domain.FieldPlatform, domain.FieldArtist}
	default:
		return []domain.Field{domain.FieldPlatform, domain.FieldCountry}
	}
}

// ResolveKeys picks the grouping key and label field for a view over the
// given records. Releases and tracks group by their identifier (UPC, ISRC)
// whenever any record in context carries one, because titles alone are
// ambiguous: two releases can share a name. With no identifiers present
// the view degrades to title-based grouping.
func ResolveKeys(v View, records []domain.Record) (key, label domain.Field) {
	switch v {
	case ViewPlatforms:
		return domain.FieldPlatform, domain.FieldPlatform
	case ViewCountries:
		return domain.FieldCountry, domain.FieldCountry
	case ViewArtists:
		return domain.FieldArtist, domain.FieldArtist
	case ViewReleases:
		if anyIdentifier(records, domain.FieldUPC) {
			return domain.FieldUPC, domain.FieldReleaseTitle
		}
		return domain.FieldReleaseTitle, domain.FieldReleaseTitle
	default: // ViewTracks
		if anyIdentifier(records, domain.FieldISRC) {
			return domain.FieldISRC, domain.FieldTrackTitle
		}
		return domain.FieldTrackTitle, domain.FieldTrackTitle
	}
}

// anyIdentifier reports whether at least one record has a non-empty value
// for the identifier field after code normalization.
func anyIdentifier(records []domain.Record, f domain.Field) bool {
	for _, r := range records {
		if NormalizeCode(r.Text(f)) != "" {
			return true
		}
	}
	return false
}

// ExportHeader maps the view's label field to the dimension column header
// used in exported tables.
func (v View) ExportHeader() string {
	switch v {
	case ViewPlatforms:
		return "Platform"
	case ViewCountries:
		return "Country"
	case ViewArtists:
		return "Artist"
	case ViewReleases:
		return "Release"
	default:
		return "Track"
	}
}
