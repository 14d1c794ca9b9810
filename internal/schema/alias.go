// Package schema maps raw distributor column names onto the canonical
// field set: alias-based auto-detection and mapping validation.
package schema

import (
	"strings"
	"unicode"

	"github.com/royaltylab/royalty-report-service/internal/domain"
)

// aliases lists the known raw-name variants per canonical field, merged
// across source vocabularies (English distributor exports plus Russian
// licensor statements). Matching is by normalized form, so case,
// punctuation, and underscores are irrelevant here; entries are spelled
// the way they appear in real files for greppability.
var aliases = map[domain.Field][]string{
	domain.FieldReportingMonth: {
		"reporting_month", "transaction month", "statement month", "report month",
		"sales month", "accounted date", "month", "year_month", "yyyymm",
		"Месяц продаж",
	},
	domain.FieldPlatform: {
		"platform", "store", "service", "partner", "retailer",
		"Магазин",
	},
	domain.FieldCountry: {
		"country", "territory", "region", "market",
		"country region", "country/region",
		// Both spellings occur in the wild: one starts with a Latin "C",
		// the other with a Cyrillic "С". Script mixing is not
		// auto-normalized, so each is listed literally.
		"Cтрана",
		"Страна",
	},
	domain.FieldArtist: {
		"artist_name", "artists", "artist",
		"Исполнитель",
	},
	domain.FieldReleaseTitle: {
		"release_title", "album/channel", "album", "release", "product", "release name",
		"Альбом",
	},
	domain.FieldTrackTitle: {
		"track_title", "title", "song", "track name", "track",
		"Трек",
	},
	domain.FieldISRC: {
		"isrc", "id",
	},
	domain.FieldUPC: {
		"upc", "ean", "barcode", "catalog", "catalog number", "parent id",
	},
	domain.FieldQuantity: {
		"quantity", "units", "streams", "downloads", "qty", "plays",
		"play count", "streams count",
		"Количество",
	},
	domain.FieldRevenue: {
		"revenue", "net_revenue", "gross_revenue", "net", "gross", "amount",
		"royalty", "earnings", "total usd", "payout", "gross amount", "net amount",
		// The same statements also carry «Доход Лицензиата, руб.»,
		// deliberately not aliased: it is the licensee's income, not the
		// licensor's payout.
		"Вознаграждение Лицензиара, руб.",
	},
}

// aliasSets holds per-field normalized alias lookup sets, built once.
var aliasSets = buildAliasSets()

func buildAliasSets() map[domain.Field]map[string]struct{} {
	sets := make(map[domain.Field]map[string]struct{}, len(aliases))
	for f, list := range aliases {
		set := make(map[string]struct{}, len(list))
		for _, a := range list {
			set[NormalizeHeader(a)] = struct{}{}
		}
		sets[f] = set
	}
	return sets
}

// NormalizeHeader collapses superficially different spellings of a column
// name to one key: lowercase, keep only letters and digits (any script),
// drop separators and underscores. "Net Revenue" and "net_revenue" both
// normalize to "netrevenue".
func NormalizeHeader(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// AutoMap proposes a field mapping for the given raw column names. For
// each canonical field, in enumeration order, the first column in file
// order whose normalized name matches a known alias is selected. A column
// may be proposed for more than one field; exclusivity is Validate's job,
// and the resulting conflict is surfaced there rather than hidden by a
// greedy claim here. Fields with no match are simply absent.
func AutoMap(columns []string) domain.Mapping {
	norm := make([]string, len(columns))
	for i, c := range columns {
		norm[i] = NormalizeHeader(c)
	}

	m := make(domain.Mapping)
	for _, f := range domain.Fields() {
		set := aliasSets[f]
		for i, c := range columns {
			if _, ok := set[norm[i]]; ok {
				m[f] = c
				break
			}
		}
	}
	return m
}

// Aliases returns the known raw-name variants for a canonical field, in
// declaration order. Exposed for mapping UIs and the checkmap CLI.
func Aliases(f domain.Field) []string {
	list := aliases[f]
	out := make([]string, len(list))
	copy(out, list)
	return out
}
