package analysis

import (
	"strings"
	"time"

	"github.com/royaltylab/royalty-report-service/internal/domain"
)

// Summary is the headline view of one confirmed report: totals, the
// reporting period, the currency hint, and the three top-3 call-outs.
// Always computed over the full dataset, before any view filters.
type Summary struct {
	TotalStreams  float64 `json:"total_streams"`
	TotalEarnings float64 `json:"total_earnings"`

	// Display renderings of the totals: space-grouped streams, two
	// decimals on small amounts.
	TotalStreamsText  string `json:"total_streams_text"`
	TotalEarningsText string `json:"total_earnings_text"`

	Period       string   `json:"period"`
	CurrencyHint string   `json:"currency_hint"`
	TopPlatforms []string `json:"top_platforms"`
	TopCountries []string `json:"top_countries"`
	TopTracks    []string `json:"top_tracks"`
}

// Summarize builds the Summary for a projected dataset. The tracks
// call-out keys by ISRC when any record carries one, matching the Tracks
// view's own key resolution.
func Summarize(ds *domain.Dataset) Summary {
	records := ds.Records

	var streams, revenue float64
	for _, r := range records {
		streams += r.Quantity
		revenue += r.Revenue
	}

	trackKey, trackLabel := ResolveKeys(ViewTracks, records)

	return Summary{
		TotalStreams:      streams,
		TotalEarnings:     revenue,
		TotalStreamsText:  FormatInt(streams),
		TotalEarningsText: FormatAmount(revenue),
		Period:            PeriodLabel(records),
		CurrencyHint:      ds.CurrencyHint,
		TopPlatforms:      Headliners(records, domain.FieldPlatform, domain.FieldPlatform),
		TopCountries:      Headliners(records, domain.FieldCountry, domain.FieldCountry),
		TopTracks:         Headliners(records, trackKey, trackLabel),
	}
}

// monthLayouts are the reporting_month spellings accepted, most specific
// first. Distributors disagree even here.
var monthLayouts = []string{
	"2006-01-02",
	"2006-01",
	"01/2006",
	"2006/01",
	"Jan-2006",
	"January 2006",
	"200601",
}

// PeriodLabel derives a display label for the report period from the
// reporting_month values: "MM.YYYY" for a single month, "MM.YYYY–MM.YYYY"
// for a range, "—" when no value parses.
func PeriodLabel(records []domain.Record) string {
	var minT, maxT time.Time
	for _, r := range records {
		t, ok := parseMonth(r.ReportingMonth)
		if !ok {
			continue
		}
		if minT.IsZero() || t.Before(minT) {
			minT = t
		}
		if maxT.IsZero() || t.After(maxT) {
			maxT = t
		}
	}
	if minT.IsZero() {
		return "—"
	}
	const layout = "01.2006"
	if minT.Year() == maxT.Year() && minT.Month() == maxT.Month() {
		return minT.Format(layout)
	}
	return minT.Format(layout) + "–" + maxT.Format(layout)
}

func parseMonth(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
