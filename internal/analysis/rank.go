package analysis

import (
	"fmt"
	"sort"

	"github.com/royaltylab/royalty-report-service/internal/domain"
)

// Metric selects which aggregate a ranking sorts by.
type Metric string

const (
	MetricEarnings Metric = "earnings"
	MetricStreams  Metric = "streams"
	MetricRate     Metric = "rate"
)

// ParseMetric validates a metric name from an API request.
func ParseMetric(s string) (Metric, error) {
	m := Metric(s)
	switch m {
	case MetricEarnings, MetricStreams, MetricRate:
		return m, nil
	}
	return "", fmt.Errorf("unknown metric %q", s)
}

// DisplayName returns the metric's human name as shown in titles and
// export column headers.
func (m Metric) DisplayName() string {
	switch m {
	case MetricStreams:
		return "Streams"
	case MetricRate:
		return "Value per 1K Streams"
	default:
		return "Earnings"
	}
}

// Value extracts the metric's value from a group.
func (m Metric) Value(g Group) float64 {
	switch m {
	case MetricStreams:
		return g.Quantity
	case MetricRate:
		return g.Rate
	default:
		return g.Revenue
	}
}

// DefaultRateMinQuantity excludes statistically noisy low-volume groups
// when ranking by rate: a track with 3 streams and one accidental payout
// would otherwise top every rate chart.
const DefaultRateMinQuantity = 1000

// Ranked is a group annotated with its metric value and share of a
// caller-supplied total. Share is 0 when the total was not positive.
type Ranked struct {
	Group
	MetricValue float64
	Share       float64
}

// RankTop sorts groups descending by the metric and keeps the top n
// (n <= 0 keeps all). When ranking by rate, groups below minQuantity
// streams are excluded first; minQuantity is ignored for other metrics.
// Shares are computed against total when total > 0. Ties preserve the
// incoming group order, so ranking is deterministic.
func RankTop(groups []Group, metric Metric, n int, minQuantity float64, total float64) []Ranked {
	ranked := make([]Ranked, 0, len(groups))
	for _, g := range groups {
		if metric == MetricRate && g.Quantity < minQuantity {
			continue
		}
		r := Ranked{Group: g, MetricValue: metric.Value(g)}
		if total > 0 {
			r.Share = r.MetricValue / total
		}
		ranked = append(ranked, r)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].MetricValue > ranked[j].MetricValue
	})

	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// headlineCount is the fixed size of the headline probe.
const headlineCount = 3

// Headliners returns the top 3 groups by revenue as formatted
// "label (share%)" lines. This is the summary call-out probe: always
// computed over the full confirmed dataset, always by revenue, never
// filtered or user-configurable. Shares use the summed revenue of all
// groups as the total; a zero total degrades to shares of zero rather
// than dividing by it.
func Headliners(records []domain.Record, key, label domain.Field) []string {
	if len(records) == 0 {
		return nil
	}
	groups := Aggregate(records, key, label)

	var total float64
	for _, g := range groups {
		total += g.Revenue
	}
	if total == 0 {
		total = 1
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Revenue > groups[j].Revenue
	})
	if len(groups) > headlineCount {
		groups = groups[:headlineCount]
	}

	lines := make([]string, len(groups))
	for i, g := range groups {
		lines[i] = fmt.Sprintf("%s (%.0f%%)", g.Label, g.Revenue/total*100)
	}
	return lines
}
