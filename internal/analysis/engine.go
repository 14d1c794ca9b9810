package analysis

import (
	"fmt"

	"github.com/royaltylab/royalty-report-service/internal/domain"
)

// TopRequest is one ranked-view request: which view, which metric, how
// many rows, and how colliding labels are disambiguated. N <= 0 returns
// every group, which is what exports use.
type TopRequest struct {
	View        View
	Metric      Metric
	N           int
	MinQuantity float64 // rate metric only; <= 0 uses DefaultRateMinQuantity
	Mode        DisambiguationMode
	TailLen     int
}

// TopResult carries the ranked rows plus the context they were computed
// in: the cascaded filter options and the filtered-set totals that shares
// are measured against.
type TopResult struct {
	Title   string
	Filters []FilterOptions
	Rows    []Ranked

	// Totals over the filtered record set, not just the returned rows.
	TotalStreams  float64
	TotalEarnings float64
}

// Top runs the full engine for one view: cascade filters, resolve the
// grouping key, aggregate, disambiguate labels, rank. Everything is
// recomputed from the canonical records on each call; nothing is cached,
// so results can never go stale against the filter state.
func Top(records []domain.Record, state *FilterState, req TopRequest) TopResult {
	opts, narrowed := state.Cascade(req.View, records)

	var streams, revenue float64
	for _, r := range narrowed {
		streams += r.Quantity
		revenue += r.Revenue
	}

	key, label := ResolveKeys(req.View, narrowed)
	groups := Aggregate(narrowed, key, label)

	mode := req.Mode
	if mode == "" {
		mode = DisambiguateFull
	}
	tailLen := req.TailLen
	if tailLen <= 0 {
		tailLen = DefaultTailLen
	}
	groups = Disambiguate(groups, mode, tailLen)

	minQty := req.MinQuantity
	if req.Metric == MetricRate && minQty <= 0 {
		minQty = DefaultRateMinQuantity
	}

	var total float64
	switch req.Metric {
	case MetricEarnings:
		total = revenue
	case MetricStreams:
		total = streams
	}
	// Rate shares are meaningless (rates do not sum to the whole), so the
	// total stays 0 and shares are omitted.

	rows := RankTop(groups, req.Metric, req.N, minQty, total)

	return TopResult{
		Title:         fmt.Sprintf("%s by %s", req.View.Title(), req.Metric.DisplayName()),
		Filters:       opts,
		Rows:          rows,
		TotalStreams:  streams,
		TotalEarnings: revenue,
	}
}
