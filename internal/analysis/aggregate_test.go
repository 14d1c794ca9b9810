package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/royaltylab/royalty-report-service/internal/domain"
)

func TestNormalizeCode(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"us-s1z-99-00001 ", "USS1Z9900001"},
		{"USS1Z9900001", "USS1Z9900001"},
		{"  0 060255 798816 7", "00602557988167"},
		{"- - -", ""},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NormalizeCode(c.in), "input %q", c.in)
	}
}

func TestAggregate(t *testing.T) {
	t.Run("sums quantity and revenue per key", func(t *testing.T) {
		records := []domain.Record{
			{ISRC: "ABC123", TrackTitle: "Dawn", Quantity: 1000, Revenue: 3.00},
			{ISRC: "abc-123", TrackTitle: "Dawn", Quantity: 500, Revenue: 1.50},
			{ISRC: "XYZ999", TrackTitle: "Waves", Quantity: 200, Revenue: 1.00},
		}

		groups := Aggregate(records, domain.FieldISRC, domain.FieldTrackTitle)
		require.Len(t, groups, 2)

		first := groups[0]
		assert.Equal(t, "ABC123", first.Key)
		assert.Equal(t, "Dawn", first.Label)
		assert.Equal(t, 1500.0, first.Quantity)
		assert.InDelta(t, 4.5, first.Revenue, 1e-9)
		assert.InDelta(t, 3.0, first.Rate, 1e-9)
	})

	t.Run("conserves totals across groups", func(t *testing.T) {
		records := []domain.Record{
			{Platform: "Spotify", Quantity: 10, Revenue: 1},
			{Platform: "Tidal", Quantity: 20, Revenue: 2},
			{Platform: "Spotify", Quantity: 30, Revenue: 3},
			{Platform: "", Quantity: 40, Revenue: 4},
		}

		groups := Aggregate(records, domain.FieldPlatform, domain.FieldPlatform)

		var qty, rev float64
		for _, g := range groups {
			qty += g.Quantity
			rev += g.Revenue
		}
		assert.Equal(t, 100.0, qty)
		assert.Equal(t, 10.0, rev)
	})

	t.Run("missing keys pool into one placeholder group", func(t *testing.T) {
		records := []domain.Record{
			{ISRC: "", TrackTitle: "Orphan A", Quantity: 10, Revenue: 1},
			{ISRC: " - ", TrackTitle: "Orphan B", Quantity: 20, Revenue: 2},
			{ISRC: "OK1", TrackTitle: "Named", Quantity: 5, Revenue: 1},
		}

		groups := Aggregate(records, domain.FieldISRC, domain.FieldTrackTitle)
		require.Len(t, groups, 2)

		missing := groups[0]
		assert.True(t, missing.KeyMissing)
		assert.Equal(t, MissingLabel, missing.Label, "pooled rows never borrow a title")
		assert.Equal(t, 30.0, missing.Quantity)
	})

	t.Run("first observed label wins", func(t *testing.T) {
		records := []domain.Record{
			{ISRC: "ABC", TrackTitle: "Old Spelling", Quantity: 1},
			{ISRC: "ABC", TrackTitle: "New Spelling", Quantity: 1},
		}

		groups := Aggregate(records, domain.FieldISRC, domain.FieldTrackTitle)
		require.Len(t, groups, 1)
		assert.Equal(t, "Old Spelling", groups[0].Label)
	})

	t.Run("empty labels fall back to the key text", func(t *testing.T) {
		records := []domain.Record{
			{ISRC: "ABC", TrackTitle: "", Quantity: 1},
		}

		groups := Aggregate(records, domain.FieldISRC, domain.FieldTrackTitle)
		require.Len(t, groups, 1)
		assert.Equal(t, "ABC", groups[0].Label)
	})

	t.Run("zero quantity yields zero rate", func(t *testing.T) {
		records := []domain.Record{
			{Platform: "Spotify", Quantity: 0, Revenue: 5},
		}

		groups := Aggregate(records, domain.FieldPlatform, domain.FieldPlatform)
		require.Len(t, groups, 1)
		assert.Equal(t, 0.0, groups[0].Rate)
	})

	t.Run("text keys are not code normalized", func(t *testing.T) {
		records := []domain.Record{
			{Platform: "Apple Music", Quantity: 1},
			{Platform: "apple music", Quantity: 1},
		}

		groups := Aggregate(records, domain.FieldPlatform, domain.FieldPlatform)
		assert.Len(t, groups, 2, "platform names differing in case stay separate")
	})

	t.Run("group order is first appearance", func(t *testing.T) {
		records := []domain.Record{
			{Country: "DE", Quantity: 1},
			{Country: "US", Quantity: 1},
			{Country: "DE", Quantity: 1},
			{Country: "BR", Quantity: 1},
		}

		groups := Aggregate(records, domain.FieldCountry, domain.FieldCountry)
		require.Len(t, groups, 3)
		assert.Equal(t, "DE", groups[0].Key)
		assert.Equal(t, "US", groups[1].Key)
		assert.Equal(t, "BR", groups[2].Key)
	})
}

func TestDisambiguate(t *testing.T) {
	t.Run("colliding labels get the full code appended", func(t *testing.T) {
		groups := []Group{
			{Key: "111", Label: "Horizon"},
			{Key: "222", Label: "Horizon"},
			{Key: "333", Label: "Echoes"},
		}

		out := Disambiguate(groups, DisambiguateFull, DefaultTailLen)
		assert.Equal(t, "Horizon • 111", out[0].Label)
		assert.Equal(t, "Horizon • 222", out[1].Label)
		assert.Equal(t, "Echoes", out[2].Label, "unique labels are untouched")
	})

	t.Run("tail mode keeps only the suffix", func(t *testing.T) {
		groups := []Group{
			{Key: "00602557988167", Label: "Horizon"},
			{Key: "00602557111111", Label: "Horizon"},
		}

		out := Disambiguate(groups, DisambiguateTail, 6)
		assert.Equal(t, "Horizon • 988167", out[0].Label)
		assert.Equal(t, "Horizon • 111111", out[1].Label)
	})

	t.Run("tail shorter than code length keeps the whole code", func(t *testing.T) {
		groups := []Group{
			{Key: "1234", Label: "X"},
			{Key: "5678", Label: "X"},
		}

		out := Disambiguate(groups, DisambiguateTail, 6)
		assert.Equal(t, "X • 1234", out[0].Label)
	})

	t.Run("missing key groups stay on the placeholder", func(t *testing.T) {
		groups := []Group{
			{Key: "", KeyMissing: true, Label: MissingLabel},
			{Key: "", KeyMissing: true, Label: MissingLabel},
		}

		out := Disambiguate(groups, DisambiguateFull, DefaultTailLen)
		assert.Equal(t, MissingLabel, out[0].Label)
		assert.Equal(t, MissingLabel, out[1].Label)
	})

	t.Run("input groups are not mutated", func(t *testing.T) {
		groups := []Group{
			{Key: "1", Label: "A"},
			{Key: "2", Label: "A"},
		}

		_ = Disambiguate(groups, DisambiguateFull, DefaultTailLen)
		assert.Equal(t, "A", groups[0].Label)
	})
}
