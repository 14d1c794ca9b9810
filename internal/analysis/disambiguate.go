package analysis

// DisambiguationMode selects how much of the identifier is appended to a
// colliding label.
type DisambiguationMode string

const (
	// DisambiguateFull appends the whole normalized identifier.
	DisambiguateFull DisambiguationMode = "full"
	// DisambiguateTail appends only the trailing characters, enough to
	// tell codes apart without dominating the label.
	DisambiguateTail DisambiguationMode = "tail"
)

// DefaultTailLen is the suffix length used in tail mode.
const DefaultTailLen = 6

// Disambiguate appends " • <code>" to labels that collide, so two releases
// both titled "Horizon" stay distinguishable in a ranked list. Only rows
// that actually collide are touched, and rows with a missing key are left
// alone even then: their label is already the placeholder and there is no
// identifier to show. Returns a new slice; input groups are not mutated.
func Disambiguate(groups []Group, mode DisambiguationMode, tailLen int) []Group {
	seen := make(map[string]int, len(groups))
	for _, g := range groups {
		seen[g.Label]++
	}

	if tailLen < 1 {
		tailLen = 1
	}

	out := make([]Group, len(groups))
	for i, g := range groups {
		out[i] = g
		if seen[g.Label] < 2 || g.KeyMissing || g.Key == "" {
			continue
		}
		code := g.Key
		if mode == DisambiguateTail {
			if runes := []rune(code); len(runes) > tailLen {
				code = string(runes[len(runes)-tailLen:])
			}
		}
		out[i].Label = g.Label + " • " + code
	}
	return out
}
