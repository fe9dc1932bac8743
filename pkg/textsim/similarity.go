package textsim

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Blend weighs token overlap against character-sequence similarity.
// The weights are policy, not derived values; keep them summing to 1.
type Blend struct {
	Token    float64 `toml:"token" mapstructure:"token"`
	Sequence float64 `toml:"sequence" mapstructure:"sequence"`
}

var (
	// RetrievalBlend scores questions against utterances.
	RetrievalBlend = Blend{Token: 0.65, Sequence: 0.35}

	// LabelBlend compares two short topic labels.
	LabelBlend = Blend{Token: 0.6, Sequence: 0.4}
)

// Similarity returns a score in [0,1] for a and b. Two empty strings are
// identical (1.0); an empty string is unrelated to a non-empty one (0.0).
func (b Blend) Similarity(tok *Tokenizer, a, x string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	x = strings.ToLower(strings.TrimSpace(x))

	switch {
	case a == x:
		return 1.0
	case a == "" || x == "":
		return 0.0
	}

	score := b.Token*Jaccard(tok.Set(a), tok.Set(x)) + b.Sequence*SequenceRatio(a, x)
	return clamp01(score)
}

// Jaccard is |a ∩ b| / |a ∪ b|. Two empty sets share no evidence and score 0.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := Overlap(a, b)
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// Overlap counts the members of a that are also in b.
func Overlap(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			n++
		}
	}
	return n
}

// SequenceRatio is difflib's 2*M/T ratio computed over the runes of a and b.
func SequenceRatio(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	m := difflib.NewMatcher(runes(a), runes(b))
	return m.Ratio()
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
