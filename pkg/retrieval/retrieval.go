// Package retrieval selects the transcript excerpts most relevant to a
// question and formats them within a character budget.
package retrieval

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/papercomputeco/huddle/pkg/textsim"
	"github.com/papercomputeco/huddle/pkg/transcript"
)

// Config tunes candidate selection and ranking.
type Config struct {
	// IndexWindow is how many of the most recent positions are taken from
	// each question token's index list.
	IndexWindow int

	// FallbackRecent is how many trailing utterances are returned when
	// nothing ranks well enough.
	FallbackRecent int

	// MaxExcerpts bounds the ranked selection.
	MaxExcerpts int

	// MinScore is the lowest score a ranked excerpt may have. Zero keeps
	// every positive score; a negative value selects the default.
	MinScore float64

	// Blend weighs token overlap against sequence similarity.
	Blend textsim.Blend
}

// DefaultConfig returns the stock retrieval settings.
func DefaultConfig() Config {
	return Config{
		IndexWindow:    300,
		FallbackRecent: 10,
		MaxExcerpts:    8,
		MinScore:       0.18,
		Blend:          textsim.RetrievalBlend,
	}
}

// Engine ranks utterances of a meeting against a question.
type Engine struct {
	cfg Config
	tok *textsim.Tokenizer
}

// New returns an Engine. Zero-valued fields other than MinScore fall back
// to DefaultConfig.
func New(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.IndexWindow <= 0 {
		cfg.IndexWindow = def.IndexWindow
	}
	if cfg.FallbackRecent <= 0 {
		cfg.FallbackRecent = def.FallbackRecent
	}
	if cfg.MaxExcerpts <= 0 {
		cfg.MaxExcerpts = def.MaxExcerpts
	}
	if cfg.MinScore < 0 {
		cfg.MinScore = def.MinScore
	}
	if cfg.Blend == (textsim.Blend{}) {
		cfg.Blend = def.Blend
	}
	return &Engine{cfg: cfg, tok: textsim.Query}
}

// Config returns the settings in effect after defaults were applied.
func (e *Engine) Config() Config {
	return e.cfg
}

type scored struct {
	pos   int
	score float64
}

// Retrieve returns the excerpts for question in chronological order. It is
// empty only when the question is blank or the meeting has no history.
func (e *Engine) Retrieve(m *transcript.Meeting, question string) []transcript.Utterance {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil
	}

	var out []transcript.Utterance
	m.View(func(log []transcript.Utterance, index map[string][]int) {
		if len(log) == 0 {
			return
		}
		out = e.rank(log, index, question)
	})
	return out
}

func (e *Engine) rank(log []transcript.Utterance, index map[string][]int, question string) []transcript.Utterance {
	qTokens := e.tok.Set(question)

	var ranked []scored
	for _, pos := range e.candidates(log, index, qTokens) {
		s := e.Score(question, qTokens, log[pos].Text)
		if s <= 0 {
			continue
		}
		ranked = append(ranked, scored{pos: pos, score: s})
	}

	slices.SortStableFunc(ranked, func(a, b scored) int {
		return cmp.Compare(b.score, a.score)
	})

	picked := make([]int, 0, e.cfg.MaxExcerpts)
	for _, r := range ranked[:min(len(ranked), e.cfg.MaxExcerpts)] {
		if r.score >= e.cfg.MinScore {
			picked = append(picked, r.pos)
		}
	}

	if len(picked) == 0 {
		return slices.Clone(log[len(log)-min(e.cfg.FallbackRecent, len(log)):])
	}

	slices.Sort(picked)
	out := make([]transcript.Utterance, 0, len(picked))
	for _, pos := range picked {
		out = append(out, log[pos])
	}
	return out
}

// candidates unions the recent index hits of every question token, in log
// order. No hits means every position is a candidate.
func (e *Engine) candidates(log []transcript.Utterance, index map[string][]int, qTokens map[string]struct{}) []int {
	seen := make(map[int]struct{})
	for tok := range qTokens {
		positions := index[tok]
		for _, pos := range positions[max(0, len(positions)-e.cfg.IndexWindow):] {
			if pos >= 0 && pos < len(log) {
				seen[pos] = struct{}{}
			}
		}
	}

	if len(seen) == 0 {
		all := make([]int, len(log))
		for i := range all {
			all[i] = i
		}
		return all
	}

	out := make([]int, 0, len(seen))
	for pos := range seen {
		out = append(out, pos)
	}
	slices.Sort(out)
	return out
}

// Score is the larger of the blended similarity and the share of question
// tokens that appear in text.
func (e *Engine) Score(question string, qTokens map[string]struct{}, text string) float64 {
	score := e.cfg.Blend.Similarity(e.tok, question, text)

	uTokens := e.tok.Set(text)
	if len(qTokens) > 0 && len(uTokens) > 0 {
		overlap := float64(textsim.Overlap(qTokens, uTokens)) / float64(len(qTokens))
		score = max(score, overlap)
	}
	return score
}

// Format renders excerpts as "speaker: text" lines. When the block exceeds
// maxChars characters the oldest lines are dropped until it fits.
func Format(excerpts []transcript.Utterance, maxChars int) string {
	lines := make([]string, len(excerpts))
	widths := make([]int, len(excerpts))
	total := 0
	for i, u := range excerpts {
		lines[i] = u.Line()
		widths[i] = utf8.RuneCountInString(lines[i])
		total += widths[i]
	}
	total += max(0, len(lines)-1)

	for len(lines) > 0 && total > maxChars {
		total -= widths[0]
		if len(lines) > 1 {
			total--
		}
		lines, widths = lines[1:], widths[1:]
	}
	return strings.Join(lines, "\n")
}
