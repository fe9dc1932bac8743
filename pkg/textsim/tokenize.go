// Package textsim holds the lexical normalization and similarity measures
// shared by the transcript index, retrieval ranking and topic comparison.
package textsim

import "strings"

// MinTokenLen is the shortest token kept by the default tokenizers.
const MinTokenLen = 3

// Stopwords is a set of tokens dropped during normalization.
type Stopwords map[string]struct{}

func newStopwords(words ...string) Stopwords {
	s := make(Stopwords, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

// IndexStopwords is the minimal list used when indexing utterances.
var IndexStopwords = newStopwords(
	"the", "a", "an", "and", "or", "but", "to", "of", "in", "on", "for",
	"with", "at", "by", "is", "are", "was", "were", "be", "it", "this",
	"that", "we", "you", "i",
)

// QueryStopwords extends IndexStopwords with pronouns and modal verbs that
// carry little signal in questions and short labels.
var QueryStopwords = newStopwords(
	"the", "a", "an", "and", "or", "but", "so", "to", "of", "in", "on",
	"for", "with", "at", "by", "is", "are", "was", "were", "be", "been",
	"being", "it", "this", "that", "we", "you", "i", "they", "he", "she",
	"them", "us", "our", "your", "my", "me", "as", "from", "into", "about",
	"can", "could", "should", "would", "will", "just", "like",
)

// Tokenizer lowercases text, splits it on runs of non-alphanumeric
// characters and drops stopwords and short tokens.
type Tokenizer struct {
	stop   Stopwords
	minLen int
}

// NewTokenizer returns a Tokenizer using stop and MinTokenLen.
func NewTokenizer(stop Stopwords) *Tokenizer {
	return &Tokenizer{stop: stop, minLen: MinTokenLen}
}

// Index and Query are the tokenizers used by the store and the engines.
var (
	Index = NewTokenizer(IndexStopwords)
	Query = NewTokenizer(QueryStopwords)
)

// Tokens returns normalized tokens in order of appearance, duplicates kept.
func (t *Tokenizer) Tokens(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !isASCIIAlnum(r)
	})

	out := fields[:0]
	for _, f := range fields {
		if len(f) < t.minLen {
			continue
		}
		if _, ok := t.stop[f]; ok {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Set returns the distinct normalized tokens of s.
func (t *Tokenizer) Set(s string) map[string]struct{} {
	tokens := t.Tokens(s)
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}
