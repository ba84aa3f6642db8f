package keywords

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	unicodetok "github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// MinTokenLength is the minimum number of characters a keyword must have.
const MinTokenLength = 3

// DefaultSize is the default signature size when none is configured.
const DefaultSize = 20

// Extractor turns note text into a keyword signature.
// An Extractor is immutable after construction.
type Extractor struct {
	size      int
	tokenizer analysis.Tokenizer
	stopWords analysis.TokenMap
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithStopWords adds stopwords on top of the English list.
func WithStopWords(words ...string) Option {
	return func(e *Extractor) {
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				e.stopWords.AddToken(w)
			}
		}
	}
}

// New creates an Extractor producing signatures of at most size keywords.
// A non-positive size falls back to DefaultSize.
func New(size int, opts ...Option) (*Extractor, error) {
	if size <= 0 {
		size = DefaultSize
	}

	stop := analysis.NewTokenMap()
	if err := stop.LoadBytes(en.EnglishStopWords); err != nil {
		return nil, err
	}

	e := &Extractor{
		size:      size,
		tokenizer: unicodetok.NewUnicodeTokenizer(),
		stopWords: stop,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Size returns the maximum signature length.
func (e *Extractor) Size() int {
	return e.size
}

// Extract returns the top keywords of text, most frequent first.
// Text without qualifying tokens yields an empty, non-nil signature.
func (e *Extractor) Extract(text string) []string {
	return topK(e.tokens(text), e.size)
}

// tokens returns every qualifying token of text in document order.
func (e *Extractor) tokens(text string) []string {
	lower := cases.Lower(language.Und).String(norm.NFC.String(text))

	stream := e.tokenizer.Tokenize([]byte(lower))
	tokens := make([]string, 0, len(stream))
	for _, tok := range stream {
		term := string(tok.Term)
		if e.Qualifies(term) {
			tokens = append(tokens, term)
		}
	}
	return tokens
}

// Qualifies reports whether an already lower-cased token may be a keyword.
func (e *Extractor) Qualifies(term string) bool {
	if utf8.RuneCountInString(term) < MinTokenLength {
		return false
	}
	if !IsAlphanumeric(term) {
		return false
	}
	return !e.stopWords[term]
}

// IsStopWord reports whether word is in the stopword set.
func (e *Extractor) IsStopWord(word string) bool {
	return e.stopWords[strings.ToLower(word)]
}

// IsAlphanumeric reports whether s is non-empty and made only of letters and digits.
func IsAlphanumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			return false
		}
	}
	return true
}

// topK returns the k most frequent tokens. Equal counts keep first-seen order.
func topK(tokens []string, k int) []string {
	counts := make(map[string]int, len(tokens))
	order := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if counts[t] == 0 {
			order = append(order, t)
		}
		counts[t]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > k {
		order = order[:k]
	}
	return order
}

// Extract is a convenience wrapper building a default Extractor of size k.
func Extract(text string, k int) []string {
	if k <= 0 {
		return []string{}
	}
	e, err := New(k)
	if err != nil {
		return []string{}
	}
	return e.Extract(text)
}
