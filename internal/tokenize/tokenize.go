// Package tokenize provides sentence and word segmentation for summarization.
// Sentences are found with a Punkt model trained on English text; words are
// Unicode word segments as produced by the Bleve analysis tokenizer.
package tokenize

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	bleveunicode "github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// Tokenizer segments text into sentences and words.
type Tokenizer struct {
	sentences *sentences.DefaultSentenceTokenizer
	words     analysis.Tokenizer
	lower     analysis.TokenFilter
	foldCase  bool
}

// Option configures a Tokenizer.
type Option func(*Tokenizer)

// WithCaseFolding controls whether words are lowercased. Enabled by default.
func WithCaseFolding(fold bool) Option {
	return func(t *Tokenizer) { t.foldCase = fold }
}

// New returns a Tokenizer using the bundled English Punkt parameters.
func New(opts ...Option) (*Tokenizer, error) {
	st, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("load sentence model: %w", err)
	}
	t := &Tokenizer{
		sentences: st,
		words:     bleveunicode.NewUnicodeTokenizer(),
		lower:     lowercase.NewLowerCaseFilter(),
		foldCase:  true,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Sentences returns the trimmed, non-empty sentences of text in order.
func (t *Tokenizer) Sentences(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	var out []string
	for _, s := range t.sentences.Tokenize(text) {
		if trimmed := strings.TrimSpace(s.Text); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out, nil
}

// Words returns the word tokens of sentence. Punctuation is dropped.
func (t *Tokenizer) Words(sentence string) ([]string, error) {
	stream := t.words.Tokenize([]byte(sentence))
	if t.foldCase {
		stream = t.lower.Filter(stream)
	}
	words := make([]string, 0, len(stream))
	for _, tok := range stream {
		words = append(words, string(tok.Term))
	}
	return words, nil
}
