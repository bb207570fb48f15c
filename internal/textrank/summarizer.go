package textrank

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// DefaultRatio is the fraction of sentences kept when no ratio is given.
const DefaultRatio = 0.2

// Summary is the result of summarizing one document.
type Summary struct {
	// Text is the selected sentences joined by single spaces.
	Text string
	// Selected holds the chosen sentences in reading order.
	Selected []Ranked
	// Total is the number of sentences in the source document.
	Total int
	// Ratio is the compression ratio actually applied.
	Ratio float64
}

// Ranked is a selected sentence with its position and score.
type Ranked struct {
	Index int     `json:"index"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Summarizer selects the most central sentences of a document.
type Summarizer struct {
	tokenizer Tokenizer
	ratio     float64
	logger    *zap.Logger
}

// SummarizerOption configures a Summarizer.
type SummarizerOption func(*Summarizer)

// WithRatio sets the default compression ratio.
func WithRatio(ratio float64) SummarizerOption {
	return func(s *Summarizer) { s.ratio = NormalizeRatio(ratio) }
}

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) SummarizerOption {
	return func(s *Summarizer) { s.logger = l }
}

// NewSummarizer returns a summarizer that segments text with tok.
func NewSummarizer(tok Tokenizer, opts ...SummarizerOption) *Summarizer {
	s := &Summarizer{tokenizer: tok, ratio: DefaultRatio}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tokenizer returns the tokenizer documents are segmented with.
func (s *Summarizer) Tokenizer() Tokenizer {
	return s.tokenizer
}

// Ratio returns the summarizer's default compression ratio.
func (s *Summarizer) Ratio() float64 {
	return s.ratio
}

// Summarize returns the extractive summary of text at the default ratio.
func (s *Summarizer) Summarize(text string) (string, error) {
	return s.SummarizeRatio(text, s.ratio)
}

// SummarizeRatio returns the extractive summary of text keeping roughly
// ratio of its sentences (at least one for non-empty input).
func (s *Summarizer) SummarizeRatio(text string, ratio float64) (string, error) {
	sum, err := s.SummarizeDocument(NewDocument(text, s.tokenizer), ratio)
	if err != nil {
		return "", err
	}
	return sum.Text, nil
}

// SummarizeDocument ranks doc's sentences and returns the top floor(N*ratio)
// of them (minimum one) in reading order.
func (s *Summarizer) SummarizeDocument(doc *Document, ratio float64) (*Summary, error) {
	ratio = NormalizeRatio(ratio)
	sentences, err := doc.Sentences()
	if err != nil {
		return nil, err
	}
	out := &Summary{Total: len(sentences), Ratio: ratio}
	if len(sentences) == 0 {
		return out, nil
	}

	ranked := make([]Ranked, len(sentences))
	for i, sent := range sentences {
		score, err := sent.Score()
		if err != nil {
			return nil, err
		}
		ranked[i] = Ranked{Index: sent.Index(), Text: sent.Text(), Score: score}
	}
	// Stable so equal scores keep document order.
	slices.SortStableFunc(ranked, func(a, b Ranked) int {
		return cmp.Compare(b.Score, a.Score)
	})

	k := SelectCount(len(sentences), ratio)
	selected := ranked[:k]
	slices.SortFunc(selected, func(a, b Ranked) int {
		return cmp.Compare(a.Index, b.Index)
	})

	texts := make([]string, len(selected))
	for i, r := range selected {
		texts[i] = r.Text
	}
	out.Selected = selected
	out.Text = strings.Join(texts, " ")

	if s.logger != nil {
		g, _ := doc.Graph()
		s.logger.Debug("document summarized",
			zap.Int("sentences", len(sentences)),
			zap.Int("edges", g.EdgeCount()),
			zap.Int("selected", k),
			zap.Float64("ratio", ratio),
		)
	}
	return out, nil
}

// SelectCount returns how many of n sentences a summary keeps at ratio.
func SelectCount(n int, ratio float64) int {
	if n <= 0 {
		return 0
	}
	k := int(float64(n) * NormalizeRatio(ratio))
	if k == 0 {
		k = 1
	}
	if k > n {
		k = n
	}
	return k
}

// NormalizeRatio maps non-positive or NaN ratios to DefaultRatio and caps
// ratios above 1.
func NormalizeRatio(ratio float64) float64 {
	if math.IsNaN(ratio) || ratio <= 0 {
		return DefaultRatio
	}
	if ratio > 1 {
		return 1
	}
	return ratio
}
