// Package textrank implements graph-based extractive summarization: sentences
// become nodes of a lexical similarity graph and are ranked by weighted degree.
package textrank

// Tokenizer splits text into sentences and sentences into words.
// Sentences must preserve input order; word order is irrelevant here.
// Empty or whitespace-only input yields zero sentences.
type Tokenizer interface {
	Sentences(text string) ([]string, error)
	Words(sentence string) ([]string, error)
}

// Document owns a raw text and lazily derives its sentences and graph.
// Derived values are computed at most once. A Document is not safe for
// concurrent use; give each goroutine its own.
type Document struct {
	raw       string
	tokenizer Tokenizer

	sentences []*Sentence
	split     bool
	graph     *Graph
}

// NewDocument returns a document over raw using tok for segmentation.
func NewDocument(raw string, tok Tokenizer) *Document {
	return &Document{raw: raw, tokenizer: tok}
}

// Text returns the raw text the document was built from.
func (d *Document) Text() string {
	return d.raw
}

// Sentences returns the document's sentences in reading order.
func (d *Document) Sentences() ([]*Sentence, error) {
	if d.split {
		return d.sentences, nil
	}
	parts, err := d.tokenizer.Sentences(d.raw)
	if err != nil {
		return nil, err
	}
	sentences := make([]*Sentence, 0, len(parts))
	for _, p := range parts {
		sentences = append(sentences, &Sentence{
			doc:   d,
			index: len(sentences),
			text:  p,
		})
	}
	d.sentences = sentences
	d.split = true
	return d.sentences, nil
}

// Graph returns the sentence similarity graph, building it on first use.
func (d *Document) Graph() (*Graph, error) {
	if d.graph != nil {
		return d.graph, nil
	}
	sentences, err := d.Sentences()
	if err != nil {
		return nil, err
	}
	g, err := BuildGraph(sentences)
	if err != nil {
		return nil, err
	}
	d.graph = g
	return d.graph, nil
}

// Sentence is one sentence of a Document. Node identity in the graph is
// Index, so repeated sentence texts stay distinct.
type Sentence struct {
	doc   *Document
	index int
	text  string

	words   map[string]struct{}
	counted bool
	score   float64
	scored  bool
}

// Index is the sentence position within its document, starting at 0.
func (s *Sentence) Index() int {
	return s.index
}

// Text returns the raw sentence text.
func (s *Sentence) Text() string {
	return s.text
}

// WordSet returns the distinct words of the sentence.
func (s *Sentence) WordSet() (map[string]struct{}, error) {
	if s.counted {
		return s.words, nil
	}
	words, err := s.doc.tokenizer.Words(s.text)
	if err != nil {
		return nil, err
	}
	s.words = wordSet(words)
	s.counted = true
	return s.words, nil
}

// Score returns the sentence's weighted-degree centrality in its document graph.
func (s *Sentence) Score() (float64, error) {
	if s.scored {
		return s.score, nil
	}
	g, err := s.doc.Graph()
	if err != nil {
		return 0, err
	}
	s.score = WeightedDegree(g, s.index)
	s.scored = true
	return s.score, nil
}

func wordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
