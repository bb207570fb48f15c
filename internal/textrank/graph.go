package textrank

// Edge is one side of an undirected weighted edge.
type Edge struct {
	To     int
	Weight float64
}

// Graph is an undirected weighted graph over sentence positions. It has no
// self-loops and no zero-weight edges and is never mutated after BuildGraph.
type Graph struct {
	adj   [][]Edge
	edges int
}

// BuildGraph creates one node per sentence and an edge for every pair of
// distinct sentences with positive similarity. The pass is O(n²) in the
// number of sentences, which is fine for document-length input; corpus-scale
// input would need an inverted index to prune candidate pairs.
func BuildGraph(sentences []*Sentence) (*Graph, error) {
	sets := make([]map[string]struct{}, len(sentences))
	for i, s := range sentences {
		set, err := s.WordSet()
		if err != nil {
			return nil, err
		}
		sets[i] = set
	}
	g := &Graph{adj: make([][]Edge, len(sentences))}
	for i := 0; i < len(sets); i++ {
		for j := i + 1; j < len(sets); j++ {
			w := setSimilarity(sets[i], sets[j])
			if w > 0 {
				g.adj[i] = append(g.adj[i], Edge{To: j, Weight: w})
				g.adj[j] = append(g.adj[j], Edge{To: i, Weight: w})
				g.edges++
			}
		}
	}
	return g, nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.adj)
}

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int {
	return g.edges
}

// Neighbors returns the edges incident to node i, ordered by neighbor index.
// The returned slice must not be modified.
func (g *Graph) Neighbors(i int) []Edge {
	if i < 0 || i >= len(g.adj) {
		return nil
	}
	return g.adj[i]
}

// Weight returns the weight of edge {i, j} and whether it exists.
func (g *Graph) Weight(i, j int) (float64, bool) {
	for _, e := range g.Neighbors(i) {
		if e.To == j {
			return e.Weight, true
		}
	}
	return 0, false
}
