package textrank

// WeightedDegree returns the sum of the weights of the edges incident to
// node i. It is a single pass over the node's neighbors, used in place of an
// iterated PageRank-style fixed point. Isolated nodes score 0.
func WeightedDegree(g *Graph, i int) float64 {
	var score float64
	for _, e := range g.Neighbors(i) {
		score += e.Weight
	}
	return score
}
