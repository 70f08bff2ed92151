package matching

import "github.com/spigell/matchday/internal/applicant"

// Graph is the bipartite compatibility graph of one round. Adjacency is indexed by
// male position and lists female positions in the order they were evaluated.
type Graph struct {
	Males     []*applicant.Record
	Females   []*applicant.Record
	Adjacency [][]int
	Edges     int
}

// BuildGraph evaluates the predicate for every male and female pair of the pool.
// Both sides keep the pool order. The pool must be validated beforehand.
func BuildGraph(pool *applicant.Pool, predicate *Predicate) *Graph {
	if predicate == nil {
		predicate = defaultPredicate
	}

	males, females := pool.Partition()
	g := &Graph{
		Males:     males,
		Females:   females,
		Adjacency: make([][]int, len(males)),
	}

	for i, m := range males {
		for j, f := range females {
			if predicate.Mutual(m, f) {
				g.Adjacency[i] = append(g.Adjacency[i], j)
				g.Edges++
			}
		}
	}

	return g
}

// Compatible lists the female ids a male at position i can be paired with.
func (g *Graph) Compatible(i int) []string {
	ids := make([]string, 0, len(g.Adjacency[i]))
	for _, j := range g.Adjacency[i] {
		ids = append(ids, g.Females[j].ID)
	}
	return ids
}
