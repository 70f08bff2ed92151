package matching

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveReroutesEarlierMale(t *testing.T) {
	t.Parallel()

	m, err := Solve([][]int{{0, 1}, {0}}, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, m.Size)
	assert.Equal(t, []int{1, 0}, m.MatchTo)
}

func TestSolveLeavesUnreachableFemaleUnmatched(t *testing.T) {
	t.Parallel()

	m, err := Solve([][]int{{1}, {1}, nil}, 3)
	require.NoError(t, err)

	assert.Equal(t, 1, m.Size)
	assert.Equal(t, []int{Unmatched, 0, Unmatched}, m.MatchTo)
}

func TestSolveEmpty(t *testing.T) {
	t.Parallel()

	m, err := Solve(nil, 0)
	require.NoError(t, err)
	assert.Zero(t, m.Size)
	assert.Empty(t, m.MatchTo)

	m, err = Solve([][]int{nil, nil}, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{Unmatched, Unmatched, Unmatched}, m.MatchTo)
}

func TestSolveRejectsDanglingIndex(t *testing.T) {
	t.Parallel()

	for _, adj := range [][][]int{{{0, 2}}, {{-1}}} {
		_, err := Solve(adj, 2)
		require.ErrorIs(t, err, ErrDanglingIndex)
	}
}

func TestSolveOrderDecidesBetweenEqualMatchings(t *testing.T) {
	t.Parallel()

	// The second male takes the first female and pushes the first male along.
	first, err := Solve([][]int{{0, 1}, {0, 1}}, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, first.MatchTo)

	// Same graph with the candidate lists reversed: another maximum matching.
	second, err := Solve([][]int{{1, 0}, {1, 0}}, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, second.MatchTo)

	assert.Equal(t, first.Size, second.Size)
}

func TestSolveLongAlternatingPaths(t *testing.T) {
	t.Parallel()

	// Male i lists female i-1 before female i, so every attempt walks back through
	// all earlier males before taking its own female.
	const n = 2000
	adj := make([][]int, n)
	adj[0] = []int{0}
	for i := 1; i < n; i++ {
		adj[i] = []int{i - 1, i}
	}

	m, err := Solve(adj, n)
	require.NoError(t, err)
	assert.Equal(t, n, m.Size)
	for j, i := range m.MatchTo {
		require.Equal(t, j, i)
	}
}

func TestSolveIsMaximum(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 300; round++ {
		males, females := rng.Intn(8), rng.Intn(8)
		density := rng.Float64()
		adj := make([][]int, males)
		for i := range adj {
			for j := 0; j < females; j++ {
				if rng.Float64() < density {
					adj[i] = append(adj[i], j)
				}
			}
		}

		m, err := Solve(adj, females)
		require.NoError(t, err)
		assertValidMatching(t, adj, m)
		require.Equal(t, bruteForceMaximum(adj, females), m.Size, "round %d adj %v", round, adj)
	}
}

func assertValidMatching(t *testing.T, adj [][]int, m *Matching) {
	t.Helper()

	used := make(map[int]bool)
	size := 0
	for j, i := range m.MatchTo {
		if i == Unmatched {
			continue
		}
		require.False(t, used[i], "male %d matched twice", i)
		used[i] = true
		require.Contains(t, adj[i], j, "male %d matched to incompatible female %d", i, j)
		size++
	}
	require.Equal(t, size, m.Size)
}

// bruteForceMaximum tries every assignment. It is exponential and only meant for
// tiny graphs.
func bruteForceMaximum(adj [][]int, females int) int {
	taken := make([]bool, females)
	var best func(i int) int
	best = func(i int) int {
		if i == len(adj) {
			return 0
		}
		result := best(i + 1)
		for _, j := range adj[i] {
			if taken[j] {
				continue
			}
			taken[j] = true
			if size := 1 + best(i+1); size > result {
				result = size
			}
			taken[j] = false
		}
		return result
	}
	return best(0)
}
