package matching

import (
	"errors"
	"fmt"
)

// Unmatched marks a female position without a partner in Matching.MatchTo.
const Unmatched = -1

var ErrDanglingIndex = errors.New("adjacency references a female index out of range")

// Matching is a maximum cardinality matching: MatchTo maps a female position to the
// male position she is paired with, or Unmatched.
type Matching struct {
	MatchTo []int
	Size    int
}

type frame struct {
	male int
	// next is the position in the male's adjacency list to try next.
	next int
	// female is the female this frame descended through, -1 for the root.
	female int
}

// Solve runs Kuhn's augmenting path algorithm over adj. Males are tried in index
// order and each male's candidates in list order, so equal inputs give equal results.
// The search is iterative; the visit order is the same as the recursive formulation.
func Solve(adj [][]int, females int) (*Matching, error) {
	if females < 0 {
		return nil, fmt.Errorf("negative female count %d", females)
	}
	for i, candidates := range adj {
		for _, j := range candidates {
			if j < 0 || j >= females {
				return nil, fmt.Errorf("%w: male %d lists female %d of %d", ErrDanglingIndex, i, j, females)
			}
		}
	}

	matchTo := make([]int, females)
	for j := range matchTo {
		matchTo[j] = Unmatched
	}

	// visited[j] == attempt marks female j as seen in the current attempt.
	visited := make([]int, females)
	for j := range visited {
		visited[j] = -1
	}

	size := 0
	stack := make([]frame, 0, 16)
	for i := range adj {
		stack = append(stack[:0], frame{male: i, female: -1})
		if augment(adj, matchTo, visited, i, stack) {
			size++
		}
	}

	return &Matching{MatchTo: matchTo, Size: size}, nil
}

func augment(adj [][]int, matchTo, visited []int, attempt int, stack []frame) bool {
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		candidates := adj[top.male]

		if top.next >= len(candidates) {
			stack = stack[:len(stack)-1]
			continue
		}

		j := candidates[top.next]
		top.next++
		if visited[j] == attempt {
			continue
		}
		visited[j] = attempt

		if matchTo[j] == Unmatched {
			// Flip the path: every frame takes the female the frame above it came through.
			prev := j
			for k := len(stack) - 1; k >= 0; k-- {
				matchTo[prev] = stack[k].male
				prev = stack[k].female
			}
			return true
		}

		stack = append(stack, frame{male: matchTo[j], female: j})
	}

	return false
}
