package matching

import (
	"errors"
	"fmt"

	"github.com/spigell/matchday/internal/applicant"
)

var ErrIncompleteOutcome = errors.New("outcomes do not cover the pool")

// Pair is one matched couple.
type Pair struct {
	MaleID   string `json:"male_id"`
	FemaleID string `json:"female_id"`
}

// Outcome is the result of a round for one applicant.
type Outcome struct {
	ApplicantID string `json:"applicant_id"`
	Matched     bool   `json:"matched"`
	PartnerID   string `json:"partner_id,omitempty"`
}

// Reconcile maps the solver's positions back to applicant ids. Pairs follow female
// order; outcomes follow pool order and cover every applicant exactly once.
func Reconcile(pool *applicant.Pool, g *Graph, m *Matching) ([]Pair, []Outcome, error) {
	if len(m.MatchTo) != len(g.Females) {
		return nil, nil, fmt.Errorf("%w: matching has %d females, graph has %d", ErrIncompleteOutcome, len(m.MatchTo), len(g.Females))
	}

	partners := make(map[string]string, 2*m.Size)
	pairs := make([]Pair, 0, m.Size)
	for j, i := range m.MatchTo {
		if i == Unmatched {
			continue
		}
		if i < 0 || i >= len(g.Males) {
			return nil, nil, fmt.Errorf("%w: female %d matched to male %d of %d", ErrDanglingIndex, j, i, len(g.Males))
		}

		male, female := g.Males[i].ID, g.Females[j].ID
		if _, ok := partners[male]; ok {
			return nil, nil, fmt.Errorf("%w: applicant %q matched twice", ErrIncompleteOutcome, male)
		}
		partners[male] = female
		partners[female] = male
		pairs = append(pairs, Pair{MaleID: male, FemaleID: female})
	}

	outcomes := make([]Outcome, 0, pool.Len())
	for _, r := range pool.Items {
		partner, ok := partners[r.ID]
		outcomes = append(outcomes, Outcome{ApplicantID: r.ID, Matched: ok, PartnerID: partner})
	}

	if covered := len(g.Males) + len(g.Females); covered != pool.Len() {
		return nil, nil, fmt.Errorf("%w: graph covers %d of %d applicants", ErrIncompleteOutcome, covered, pool.Len())
	}

	return pairs, outcomes, nil
}
