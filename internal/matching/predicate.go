package matching

import "github.com/spigell/matchday/internal/applicant"

// Predicate is an ordered set of rules. Compatibility is binary: the first failing
// rule decides, there is no scoring.
type Predicate struct {
	rules []Rule
}

var defaultPredicate = NewPredicate(DefaultRules()...)

func NewPredicate(rules ...Rule) *Predicate {
	return &Predicate{rules: rules}
}

// DefaultPredicate matches on age, height, body type, job type and marital status.
func DefaultPredicate() *Predicate {
	return defaultPredicate
}

// IsMutualMatch reports whether a and b accept each other under the default rules.
func IsMutualMatch(a, b *applicant.Record) bool {
	return defaultPredicate.Mutual(a, b)
}

// Rules returns the rule names in evaluation order.
func (p *Predicate) Rules() []string {
	names := make([]string, 0, len(p.rules))
	for _, r := range p.rules {
		names = append(names, r.Name())
	}
	return names
}

// Rejection returns the name of the first rule under which owner rejects candidate,
// or an empty string when owner accepts.
func (p *Predicate) Rejection(owner, candidate *applicant.Record) string {
	for _, r := range p.rules {
		if !r.Accepts(owner, candidate) {
			return r.Name()
		}
	}
	return ""
}

// Accepts reports whether owner's preferences accept candidate. It is one-directional.
func (p *Predicate) Accepts(owner, candidate *applicant.Record) bool {
	return p.Rejection(owner, candidate) == ""
}

// Mutual reports whether both records accept each other. It does not depend on
// argument order.
func (p *Predicate) Mutual(a, b *applicant.Record) bool {
	return p.Accepts(a, b) && p.Accepts(b, a)
}
