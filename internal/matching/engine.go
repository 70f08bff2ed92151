package matching

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spigell/matchday/internal/applicant"
	"github.com/spigell/matchday/internal/logger"
)

// Engine runs one matching round at a time. It keeps no state between runs and is
// safe to use from several goroutines for independent rounds.
type Engine struct {
	logger    *zap.Logger
	predicate *Predicate
}

type Option func(*Engine)

// WithPredicate replaces the default rule set.
func WithPredicate(p *Predicate) Option {
	return func(e *Engine) {
		if p != nil {
			e.predicate = p
		}
	}
}

func New(l *zap.Logger, opts ...Option) *Engine {
	if l == nil {
		l = zap.NewNop()
	}

	e := &Engine{logger: l, predicate: defaultPredicate}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Predicate() *Predicate {
	return e.predicate
}

// Summary holds the counters of one round.
type Summary struct {
	Applicants int
	Males      int
	Females    int
	Edges      int
	Pairs      int
	Unmatched  int
	Duration   time.Duration
}

// Result is the complete outcome of a round.
type Result struct {
	RoundID  string
	Pairs    []Pair
	Outcomes []Outcome
	Summary  Summary
}

// Outcome returns the outcome of the applicant with the given id.
func (r *Result) Outcome(id string) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.ApplicantID == id {
			return o, true
		}
	}
	return Outcome{}, false
}

// UnmatchedIDs lists applicants left without a partner, in pool order.
func (r *Result) UnmatchedIDs() []string {
	ids := make([]string, 0, r.Summary.Unmatched)
	for _, o := range r.Outcomes {
		if !o.Matched {
			ids = append(ids, o.ApplicantID)
		}
	}
	return ids
}

// MatchRate is the share of applicants that got a partner.
func (r *Result) MatchRate() float64 {
	if r.Summary.Applicants == 0 {
		return 0
	}
	return float64(2*r.Summary.Pairs) / float64(r.Summary.Applicants)
}

// Run validates the pool, builds the compatibility graph and returns a maximum
// matching covering every applicant. It either returns a complete result or an error.
func (e *Engine) Run(roundID string, pool *applicant.Pool) (*Result, error) {
	start := time.Now()
	log := logger.WithRoundFields(e.logger, roundID, "")

	if pool == nil {
		pool = applicant.NewPool()
	}
	if err := pool.Validate(); err != nil {
		return nil, fmt.Errorf("validate pool: %w", err)
	}

	g := BuildGraph(pool, e.predicate)
	log.Info("compatibility graph built",
		zap.Int("applicants", pool.Len()),
		zap.Int("males", len(g.Males)),
		zap.Int("females", len(g.Females)),
		zap.Int("edges", g.Edges),
		zap.Strings("rules", e.predicate.Rules()),
	)
	if log.Core().Enabled(zapcore.DebugLevel) {
		e.logRejections(log, g)
	}

	m, err := Solve(g.Adjacency, len(g.Females))
	if err != nil {
		return nil, fmt.Errorf("solve: %w", err)
	}
	log.Info("maximum matching found", zap.Int("pairs", m.Size))

	pairs, outcomes, err := Reconcile(pool, g, m)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}

	result := &Result{
		RoundID:  roundID,
		Pairs:    pairs,
		Outcomes: outcomes,
		Summary: Summary{
			Applicants: pool.Len(),
			Males:      len(g.Males),
			Females:    len(g.Females),
			Edges:      g.Edges,
			Pairs:      len(pairs),
			Unmatched:  pool.Len() - 2*len(pairs),
			Duration:   time.Since(start),
		},
	}

	log.Info("round matched",
		zap.Int("pairs", result.Summary.Pairs),
		zap.Int("unmatched", result.Summary.Unmatched),
		zap.Duration("took", result.Summary.Duration),
	)

	return result, nil
}

func (e *Engine) logRejections(log *zap.Logger, g *Graph) {
	for _, m := range g.Males {
		for _, f := range g.Females {
			if rule := e.predicate.Rejection(m, f); rule != "" {
				log.Debug("pair rejected", zap.String("owner", m.ID), zap.String("candidate", f.ID), zap.String("rule", rule))
				continue
			}
			if rule := e.predicate.Rejection(f, m); rule != "" {
				log.Debug("pair rejected", zap.String("owner", f.ID), zap.String("candidate", m.ID), zap.String("rule", rule))
			}
		}
	}
}

// RunMatching matches a round with the default rules and no logging.
func RunMatching(roundID string, records []*applicant.Record) ([]Outcome, error) {
	result, err := New(nil).Run(roundID, applicant.NewPool(records...))
	if err != nil {
		return nil, err
	}
	return result.Outcomes, nil
}
