package simulate

import (
	"context"
	"fmt"
	"math/rand"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/matchday/internal/applicant"
	"github.com/spigell/matchday/internal/matching"
)

// Config describes a batch of independent synthetic rounds.
type Config struct {
	Rounds      int
	PoolSize    int
	Seed        int64
	Concurrency int
	MaleRatio   float64
}

// Round is the outcome of one synthetic round.
type Round struct {
	ID         string
	Applicants int
	Edges      int
	Pairs      int
}

// Summary aggregates a batch. Rounds keeps the per round numbers in round order.
type Summary struct {
	Rounds     []Round
	Applicants int
	Pairs      int
	MatchRate  float64
	MinPairs   int
	MaxPairs   int
}

func (c Config) validate() error {
	if c.Rounds <= 0 {
		return fmt.Errorf("rounds must be positive, got %d", c.Rounds)
	}
	if c.PoolSize < 0 {
		return fmt.Errorf("pool size must not be negative, got %d", c.PoolSize)
	}
	if c.MaleRatio < 0 || c.MaleRatio > 1 {
		return fmt.Errorf("male ratio %v is outside [0, 1]", c.MaleRatio)
	}
	return nil
}

// Run generates and matches cfg.Rounds pools concurrently. Round i uses seed
// cfg.Seed+i, so a batch is reproducible whatever the concurrency.
func Run(ctx context.Context, cfg Config, engine *matching.Engine, logger *zap.Logger) (*Summary, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	rounds := make([]Round, cfg.Rounds)
	g, ctx := errgroup.WithContext(ctx)
	if cfg.Concurrency > 0 {
		g.SetLimit(cfg.Concurrency)
	}

	for i := 0; i < cfg.Rounds; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			rng := rand.New(rand.NewSource(cfg.Seed + int64(i)))
			records, err := Generate(rng, cfg.PoolSize, cfg.MaleRatio)
			if err != nil {
				return fmt.Errorf("round %d: %w", i, err)
			}

			id := fmt.Sprintf("sim-%d", i)
			result, err := engine.Run(id, applicant.NewPool(records...))
			if err != nil {
				return fmt.Errorf("round %d: %w", i, err)
			}

			rounds[i] = Round{
				ID:         id,
				Applicants: result.Summary.Applicants,
				Edges:      result.Summary.Edges,
				Pairs:      result.Summary.Pairs,
			}
			logger.Debug("simulated round finished", zap.String("round_id", id), zap.Int("pairs", result.Summary.Pairs))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return summarize(rounds), nil
}

func summarize(rounds []Round) *Summary {
	s := &Summary{Rounds: rounds}
	for i, r := range rounds {
		s.Applicants += r.Applicants
		s.Pairs += r.Pairs
		if i == 0 || r.Pairs < s.MinPairs {
			s.MinPairs = r.Pairs
		}
		if r.Pairs > s.MaxPairs {
			s.MaxPairs = r.Pairs
		}
	}
	if s.Applicants > 0 {
		s.MatchRate = float64(2*s.Pairs) / float64(s.Applicants)
	}
	return s
}
