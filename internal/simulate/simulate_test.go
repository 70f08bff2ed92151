package simulate

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/matchday/internal/applicant"
	"github.com/spigell/matchday/internal/matching"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	records, err := Generate(rand.New(rand.NewSource(1)), 300, 0.5)
	require.NoError(t, err)
	require.Len(t, records, 300)

	pool := applicant.NewPool(records...)
	require.NoError(t, pool.Validate())

	males, females := pool.Partition()
	assert.NotEmpty(t, males)
	assert.NotEmpty(t, females)

	withLists := 0
	for _, r := range records {
		assert.GreaterOrEqual(t, r.BirthYear, 1985)
		assert.LessOrEqual(t, r.BirthYear, 2003)
		assert.GreaterOrEqual(t, r.Height, 150)
		assert.LessOrEqual(t, r.Height, 199)
		require.NotNil(t, r.PreferredAgeMin)
		require.NotNil(t, r.PreferredAgeMax)
		assert.LessOrEqual(t, *r.PreferredAgeMin, *r.PreferredAgeMax)
		if r.PreferredBodyTypes.Len() > 0 {
			withLists++
			assert.LessOrEqual(t, r.PreferredBodyTypes.Len(), 3)
			assert.GreaterOrEqual(t, r.PreferredJobTypes.Len(), 1)
		}
	}
	assert.Greater(t, withLists, 200, "encoded preference lists must survive decoding")
}

func TestGenerateIsReproducible(t *testing.T) {
	t.Parallel()

	first, err := Generate(rand.New(rand.NewSource(9)), 50, 0.5)
	require.NoError(t, err)
	second, err := Generate(rand.New(rand.NewSource(9)), 50, 0.5)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGenerateRejectsBadRatio(t *testing.T) {
	t.Parallel()

	_, err := Generate(rand.New(rand.NewSource(1)), 10, 1.5)
	require.Error(t, err)
}

func TestRun(t *testing.T) {
	t.Parallel()

	cfg := Config{Rounds: 8, PoolSize: 60, Seed: 100, Concurrency: 3, MaleRatio: 0.5}
	engine := matching.New(nil)

	summary, err := Run(context.Background(), cfg, engine, nil)
	require.NoError(t, err)
	require.Len(t, summary.Rounds, 8)
	assert.Equal(t, 8*60, summary.Applicants)
	assert.LessOrEqual(t, summary.MinPairs, summary.MaxPairs)
	assert.LessOrEqual(t, summary.MatchRate, 1.0)

	cfg.Concurrency = 1
	sequential, err := Run(context.Background(), cfg, engine, nil)
	require.NoError(t, err)
	assert.Equal(t, summary, sequential)
}

func TestRunValidatesConfig(t *testing.T) {
	t.Parallel()

	_, err := Run(context.Background(), Config{}, matching.New(nil), nil)
	require.Error(t, err)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, Config{Rounds: 3, PoolSize: 10, MaleRatio: 0.5}, matching.New(nil), nil)
	require.ErrorIs(t, err, context.Canceled)
}
