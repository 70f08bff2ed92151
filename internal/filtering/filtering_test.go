package filtering

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/matchday/internal/applicant"
)

func testPool() *applicant.Pool {
	no, yes := false, true
	return applicant.NewPool(
		&applicant.Record{ID: "m1", Gender: applicant.Male},
		&applicant.Record{ID: "m2", Gender: applicant.Male, Cancelled: &yes},
		&applicant.Record{ID: "f1", Gender: applicant.Female},
		&applicant.Record{ID: "f2", Gender: applicant.Female, Applied: &no},
		&applicant.Record{ID: "f3", Gender: applicant.Female},
	)
}

func TestRunAppliesFiltersInOrder(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "exclude.json")
	require.NoError(t, applicant.NewExcluded("reported", "f3").ToFile(path))

	core, observed := observer.New(zapcore.InfoLevel)
	cfg := &Config{ExcludedApplicants: []string{"m1"}, ExcludeFile: path}

	pool, err := Run(context.Background(), cfg, Deps{Logger: zap.New(core)}, Default(), testPool())
	require.NoError(t, err)
	assert.Equal(t, []string{"f1"}, pool.IDs())

	steps := observed.FilterMessage("filter step").All()
	require.Len(t, steps, 3)
	assert.Equal(t, "withdrawn", steps[0].ContextMap()["name"])
	assert.EqualValues(t, 2, steps[0].ContextMap()["dropped"])
	assert.Equal(t, "excluded_applicants", steps[1].ContextMap()["name"])
	assert.EqualValues(t, 1, steps[1].ContextMap()["dropped"])
	assert.Equal(t, "exclude_file", steps[2].ContextMap()["name"])
	assert.EqualValues(t, 1, steps[2].ContextMap()["left"])
}

func TestRunSkipsDisabledFilter(t *testing.T) {
	t.Parallel()

	steps := Default()
	DisableByName(steps, "withdrawn", "pool is pre-filtered")

	pool, err := Run(context.Background(), nil, Deps{}, steps, testPool())
	require.NoError(t, err)
	assert.Equal(t, 5, pool.Len())

	statuses := Describe(steps)
	require.Len(t, statuses, 3)
	assert.False(t, statuses[0].Enabled)
	assert.Equal(t, "pool is pre-filtered", statuses[0].Reason)
}

func TestRunValidatesBeforeApplying(t *testing.T) {
	t.Parallel()

	pool := testPool()
	_, err := Run(context.Background(), &Config{ExcludedApplicants: []string{" "}}, Deps{}, Default(), pool)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "excluded_applicants")
	assert.Equal(t, 5, pool.Len(), "no filter may run when validation fails")
}

func TestExcludeFileMissing(t *testing.T) {
	t.Parallel()

	cfg := &Config{ExcludeFile: filepath.Join(t.TempDir(), "missing.json")}
	_, err := Run(context.Background(), cfg, Deps{}, []Filter{NewExcludeFile()}, testPool())
	require.Error(t, err)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, nil, Deps{}, Default(), testPool())
	require.ErrorIs(t, err, context.Canceled)
}
