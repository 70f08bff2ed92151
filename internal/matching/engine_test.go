package matching

import (
	"math/rand"
	"testing"

	"github.com/spigell/matchday/internal/applicant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRunSingleEdgeRound(t *testing.T) {
	t.Parallel()

	m1 := &applicant.Record{
		ID: "M1", Gender: applicant.Male, BirthYear: 1990, Height: 175,
		PreferredAgeMin: applicant.Int(0), PreferredAgeMax: applicant.Int(5),
		PreferredHeightMin: applicant.Int(160), PreferredHeightMax: applicant.Int(175),
	}
	// F1 passes both height checks but was born after M1's band of 1985-1990.
	f1 := &applicant.Record{
		ID: "F1", Gender: applicant.Female, BirthYear: 1992, Height: 165,
		PreferredHeightMin: applicant.Int(170), PreferredHeightMax: applicant.Int(180),
	}
	f2 := &applicant.Record{
		ID: "F2", Gender: applicant.Female, BirthYear: 1988, Height: 165,
		PreferredHeightMin: applicant.Int(160), PreferredHeightMax: applicant.Int(180),
	}

	require.False(t, IsMutualMatch(m1, f1))
	require.True(t, IsMutualMatch(m1, f2))

	result, err := New(nil).Run("7", applicant.NewPool(m1, f1, f2))
	require.NoError(t, err)

	assert.Equal(t, []Pair{{MaleID: "M1", FemaleID: "F2"}}, result.Pairs)
	assert.Equal(t, []Outcome{
		{ApplicantID: "M1", Matched: true, PartnerID: "F2"},
		{ApplicantID: "F1"},
		{ApplicantID: "F2", Matched: true, PartnerID: "M1"},
	}, result.Outcomes)
	assert.Equal(t, []string{"F1"}, result.UnmatchedIDs())
	assert.Equal(t, 1, result.Summary.Edges)
	assert.Equal(t, 1, result.Summary.Unmatched)
	assert.Equal(t, "7", result.RoundID)
}

func TestRunProperties(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(2024))
	engine := New(nil)
	for round := 0; round < 100; round++ {
		pool := applicant.NewPool(randomRecords(rng, 2+rng.Intn(13))...)

		result, err := engine.Run("r", pool)
		require.NoError(t, err)

		// Completeness: every applicant exactly once.
		require.Len(t, result.Outcomes, pool.Len())
		seen := make(map[string]bool, pool.Len())
		for _, o := range result.Outcomes {
			require.False(t, seen[o.ApplicantID], "duplicate outcome for %s", o.ApplicantID)
			seen[o.ApplicantID] = true
		}

		// Pairing consistency and no unilateral matches.
		for _, o := range result.Outcomes {
			if !o.Matched {
				require.Empty(t, o.PartnerID)
				continue
			}
			partner, ok := result.Outcome(o.PartnerID)
			require.True(t, ok)
			require.True(t, partner.Matched)
			require.Equal(t, o.ApplicantID, partner.PartnerID)
			require.True(t, IsMutualMatch(pool.FindByID(o.ApplicantID), pool.FindByID(o.PartnerID)))
		}

		// Maximality against an independent search over the same graph.
		g := BuildGraph(pool, nil)
		require.Equal(t, bruteForceMaximum(g.Adjacency, len(g.Females)), len(result.Pairs))
		require.Equal(t, pool.Len()-2*len(result.Pairs), result.Summary.Unmatched)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	t.Parallel()

	records := randomRecords(rand.New(rand.NewSource(3)), 200)

	first, err := RunMatching("r", records)
	require.NoError(t, err)
	second, err := RunMatching("r", records)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRunInputOrderChangesPairsNotSize(t *testing.T) {
	t.Parallel()

	a := &applicant.Record{ID: "A", Gender: applicant.Male}
	b := &applicant.Record{ID: "B", Gender: applicant.Male}
	x := &applicant.Record{ID: "X", Gender: applicant.Female}
	y := &applicant.Record{ID: "Y", Gender: applicant.Female}

	forward, err := New(nil).Run("r", applicant.NewPool(a, b, x, y))
	require.NoError(t, err)
	reversed, err := New(nil).Run("r", applicant.NewPool(b, a, x, y))
	require.NoError(t, err)

	assert.Equal(t, []Pair{{MaleID: "B", FemaleID: "X"}, {MaleID: "A", FemaleID: "Y"}}, forward.Pairs)
	assert.Equal(t, []Pair{{MaleID: "A", FemaleID: "X"}, {MaleID: "B", FemaleID: "Y"}}, reversed.Pairs)
	assert.Equal(t, len(forward.Pairs), len(reversed.Pairs))
}

func TestRunRejectsMalformedInput(t *testing.T) {
	t.Parallel()

	outcomes, err := RunMatching("r", []*applicant.Record{
		{ID: "a", Gender: applicant.Male},
		{ID: "b"},
	})
	require.ErrorIs(t, err, ErrMissingGender)
	assert.Nil(t, outcomes)

	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, 1, inputErr.Index)

	_, err = RunMatching("r", []*applicant.Record{{ID: "a", Gender: applicant.Male}, {ID: "a", Gender: applicant.Female}})
	require.ErrorIs(t, err, ErrDuplicateID)
}

func TestRunEmptyAndOneSidedPools(t *testing.T) {
	t.Parallel()

	outcomes, err := RunMatching("r", nil)
	require.NoError(t, err)
	assert.Empty(t, outcomes)

	outcomes, err = RunMatching("r", []*applicant.Record{{ID: "a", Gender: applicant.Female}, {ID: "b", Gender: applicant.Female}})
	require.NoError(t, err)
	assert.Equal(t, []Outcome{{ApplicantID: "a"}, {ApplicantID: "b"}}, outcomes)
}

func TestRunWithExtraRules(t *testing.T) {
	t.Parallel()

	rules, err := BuildRules([]string{RuleNotPreviousPartner}, RuleDeps{PreviousPairs: [][2]string{{"A", "X"}}})
	require.NoError(t, err)

	a := &applicant.Record{ID: "A", Gender: applicant.Male}
	x := &applicant.Record{ID: "X", Gender: applicant.Female}
	y := &applicant.Record{ID: "Y", Gender: applicant.Female}

	result, err := New(nil, WithPredicate(NewPredicate(rules...))).Run("r", applicant.NewPool(a, x, y))
	require.NoError(t, err)
	assert.Equal(t, []Pair{{MaleID: "A", FemaleID: "Y"}}, result.Pairs)
}

func TestRunLogsPhases(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.DebugLevel)
	engine := New(zap.New(core))

	m := &applicant.Record{ID: "m", Gender: applicant.Male, JobType: "engineer"}
	f := &applicant.Record{ID: "f", Gender: applicant.Female, PreferredJobTypes: applicant.Set{"designer"}}
	_, err := engine.Run("42", applicant.NewPool(m, f))
	require.NoError(t, err)

	built := observed.FilterMessage("compatibility graph built").All()
	require.Len(t, built, 1)
	assert.Equal(t, "42", built[0].ContextMap()["round_id"])
	assert.EqualValues(t, 0, built[0].ContextMap()["edges"])

	rejected := observed.FilterMessage("pair rejected").All()
	require.Len(t, rejected, 1)
	assert.Equal(t, "f", rejected[0].ContextMap()["owner"])
	assert.Equal(t, RuleJobType, rejected[0].ContextMap()["rule"])

	assert.Equal(t, 1, observed.FilterMessage("round matched").Len())
}

func TestReconcileRejectsMismatchedMatching(t *testing.T) {
	t.Parallel()

	pool := applicant.NewPool(&applicant.Record{ID: "m", Gender: applicant.Male}, &applicant.Record{ID: "f", Gender: applicant.Female})
	g := BuildGraph(pool, nil)

	_, _, err := Reconcile(pool, g, &Matching{MatchTo: []int{}})
	require.ErrorIs(t, err, ErrIncompleteOutcome)

	_, _, err = Reconcile(pool, g, &Matching{MatchTo: []int{3}, Size: 1})
	require.ErrorIs(t, err, ErrDanglingIndex)
}

func TestNullPreferencesDoNotRejectEveryone(t *testing.T) {
	t.Parallel()

	m, err := applicant.Decode(map[string]any{
		"user_id":                    "m1",
		"gender":                     "male",
		"birth_year":                 1990,
		"preferred_marital_statuses": "null",
		"preferred_job_types":        "null",
		"preferred_body_types":       "null",
	})
	require.NoError(t, err)
	f, err := applicant.Decode(map[string]any{
		"user_id":        "f1",
		"gender":         "female",
		"birth_year":     1992,
		"marital_status": []any{"single"},
		"job_type":       "office",
		"body_type":      "slim",
	})
	require.NoError(t, err)

	assert.True(t, IsMutualMatch(m, f))

	outcomes, err := RunMatching("9", []*applicant.Record{m, f})
	require.NoError(t, err)
	assert.Equal(t, []Outcome{
		{ApplicantID: "m1", Matched: true, PartnerID: "f1"},
		{ApplicantID: "f1", Matched: true, PartnerID: "m1"},
	}, outcomes)
}
