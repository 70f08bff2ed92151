package simulate

import (
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/spigell/matchday/internal/applicant"
)

var (
	maleBodyTypes   = []string{"slim", "average", "muscular", "chubby"}
	femaleBodyTypes = []string{"slim", "average", "curvy", "chubby"}
	jobTypes        = []string{"office", "technical", "other"}
	maritalStatuses = []string{"single", "divorced"}
)

// noPreferenceShare is the share of generated applicants who accept everyone.
const noPreferenceShare = 0.1

// Generate creates n synthetic applicants. Records go through the same decoding as
// stored application snapshots, including JSON encoded preference lists. The same
// rng state always yields the same pool.
func Generate(rng *rand.Rand, n int, maleRatio float64) ([]*applicant.Record, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative pool size %d", n)
	}
	if maleRatio < 0 || maleRatio > 1 {
		return nil, fmt.Errorf("male ratio %v is outside [0, 1]", maleRatio)
	}

	records := make([]*applicant.Record, 0, n)
	for i := 0; i < n; i++ {
		raw, err := snapshot(rng, maleRatio)
		if err != nil {
			return nil, err
		}
		rec, err := applicant.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("decode generated applicant #%d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func snapshot(rng *rand.Rand, maleRatio float64) (map[string]any, error) {
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		return nil, fmt.Errorf("generate applicant id: %w", err)
	}

	gender, ownBody, partnerBody := applicant.Female, femaleBodyTypes, maleBodyTypes
	if rng.Float64() < maleRatio {
		gender, ownBody, partnerBody = applicant.Male, maleBodyTypes, femaleBodyTypes
	}

	raw := map[string]any{
		"user_id":        id.String(),
		"gender":         string(gender),
		"birth_year":     randomInt(rng, 1985, 2003),
		"height":         randomInt(rng, 150, 199),
		"body_type":      pick(rng, ownBody),
		"job_type":       pick(rng, jobTypes),
		"marital_status": pick(rng, maritalStatuses),
	}

	if rng.Float64() < noPreferenceShare {
		raw["preferred_age_min"] = -99
		raw["preferred_age_max"] = 99
		raw["preferred_height_min"] = 150
		raw["preferred_height_max"] = 199
		return raw, nil
	}

	ageMin := randomInt(rng, -10, 10)
	heightMin := randomInt(rng, 150, 199)
	raw["preferred_age_min"] = ageMin
	raw["preferred_age_max"] = randomInt(rng, ageMin, 10)
	raw["preferred_height_min"] = heightMin
	raw["preferred_height_max"] = randomInt(rng, heightMin, 199)

	bodies, err := encodedSubset(rng, partnerBody, 1, 3)
	if err != nil {
		return nil, err
	}
	jobs, err := encodedSubset(rng, jobTypes, 1, 2)
	if err != nil {
		return nil, err
	}
	raw["preferred_body_types"] = bodies
	raw["preferred_job_types"] = jobs

	return raw, nil
}

// encodedSubset picks between minSize and maxSize distinct values and returns them
// as a JSON array string, the way the application service stores them.
func encodedSubset(rng *rand.Rand, values []string, minSize, maxSize int) (string, error) {
	size := randomInt(rng, minSize, maxSize)
	if size > len(values) {
		size = len(values)
	}

	picked := make([]string, 0, size)
	for _, idx := range rng.Perm(len(values))[:size] {
		picked = append(picked, values[idx])
	}

	data, err := json.Marshal(picked)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.Intn(len(values))]
}

// randomInt returns a value in [lo, hi].
func randomInt(rng *rand.Rand, lo, hi int) int {
	return lo + rng.Intn(hi-lo+1)
}
