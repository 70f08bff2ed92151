package matching

import "github.com/spigell/matchday/internal/applicant"

// Counts describes how an applicant relates to the opposite-gender members of a pool.
type Counts struct {
	IPrefer  int `json:"i_prefer"`
	PreferMe int `json:"prefer_me"`
	Mutual   int `json:"mutual"`
}

// PreferenceCounts evaluates the subject against others in both directions. The subject
// itself and same-gender members are skipped.
func PreferenceCounts(subject *applicant.Record, others []*applicant.Record, predicate *Predicate) Counts {
	if predicate == nil {
		predicate = defaultPredicate
	}

	var c Counts
	for _, other := range others {
		if other == nil || other.ID == subject.ID || other.Gender == subject.Gender {
			continue
		}

		iPrefer := predicate.Accepts(subject, other)
		preferMe := predicate.Accepts(other, subject)
		if iPrefer {
			c.IPrefer++
		}
		if preferMe {
			c.PreferMe++
		}
		if iPrefer && preferMe {
			c.Mutual++
		}
	}
	return c
}
