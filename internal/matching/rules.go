package matching

import (
	"fmt"
	"strings"

	"github.com/spigell/matchday/internal/applicant"
)

// Rule checks one dimension of the owner's stated preferences against a candidate.
// Rules are one-directional; Predicate.Mutual applies them both ways.
type Rule interface {
	Name() string
	Accepts(owner, candidate *applicant.Record) bool
}

const (
	RuleAge                = "age"
	RuleHeight             = "height"
	RuleBodyType           = "body_type"
	RuleJobType            = "job_type"
	RuleMaritalStatus      = "marital_status"
	RuleEducation          = "education"
	RuleRegion             = "region"
	RuleCompany            = "company"
	RuleNotPreviousPartner = "not_previous_partner"
)

// DefaultRules are the dimensions every round is matched on.
func DefaultRules() []Rule {
	return []Rule{
		ageRule{},
		heightRule{},
		bodyTypeRule{},
		jobTypeRule{},
		maritalStatusRule{},
	}
}

type ageRule struct{}

func (ageRule) Name() string { return RuleAge }

// Accepts converts the owner's age offsets into a band of partner birth years.
// An owner without offsets or without a birth year imposes no age filter.
func (ageRule) Accepts(owner, candidate *applicant.Record) bool {
	if !owner.HasAgePreference() || owner.BirthYear == 0 {
		return true
	}
	if candidate.BirthYear == 0 {
		return false
	}
	minYear, maxYear := owner.BirthYearBand()
	return candidate.BirthYear >= minYear && candidate.BirthYear <= maxYear
}

type heightRule struct{}

func (heightRule) Name() string { return RuleHeight }

func (heightRule) Accepts(owner, candidate *applicant.Record) bool {
	minHeight, maxHeight := owner.PreferredHeightMin, owner.PreferredHeightMax
	if minHeight == nil && maxHeight == nil {
		return true
	}
	if candidate.Height == 0 {
		return false
	}
	if minHeight != nil && candidate.Height < *minHeight {
		return false
	}
	if maxHeight != nil && candidate.Height > *maxHeight {
		return false
	}
	return true
}

type bodyTypeRule struct{}

func (bodyTypeRule) Name() string { return RuleBodyType }

func (bodyTypeRule) Accepts(owner, candidate *applicant.Record) bool {
	if owner.PreferredBodyTypes.Len() == 0 {
		return true
	}
	return owner.PreferredBodyTypes.Intersects(candidate.BodyTypes)
}

type jobTypeRule struct{}

func (jobTypeRule) Name() string { return RuleJobType }

func (jobTypeRule) Accepts(owner, candidate *applicant.Record) bool {
	return memberOf(owner.PreferredJobTypes, candidate.JobType)
}

type maritalStatusRule struct{}

func (maritalStatusRule) Name() string { return RuleMaritalStatus }

func (maritalStatusRule) Accepts(owner, candidate *applicant.Record) bool {
	return memberOf(owner.PreferredMaritalStatuses, candidate.MaritalStatus)
}

type educationRule struct{}

func (educationRule) Name() string { return RuleEducation }

func (educationRule) Accepts(owner, candidate *applicant.Record) bool {
	return memberOf(owner.PreferredEducations, candidate.Education)
}

type regionRule struct{}

func (regionRule) Name() string { return RuleRegion }

// Accepts compares the top-level region, the first word of the candidate's residence.
func (regionRule) Accepts(owner, candidate *applicant.Record) bool {
	return memberOf(owner.PreferredRegions, topRegion(candidate.Residence))
}

func topRegion(residence string) string {
	fields := strings.Fields(residence)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

type companyRule struct {
	directory map[string]string
}

// NewCompanyRule matches preferred company ids against the candidate's company name.
// The id to name directory is passed in per round; ids missing from it are ignored.
func NewCompanyRule(directory map[string]string) Rule {
	return &companyRule{directory: directory}
}

func (r *companyRule) Name() string { return RuleCompany }

func (r *companyRule) Accepts(owner, candidate *applicant.Record) bool {
	if len(r.directory) == 0 || owner.PreferredCompanies.Len() == 0 {
		return true
	}

	names := make(applicant.Set, 0, owner.PreferredCompanies.Len())
	for _, id := range owner.PreferredCompanies {
		if name, ok := r.directory[id]; ok && name != "" {
			names = append(names, name)
		}
	}

	return memberOf(names, strings.TrimSpace(candidate.Company))
}

type pairKey [2]string

func newPairKey(a, b string) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

type notPreviousPartnerRule struct {
	pairs map[pairKey]struct{}
}

// NewNotPreviousPartnerRule rejects candidates the owner was paired with before.
// The pairs come from the caller's history; the engine keeps no state across rounds.
func NewNotPreviousPartnerRule(pairs [][2]string) Rule {
	set := make(map[pairKey]struct{}, len(pairs))
	for _, p := range pairs {
		set[newPairKey(p[0], p[1])] = struct{}{}
	}
	return &notPreviousPartnerRule{pairs: set}
}

func (r *notPreviousPartnerRule) Name() string { return RuleNotPreviousPartner }

func (r *notPreviousPartnerRule) Accepts(owner, candidate *applicant.Record) bool {
	_, seen := r.pairs[newPairKey(owner.ID, candidate.ID)]
	return !seen
}

// memberOf treats an empty preference as no constraint and an absent value as a miss.
func memberOf(preferred applicant.Set, value string) bool {
	if preferred.Len() == 0 {
		return true
	}
	return value != "" && preferred.Contains(value)
}

// RuleDeps carries the per-round lookups some optional rules need.
type RuleDeps struct {
	Companies     map[string]string
	PreviousPairs [][2]string
}

// RuleName normalizes a configured rule name.
func RuleName(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// BuildRules returns the default rules followed by the named optional ones.
// Naming a default rule again is a no-op.
func BuildRules(names []string, deps RuleDeps) ([]Rule, error) {
	rules := DefaultRules()
	seen := make(map[string]struct{}, len(rules)+len(names))
	for _, r := range rules {
		seen[r.Name()] = struct{}{}
	}

	for _, raw := range names {
		name := RuleName(raw)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		switch name {
		case RuleEducation:
			rules = append(rules, educationRule{})
		case RuleRegion:
			rules = append(rules, regionRule{})
		case RuleCompany:
			rules = append(rules, NewCompanyRule(deps.Companies))
		case RuleNotPreviousPartner:
			rules = append(rules, NewNotPreviousPartnerRule(deps.PreviousPairs))
		default:
			return nil, fmt.Errorf("unknown matching rule %q", raw)
		}
	}

	return rules, nil
}
