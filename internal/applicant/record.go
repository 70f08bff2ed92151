package applicant

import (
	"errors"
	"fmt"
	"strings"
)

// Gender of an applicant. Only cross-gender pairs are ever matched.
type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

var (
	ErrMissingID     = errors.New("applicant id is required")
	ErrMissingGender = errors.New("gender is required")
	ErrInvalidGender = errors.New("gender must be male or female")
	ErrDuplicateID   = errors.New("duplicate applicant id")
	ErrNilRecord     = errors.New("pool contains a nil record")
)

// Record is the frozen profile and preference snapshot of one applicant for one round.
type Record struct {
	ID            string `json:"user_id" mapstructure:"user_id"`
	Gender        Gender `json:"gender" mapstructure:"gender"`
	BirthYear     int    `json:"birth_year,omitempty" mapstructure:"birth_year"`
	Height        int    `json:"height,omitempty" mapstructure:"height"`
	BodyTypes     Set    `json:"body_type,omitempty" mapstructure:"body_type"`
	JobType       string `json:"job_type,omitempty" mapstructure:"job_type"`
	MaritalStatus string `json:"marital_status,omitempty" mapstructure:"marital_status"`
	Education     string `json:"education,omitempty" mapstructure:"education"`
	Residence     string `json:"residence,omitempty" mapstructure:"residence"`
	Company       string `json:"company,omitempty" mapstructure:"company"`

	PreferredAgeMin          *int `json:"preferred_age_min,omitempty" mapstructure:"preferred_age_min"`
	PreferredAgeMax          *int `json:"preferred_age_max,omitempty" mapstructure:"preferred_age_max"`
	PreferredHeightMin       *int `json:"preferred_height_min,omitempty" mapstructure:"preferred_height_min"`
	PreferredHeightMax       *int `json:"preferred_height_max,omitempty" mapstructure:"preferred_height_max"`
	PreferredBodyTypes       Set  `json:"preferred_body_types,omitempty" mapstructure:"preferred_body_types"`
	PreferredJobTypes        Set  `json:"preferred_job_types,omitempty" mapstructure:"preferred_job_types"`
	PreferredMaritalStatuses Set  `json:"preferred_marital_statuses,omitempty" mapstructure:"preferred_marital_statuses"`
	PreferredEducations      Set  `json:"preferred_educations,omitempty" mapstructure:"preferred_educations"`
	PreferredRegions         Set  `json:"prefer_region,omitempty" mapstructure:"prefer_region"`
	PreferredCompanies       Set  `json:"prefer_company,omitempty" mapstructure:"prefer_company"`

	// Applied and Cancelled are only set by pool files; database pools are
	// pre-filtered by the query.
	Applied   *bool `json:"applied,omitempty" mapstructure:"applied"`
	Cancelled *bool `json:"cancelled,omitempty" mapstructure:"cancelled"`
}

// Validate checks the identity fields the engine cannot work without and
// normalizes the gender value.
func (r *Record) Validate() error {
	r.ID = strings.TrimSpace(r.ID)
	if r.ID == "" {
		return ErrMissingID
	}

	gender := Gender(strings.ToLower(strings.TrimSpace(string(r.Gender))))
	switch gender {
	case "":
		return ErrMissingGender
	case Male, Female:
		r.Gender = gender
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidGender, r.Gender)
	}

	return nil
}

// Withdrawn reports whether the record was explicitly marked as not applied or cancelled.
func (r *Record) Withdrawn() bool {
	if r.Applied != nil && !*r.Applied {
		return true
	}
	return r.Cancelled != nil && *r.Cancelled
}

// HasAgePreference reports whether at least one age offset was stated.
func (r *Record) HasAgePreference() bool {
	return r.PreferredAgeMin != nil || r.PreferredAgeMax != nil
}

// BirthYearBand converts the age offsets into the inclusive range of partner birth
// years the applicant accepts. A missing offset counts as 0.
func (r *Record) BirthYearBand() (minYear, maxYear int) {
	return r.BirthYear - deref(r.PreferredAgeMax), r.BirthYear - deref(r.PreferredAgeMin)
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

// Int returns a pointer to v. It keeps fixtures for optional preferences short.
func Int(v int) *int {
	return &v
}
