package matching

import "github.com/spigell/matchday/internal/applicant"

// Input errors raised by Run. They are defined next to the record they describe.
var (
	ErrMissingID     = applicant.ErrMissingID
	ErrMissingGender = applicant.ErrMissingGender
	ErrInvalidGender = applicant.ErrInvalidGender
	ErrDuplicateID   = applicant.ErrDuplicateID
	ErrNilRecord     = applicant.ErrNilRecord
)

// InputError names the pool position of a malformed record.
type InputError = applicant.InputError
