package applicant

import (
	"encoding/json"
	"os"
	"time"
)

// ExcludedApplicants is the content of an exclude file: applicants kept out of every
// round until an operator removes them again.
type ExcludedApplicants struct {
	Items []*ExcludedApplicant
}

type ExcludedApplicant struct {
	ID         string
	Reason     string
	ExcludedAt time.Time
}

// NewExcluded lists the given applicant ids as excluded for reason.
func NewExcluded(reason string, ids ...string) *ExcludedApplicants {
	excluded := &ExcludedApplicants{}
	now := time.Now().UTC()
	for _, id := range ids {
		excluded.Items = append(excluded.Items, &ExcludedApplicant{
			ID:         id,
			Reason:     reason,
			ExcludedAt: now,
		})
	}
	return excluded
}

// GetExcludedApplicantsFromFile reads an exclude file. An empty file is an empty list.
func GetExcludedApplicantsFromFile(path string) (*ExcludedApplicants, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedApplicants{}, nil
	}

	var excluded ExcludedApplicants
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

func (e *ExcludedApplicants) Append(other *ExcludedApplicants) {
	e.Items = append(e.Items, other.Items...)
}

func (e *ExcludedApplicants) IDs() []string {
	ids := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

func (e *ExcludedApplicants) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}
