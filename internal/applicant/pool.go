package applicant

import (
	"encoding/json"
	"fmt"
	"os"
)

// Pool is the ordered list of applicants of one round. Order matters: it decides
// which of several equally large matchings the engine returns.
type Pool struct {
	Items []*Record
}

// NewPool wraps records into a pool. The records are shared, the slice is not
// modified by pool operations.
func NewPool(records ...*Record) *Pool {
	return &Pool{Items: records}
}

func (p *Pool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Items)
}

func (p *Pool) IDs() []string {
	ids := make([]string, 0, p.Len())
	for _, r := range p.Items {
		ids = append(ids, r.ID)
	}
	return ids
}

func (p *Pool) FindByID(id string) *Record {
	for _, r := range p.Items {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// InputError points at the record of a pool that violates the input contract.
type InputError struct {
	Index int
	ID    string
	Err   error
}

func (e *InputError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("applicant #%d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("applicant #%d (%q): %v", e.Index, e.ID, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// Validate checks every record and rejects duplicate ids. The returned *InputError
// names the offending position so the caller can trace it back to its source row.
func (p *Pool) Validate() error {
	seen := make(map[string]int, p.Len())
	for idx, r := range p.Items {
		if r == nil {
			return &InputError{Index: idx, Err: ErrNilRecord}
		}
		if err := r.Validate(); err != nil {
			return &InputError{Index: idx, ID: r.ID, Err: err}
		}
		if first, ok := seen[r.ID]; ok {
			return &InputError{Index: idx, ID: r.ID, Err: fmt.Errorf("%w, first seen at #%d", ErrDuplicateID, first)}
		}
		seen[r.ID] = idx
	}
	return nil
}

// Partition splits the pool by gender keeping the input order inside each side.
// Records with any other gender value are left out; call Validate first.
func (p *Pool) Partition() (males, females []*Record) {
	for _, r := range p.Items {
		switch r.Gender {
		case Male:
			males = append(males, r)
		case Female:
			females = append(females, r)
		}
	}
	return males, females
}

// Exclude removes applicants with the given ids, preserving the order of the rest,
// and returns the removed ids.
func (p *Pool) Exclude(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}

	targets := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		targets[id] = struct{}{}
	}

	var excluded []string
	kept := make([]*Record, 0, len(p.Items))
	for _, r := range p.Items {
		if _, ok := targets[r.ID]; ok {
			excluded = append(excluded, r.ID)
			continue
		}
		kept = append(kept, r)
	}
	p.Items = kept

	return excluded
}

// ExcludeWithdrawn drops records explicitly marked as not applied or cancelled.
func (p *Pool) ExcludeWithdrawn() []string {
	var ids []string
	for _, r := range p.Items {
		if r.Withdrawn() {
			ids = append(ids, r.ID)
		}
	}
	return p.Exclude(ids)
}

// LoadPoolFile reads a JSON array of applicants. Each entry is either a flat record
// or an application row carrying profile_snapshot and preference_snapshot.
func LoadPoolFile(path string) (*Pool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var entries []map[string]any
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse pool file %q: %w", path, err)
	}

	pool := &Pool{Items: make([]*Record, 0, len(entries))}
	for idx, entry := range entries {
		rec, err := decodeEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("pool file %q entry #%d: %w", path, idx, err)
		}
		pool.Items = append(pool.Items, rec)
	}

	return pool, nil
}

func (p *Pool) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "applicants_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p.Items); err != nil {
		return "", err
	}
	return file.Name(), nil
}
