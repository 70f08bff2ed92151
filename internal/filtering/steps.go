package filtering

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/matchday/internal/applicant"
)

type withdrawnFilter struct {
	disabled bool
	reason   string
}

// NewWithdrawn creates a filter that removes applicants who did not apply or cancelled.
func NewWithdrawn() Filter {
	return &withdrawnFilter{}
}

func (f *withdrawnFilter) Name() string { return "withdrawn" }

func (f *withdrawnFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *withdrawnFilter) IsEnabled() bool { return !f.disabled }

func (f *withdrawnFilter) Validate(*Config) error { return nil }

func (f *withdrawnFilter) Apply(_ context.Context, deps Deps, p *applicant.Pool) (*applicant.Pool, Step, error) {
	initial := p.Len()
	excluded := p.ExcludeWithdrawn()
	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Info("excluding applicants who withdrew from the round",
			zap.Strings("excluded_applicants", excluded),
			zap.Int("applicants_left", p.Len()),
		)
	}

	return p, Step{Initial: initial, Dropped: len(excluded), Left: p.Len()}, nil
}

func (f *withdrawnFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}

type excludedApplicantsFilter struct {
	ids []string
}

// NewExcludedApplicants creates a filter that removes applicants listed in the config.
func NewExcludedApplicants() Filter {
	return &excludedApplicantsFilter{}
}

func (f *excludedApplicantsFilter) Name() string { return "excluded_applicants" }

func (f *excludedApplicantsFilter) Disable(string) {}

func (f *excludedApplicantsFilter) IsEnabled() bool { return true }

func (f *excludedApplicantsFilter) Validate(cfg *Config) error {
	f.ids = nil
	if cfg == nil {
		return nil
	}
	for _, id := range cfg.ExcludedApplicants {
		id = strings.TrimSpace(id)
		if id == "" {
			return fmt.Errorf("empty applicant id in exclude list")
		}
		f.ids = append(f.ids, id)
	}
	return nil
}

func (f *excludedApplicantsFilter) Apply(_ context.Context, deps Deps, p *applicant.Pool) (*applicant.Pool, Step, error) {
	initial := p.Len()
	if len(f.ids) == 0 {
		return p, Step{Initial: initial, Dropped: 0, Left: p.Len()}, nil
	}

	excluded := p.Exclude(f.ids)
	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Info("excluding applicants by config",
			zap.Strings("excluded_applicants", excluded),
			zap.Int("applicants_left", p.Len()),
		)
	}

	return p, Step{Initial: initial, Dropped: len(excluded), Left: p.Len()}, nil
}

func (f *excludedApplicantsFilter) Status() Status {
	details := map[string]string{}
	if len(f.ids) > 0 {
		details["applicants"] = strconv.Itoa(len(f.ids))
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}

type excludeFileFilter struct {
	path string
}

// NewExcludeFile creates a filter that removes applicants contained in the exclude file.
func NewExcludeFile() Filter {
	return &excludeFileFilter{}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Disable(string) {}

func (f *excludeFileFilter) IsEnabled() bool { return true }

func (f *excludeFileFilter) Validate(cfg *Config) error {
	f.path = ""
	if cfg != nil {
		f.path = strings.TrimSpace(cfg.ExcludeFile)
	}
	return nil
}

func (f *excludeFileFilter) Apply(_ context.Context, deps Deps, p *applicant.Pool) (*applicant.Pool, Step, error) {
	initial := p.Len()
	if f.path == "" {
		return p, Step{Initial: initial, Dropped: 0, Left: p.Len()}, nil
	}

	excluded, err := applicant.GetExcludedApplicantsFromFile(f.path)
	if err != nil {
		return p, Step{}, fmt.Errorf("getting excluded applicants from file: %w", err)
	}

	removed := p.Exclude(excluded.IDs())
	if deps.Logger != nil && len(removed) > 0 {
		deps.Logger.Info("excluding applicants based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_applicants", removed),
			zap.Int("applicants_left", p.Len()),
		)
	}

	return p, Step{Initial: initial, Dropped: len(removed), Left: p.Len()}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}
