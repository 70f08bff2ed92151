package report

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spigell/matchday/internal/applicant"
	"github.com/spigell/matchday/internal/matching"
)

const anyValue = "any"

// Markdown renders a round for operators. Every couple takes two rows: the first shows
// the male's attributes next to the female's preferences, the second the reverse.
func Markdown(result *matching.Result, pool *applicant.Pool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Matching round %s\n\n", result.RoundID)
	b.WriteString("| Applicants | Males | Females | Compatible pairs | Matched pairs | Unmatched | Match rate |\n")
	b.WriteString("|---|---|---|---|---|---|---|\n")
	s := result.Summary
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %d | %d | %.1f%% |\n\n",
		s.Applicants, s.Males, s.Females, s.Edges, s.Pairs, s.Unmatched, 100*result.MatchRate())

	b.WriteString("## Pairs\n\n")
	if len(result.Pairs) == 0 {
		b.WriteString("No pairs were matched.\n\n")
	} else {
		b.WriteString("| # | Applicant | Birth year | Partner accepts | Height | Partner accepts | Job | Partner accepts | Body type | Partner accepts | Marital status | Partner accepts |\n")
		b.WriteString("|---|---|---|---|---|---|---|---|---|---|---|---|\n")
		for idx, pair := range result.Pairs {
			male, female := pool.FindByID(pair.MaleID), pool.FindByID(pair.FemaleID)
			if male == nil || female == nil {
				fmt.Fprintf(&b, "| %d | %s / %s | | | | | | | | | | |\n", idx+1, pair.MaleID, pair.FemaleID)
				continue
			}
			writeSide(&b, idx+1, male, female)
			writeSide(&b, idx+1, female, male)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Unmatched\n\n")
	unmatched := result.UnmatchedIDs()
	if len(unmatched) == 0 {
		b.WriteString("Everyone got a partner.\n")
	}
	for _, id := range unmatched {
		gender := "?"
		if rec := pool.FindByID(id); rec != nil {
			gender = string(rec.Gender)
		}
		fmt.Fprintf(&b, "- %s (%s)\n", id, gender)
	}

	return b.String()
}

// writeSide renders the attributes of subject against the preferences of partner.
func writeSide(b *strings.Builder, n int, subject, partner *applicant.Record) {
	fmt.Fprintf(b, "| %d | %s | %s | %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
		n,
		cell(subject.ID),
		number(subject.BirthYear), birthYears(partner),
		number(subject.Height), bounds(partner.PreferredHeightMin, partner.PreferredHeightMax),
		cell(subject.JobType), set(partner.PreferredJobTypes),
		values(subject.BodyTypes), set(partner.PreferredBodyTypes),
		cell(subject.MaritalStatus), set(partner.PreferredMaritalStatuses),
	)
}

func birthYears(r *applicant.Record) string {
	if !r.HasAgePreference() || r.BirthYear == 0 {
		return anyValue
	}
	minYear, maxYear := r.BirthYearBand()
	return fmt.Sprintf("%d~%d", minYear, maxYear)
}

func bounds(minValue, maxValue *int) string {
	switch {
	case minValue == nil && maxValue == nil:
		return anyValue
	case maxValue == nil:
		return fmt.Sprintf("%d~", *minValue)
	case minValue == nil:
		return fmt.Sprintf("~%d", *maxValue)
	default:
		return fmt.Sprintf("%d~%d", *minValue, *maxValue)
	}
}

func number(v int) string {
	if v == 0 {
		return "-"
	}
	return strconv.Itoa(v)
}

func set(s applicant.Set) string {
	if s.Len() == 0 {
		return anyValue
	}
	return cell(s.String())
}

func values(s applicant.Set) string {
	return cell(s.String())
}

func cell(v string) string {
	if v == "" {
		return "-"
	}
	return strings.ReplaceAll(v, "|", "\\|")
}

// WriteMarkdown writes the markdown report to path.
func WriteMarkdown(path string, result *matching.Result, pool *applicant.Pool) error {
	if err := os.WriteFile(path, []byte(Markdown(result, pool)), 0o644); err != nil {
		return fmt.Errorf("write markdown report: %w", err)
	}
	return nil
}

// Outcomes is the machine readable form of a round written by WriteOutcomes.
type Outcomes struct {
	RoundID   string             `json:"round_id"`
	RunID     string             `json:"run_id,omitempty"`
	Pairs     []matching.Pair    `json:"pairs"`
	Outcomes  []matching.Outcome `json:"outcomes"`
	Unmatched []string           `json:"unmatched"`
}

// WriteOutcomes writes the pairs and per-applicant outcomes of a round as JSON.
func WriteOutcomes(path, runID string, result *matching.Result) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open outcomes file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(Outcomes{
		RoundID:   result.RoundID,
		RunID:     runID,
		Pairs:     result.Pairs,
		Outcomes:  result.Outcomes,
		Unmatched: result.UnmatchedIDs(),
	})
}

// DumpOutcomesToTmpFile writes the outcomes to a new temporary file and returns its name.
func DumpOutcomesToTmpFile(runID string, result *matching.Result) (string, error) {
	file, err := os.CreateTemp("", "outcomes_*.json")
	if err != nil {
		return "", err
	}
	name := file.Name()
	if err := file.Close(); err != nil {
		return "", err
	}

	if err := WriteOutcomes(name, runID, result); err != nil {
		return "", err
	}
	return name, nil
}
