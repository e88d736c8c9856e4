package rewriting

import (
	"sort"

	"github.com/jonathan/bias-detector/internal/types"
)

// Predicate selects the issues to rewrite.
type Predicate func(types.Issue) bool

// Accepted selects issues the user accepted.
func Accepted(issue types.Issue) bool {
	return issue.Disposition == types.DispositionAccepted
}

// All selects every issue.
func All(types.Issue) bool {
	return true
}

// WithIDs selects issues by stable id.
func WithIDs(ids ...string) Predicate {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return func(issue types.Issue) bool {
		return set[issue.StableID]
	}
}

// Conflict is a selected issue that was skipped because it overlaps an
// issue that was applied.
type Conflict struct {
	Skipped types.Issue `json:"skipped"`
	Kept    types.Issue `json:"kept"`
}

// ApplySuggestions replaces the span of every selected issue with its
// suggestion. Any overlap between selected spans fails the whole rewrite.
// A selection of zero issues returns text unchanged.
func ApplySuggestions(text string, issues []types.Issue, pred Predicate) (string, error) {
	selected := selectIssues(issues, pred)
	if len(selected) == 0 {
		return text, nil
	}

	runes := []rune(text)
	if err := checkSpans(selected, len(runes)); err != nil {
		return "", err
	}

	// ascending order makes neighbours adjacent for the overlap check
	for i := 1; i < len(selected); i++ {
		if selected[i-1].Match.Overlaps(selected[i].Match) {
			return "", &OverlappingEditError{FirstID: selected[i-1].StableID, SecondID: selected[i].StableID}
		}
	}
	return splice(runes, selected), nil
}

// ApplyNonConflicting applies the largest left-to-right set of selected
// issues that do not overlap: on a conflict the issue starting first wins.
// Skipped issues are reported alongside the issue that displaced them.
func ApplyNonConflicting(text string, issues []types.Issue, pred Predicate) (string, []Conflict, error) {
	selected := selectIssues(issues, pred)
	if len(selected) == 0 {
		return text, nil, nil
	}

	runes := []rune(text)
	if err := checkSpans(selected, len(runes)); err != nil {
		return "", nil, err
	}

	var kept []types.Issue
	var conflicts []Conflict
	for _, issue := range selected {
		if n := len(kept); n > 0 && kept[n-1].Match.Overlaps(issue.Match) {
			conflicts = append(conflicts, Conflict{Skipped: issue, Kept: kept[n-1]})
			continue
		}
		kept = append(kept, issue)
	}
	return splice(runes, kept), conflicts, nil
}

// selectIssues filters and sorts by ascending start, then ascending end.
func selectIssues(issues []types.Issue, pred Predicate) []types.Issue {
	if pred == nil {
		pred = Accepted
	}
	var out []types.Issue
	for _, issue := range issues {
		if pred(issue) {
			out = append(out, issue)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Match, out[j].Match
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.End < b.End
	})
	return out
}

func checkSpans(issues []types.Issue, length int) error {
	for _, issue := range issues {
		m := issue.Match
		if m.Start < 0 || m.End > length || m.Start >= m.End {
			return &SpanError{IssueID: issue.StableID, Start: m.Start, End: m.End, Length: length}
		}
	}
	return nil
}

// splice applies non-overlapping, ascending issues back to front so that
// earlier offsets stay valid after each replacement.
func splice(runes []rune, ascending []types.Issue) string {
	out := make([]rune, len(runes))
	copy(out, runes)
	for i := len(ascending) - 1; i >= 0; i-- {
		m := ascending[i].Match
		replacement := []rune(ascending[i].Suggestion)
		tail := append(replacement, out[m.End:]...)
		out = append(out[:m.Start], tail...)
	}
	return string(out)
}
