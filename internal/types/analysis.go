package types

import (
	"maps"
	"time"
)

// Match is one located occurrence of a rule in a text. Offsets are half-open
// and count Unicode code points, not bytes.
type Match struct {
	RuleID      string   `json:"rule_id"`
	Start       int      `json:"start"`
	End         int      `json:"end"`
	MatchedText string   `json:"matched_text"`
	Category    Category `json:"category"`
	Severity    Severity `json:"severity"`
	// Groups holds submatch byte offsets relative to MatchedText, in
	// regexp order. Only recorded for rules that expand capture groups.
	Groups []int `json:"-"`
}

// Len returns the span length in code points.
func (m Match) Len() int {
	return m.End - m.Start
}

// Overlaps reports whether the two spans share at least one code point.
func (m Match) Overlaps(other Match) bool {
	return m.Start < other.End && other.Start < m.End
}

// Disposition is the user's decision on an issue.
type Disposition string

// Dispositions
const (
	DispositionPending  Disposition = "pending"
	DispositionAccepted Disposition = "accepted"
	DispositionIgnored  Disposition = "ignored"
)

// Issue is the tracked, user-facing unit built from a match.
type Issue struct {
	StableID    string      `json:"stable_id"`
	Match       Match       `json:"match"`
	Disposition Disposition `json:"disposition"`
	Suggestion  string      `json:"suggestion"`
	Reason      string      `json:"reason,omitempty"`
}

// ScoreBreakdown holds per-category sub-scores and the aggregate score.
// WordCount and CharCount are informational and do not feed the score.
type ScoreBreakdown struct {
	Categories     map[Category]int `json:"categories"`
	DiversityScore int              `json:"diversity_score"`
	WordCount      int              `json:"word_count"`
	CharCount      int              `json:"char_count"`
}

// Clone returns a copy that shares no map with b.
func (b ScoreBreakdown) Clone() ScoreBreakdown {
	b.Categories = maps.Clone(b.Categories)
	return b
}

// AnalysisResult is an immutable snapshot of one analysis of one text.
// ProjectedScore is the score the text would get once every accepted
// issue has been rewritten.
type AnalysisResult struct {
	Text           string         `json:"text"`
	Issues         []Issue        `json:"issues"`
	Score          ScoreBreakdown `json:"score"`
	ProjectedScore ScoreBreakdown `json:"projected_score"`
	CatalogVersion string         `json:"catalog_version"`
	AnalyzedAt     time.Time      `json:"analyzed_at"`
}

// CountByDisposition returns how many issues carry the given disposition.
func (r *AnalysisResult) CountByDisposition(d Disposition) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, issue := range r.Issues {
		if issue.Disposition == d {
			n++
		}
	}
	return n
}
