// Package history keeps a record of past analyses for the dashboard views.
package history

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonathan/bias-detector/internal/types"
)

// Status summarises how far a document improved.
type Status string

// Statuses
const (
	StatusExcellent Status = "excellent"
	StatusImproved  Status = "improved"
	StatusNeedsWork Status = "needs-work"
)

const (
	excellentThreshold = 95
	needsWorkThreshold = 40
)

// ComputeStatus classifies a pair of scores. An improved score of 95 or more
// is excellent regardless of where the document started.
func ComputeStatus(original, improved int) Status {
	switch {
	case improved >= excellentThreshold:
		return StatusExcellent
	case original < needsWorkThreshold:
		return StatusNeedsWork
	default:
		return StatusImproved
	}
}

// Meta is the caller supplied description of a history entry.
type Meta struct {
	Key     string `json:"key" validate:"required,max=256"`
	Title   string `json:"title,omitempty" validate:"max=256"`
	Company string `json:"company,omitempty" validate:"max=256"`
	Group   string `json:"group,omitempty" validate:"max=128"`
}

var validate = validator.New()

// Validate checks meta against its field constraints.
func (m Meta) Validate() error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("invalid history entry: %w", err)
	}
	return nil
}

// Record is one stored analysis.
type Record struct {
	ID            uuid.UUID             `json:"id"`
	Key           string                `json:"key"`
	Title         string                `json:"title,omitempty"`
	Company       string                `json:"company,omitempty"`
	Group         string                `json:"group,omitempty"`
	AnalyzedAt    time.Time             `json:"analyzed_at"`
	OriginalScore int                   `json:"original_score"`
	ImprovedScore int                   `json:"improved_score"`
	IssueCount    int                   `json:"issue_count"`
	ResolvedCount int                   `json:"resolved_count"`
	Text          string                `json:"text"`
	Result        *types.AnalysisResult `json:"result,omitempty"`
}

// NewRecord builds a record from a result snapshot. The improved score is
// the projected score, i.e. the score once every accepted issue is applied.
func NewRecord(meta Meta, result *types.AnalysisResult) Record {
	return Record{
		ID:            uuid.New(),
		Key:           meta.Key,
		Title:         meta.Title,
		Company:       meta.Company,
		Group:         meta.Group,
		AnalyzedAt:    result.AnalyzedAt,
		OriginalScore: result.Score.DiversityScore,
		ImprovedScore: result.ProjectedScore.DiversityScore,
		IssueCount:    len(result.Issues),
		ResolvedCount: result.CountByDisposition(types.DispositionAccepted),
		Text:          result.Text,
		Result:        result,
	}
}

// Status returns the record's status.
func (r Record) Status() Status {
	return ComputeStatus(r.OriginalScore, r.ImprovedScore)
}

// Improvement is the score gained.
func (r Record) Improvement() int {
	return r.ImprovedScore - r.OriginalScore
}

// Filter selects records. Zero fields match everything.
type Filter struct {
	// Query is a case-insensitive substring of title, company, group or key.
	Query  string
	Status Status
	// Limit caps the number of records returned; 0 means no limit.
	Limit int
}

// Matches reports whether r passes the filter, ignoring Limit.
func (f Filter) Matches(r Record) bool {
	if f.Status != "" && r.Status() != f.Status {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	for _, field := range []string{r.Title, r.Company, r.Group, r.Key} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// Apply returns the matching records, newest first, capped at Limit.
func (f Filter) Apply(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	SortNewestFirst(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

// SortNewestFirst orders records by AnalyzedAt descending, then by key.
func SortNewestFirst(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].AnalyzedAt.Equal(records[j].AnalyzedAt) {
			return records[i].AnalyzedAt.After(records[j].AnalyzedAt)
		}
		return records[i].Key < records[j].Key
	})
}

// Summary aggregates a set of records.
type Summary struct {
	TotalAnalyses      int            `json:"total_analyses"`
	AverageImprovement float64        `json:"average_improvement"`
	TotalBiasesFixed   int            `json:"total_biases_fixed"`
	ByStatus           map[Status]int `json:"by_status"`
}

// Summarize computes the dashboard totals. The average improvement is
// rounded to one decimal place.
func Summarize(records []Record) Summary {
	s := Summary{
		TotalAnalyses: len(records),
		ByStatus: map[Status]int{
			StatusExcellent: 0,
			StatusImproved:  0,
			StatusNeedsWork: 0,
		},
	}
	if len(records) == 0 {
		return s
	}
	total := 0
	for _, r := range records {
		total += r.Improvement()
		s.TotalBiasesFixed += r.ResolvedCount
		s.ByStatus[r.Status()]++
	}
	s.AverageImprovement = math.Round(float64(total)/float64(len(records))*10) / 10
	return s
}
