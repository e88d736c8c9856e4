// Package scoring turns matches into category sub-scores and an aggregate
// diversity score.
package scoring

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/bias-detector/internal/types"
)

const (
	// maxScore is the score of a category with no matches
	maxScore = 100
	// unconfiguredWeight applies to categories seen in matches or catalogs
	// but absent from the configured category weights
	unconfiguredWeight = 1.0
)

// DefaultSeverityWeights returns the points deducted per match.
func DefaultSeverityWeights() map[types.Severity]int {
	return map[types.Severity]int{
		types.SeverityHigh:   15,
		types.SeverityMedium: 8,
		types.SeverityLow:    3,
	}
}

// DefaultCategoryWeights weights the four built-in scored categories equally.
func DefaultCategoryWeights() map[types.Category]float64 {
	return map[types.Category]float64{
		types.CategoryGender:   1,
		types.CategoryAge:      1,
		types.CategoryRacial:   1,
		types.CategoryCultural: 1,
	}
}

// Options configures a Scorer. Nil maps select the defaults; severities
// missing from a non-nil SeverityWeights fall back to their default points.
type Options struct {
	CategoryWeights map[types.Category]float64
	SeverityWeights map[types.Severity]int
}

// Scorer computes ScoreBreakdowns. It is immutable and safe for concurrent use.
type Scorer struct {
	categoryWeights map[types.Category]float64
	severityWeights map[types.Severity]int
}

// New builds a scorer from opts. Negative weights are treated as 0.
func New(opts Options) *Scorer {
	s := &Scorer{
		categoryWeights: DefaultCategoryWeights(),
		severityWeights: DefaultSeverityWeights(),
	}
	if opts.CategoryWeights != nil {
		s.categoryWeights = make(map[types.Category]float64, len(opts.CategoryWeights))
		for c, w := range opts.CategoryWeights {
			s.categoryWeights[c] = math.Max(w, 0)
		}
	}
	for sev, w := range opts.SeverityWeights {
		s.severityWeights[sev] = max(w, 0)
	}
	return s
}

// Default returns a scorer with the default weights.
func Default() *Scorer {
	return New(Options{})
}

// WithCategories returns a scorer that also reports the given categories,
// at the unconfigured weight when they have no configured weight. It is used
// to make every catalog category visible in a breakdown even at 100.
func (s *Scorer) WithCategories(cats []types.Category) *Scorer {
	out := &Scorer{
		categoryWeights: make(map[types.Category]float64, len(s.categoryWeights)+len(cats)),
		severityWeights: s.severityWeights,
	}
	for c, w := range s.categoryWeights {
		out.categoryWeights[c] = w
	}
	for _, c := range cats {
		if _, ok := out.categoryWeights[c]; !ok {
			out.categoryWeights[c] = unconfiguredWeight
		}
	}
	return out
}

// Categories returns the configured categories, sorted.
func (s *Scorer) Categories() []types.Category {
	cats := make([]types.Category, 0, len(s.categoryWeights))
	for c := range s.categoryWeights {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats
}

// Ordered reports whether the severity weights satisfy high > medium > low.
func (s *Scorer) Ordered() bool {
	high, medium, low := s.Penalty(types.SeverityHigh), s.Penalty(types.SeverityMedium), s.Penalty(types.SeverityLow)
	return high > medium && medium > low
}

// Penalty returns the points one match of severity sev costs.
func (s *Scorer) Penalty(sev types.Severity) int {
	return s.severityWeights[sev]
}

// Score computes the breakdown for matches found in text.
func (s *Scorer) Score(matches []types.Match, text string) types.ScoreBreakdown {
	lost := make(map[types.Category]int)
	weights := make(map[types.Category]float64, len(s.categoryWeights))
	for c, w := range s.categoryWeights {
		weights[c] = w
	}
	for _, m := range matches {
		lost[m.Category] += s.Penalty(m.Severity)
		if _, ok := weights[m.Category]; !ok {
			weights[m.Category] = unconfiguredWeight
		}
	}

	// Summation runs in sorted order so that rounding is reproducible.
	keys := make([]types.Category, 0, len(weights))
	for c := range weights {
		keys = append(keys, c)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	categories := make(map[types.Category]int, len(weights))
	var weighted, total float64
	for _, c := range keys {
		w := weights[c]
		score := clamp(maxScore - lost[c])
		categories[c] = score
		if w > 0 {
			weighted += w * float64(score)
			total += w
		}
	}

	aggregate := maxScore
	if total > 0 {
		aggregate = clamp(int(math.Round(weighted / total)))
	}

	return types.ScoreBreakdown{
		Categories:     categories,
		DiversityScore: aggregate,
		WordCount:      WordCount(text),
		CharCount:      CharCount(text),
	}
}

// ScoreIssues scores the matches of the given issues.
func (s *Scorer) ScoreIssues(issues []types.Issue, text string) types.ScoreBreakdown {
	matches := make([]types.Match, len(issues))
	for i, issue := range issues {
		matches[i] = issue.Match
	}
	return s.Score(matches, text)
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// CharCount counts code points.
func CharCount(text string) int {
	return utf8.RuneCountInString(text)
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > maxScore {
		return maxScore
	}
	return v
}
