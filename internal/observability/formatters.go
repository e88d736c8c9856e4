// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/bias-detector/internal/history"
	"github.com/jonathan/bias-detector/internal/rewriting"
	"github.com/jonathan/bias-detector/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "..."
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// PrintAnalysis outputs the score breakdown and the first issues of a result.
func (p *Printer) PrintAnalysis(title string, result *types.AnalysisResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Diversity score:  %d/100", result.Score.DiversityScore))
	if result.ProjectedScore.DiversityScore != result.Score.DiversityScore {
		sb.WriteString(fmt.Sprintf(" (→ %d after accepted fixes)", result.ProjectedScore.DiversityScore))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Words: %d  Characters: %d\n", result.Score.WordCount, result.Score.CharCount))
	sb.WriteString(fmt.Sprintf("Catalog: %s\n\n", result.CatalogVersion))

	cats := make([]types.Category, 0, len(result.Score.Categories))
	for c := range result.Score.Categories {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	for _, c := range cats {
		score := result.Score.Categories[c]
		sb.WriteString(fmt.Sprintf("  %-10s %3d  %s\n", c, score, bar(score)))
	}

	if len(result.Issues) == 0 {
		sb.WriteString("\nNo biased language found.")
		p.printBox(title, sb.String())
		return
	}

	sb.WriteString(fmt.Sprintf("\n%d issue(s):\n", len(result.Issues)))
	count := min(len(result.Issues), maxItemsToShow)
	for i := 0; i < count; i++ {
		issue := result.Issues[i]
		sb.WriteString(fmt.Sprintf("%s \"%s\" → \"%s\"\n", marker(issue.Disposition), issue.Match.MatchedText, issue.Suggestion))
		sb.WriteString(fmt.Sprintf("  %s/%s at %d-%d\n", issue.Match.Category, issue.Match.Severity, issue.Match.Start, issue.Match.End))
	}
	if len(result.Issues) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(result.Issues)-maxItemsToShow))
	}

	p.printBox(title, strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRewrite outputs the rewritten text and any skipped overlapping edits.
func (p *Printer) PrintRewrite(rewritten string, conflicts []rewriting.Conflict) {
	var sb strings.Builder
	sb.WriteString(rewritten)
	if len(conflicts) > 0 {
		sb.WriteString(fmt.Sprintf("\n\nSkipped %d overlapping edit(s):\n", len(conflicts)))
		for _, c := range conflicts {
			sb.WriteString(fmt.Sprintf("  • \"%s\" (kept \"%s\")\n", c.Skipped.Match.MatchedText, c.Kept.Match.MatchedText))
		}
	}
	p.printBox("REWRITTEN TEXT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintHistorySummary outputs the dashboard totals.
func (p *Printer) PrintHistorySummary(summary history.Summary) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total analyses:      %d\n", summary.TotalAnalyses))
	sb.WriteString(fmt.Sprintf("Average improvement: %+.1f\n", summary.AverageImprovement))
	sb.WriteString(fmt.Sprintf("Biases fixed:        %d\n", summary.TotalBiasesFixed))
	for _, status := range []history.Status{history.StatusExcellent, history.StatusImproved, history.StatusNeedsWork} {
		sb.WriteString(fmt.Sprintf("  %-10s %d\n", status, summary.ByStatus[status]))
	}
	p.printBox("ANALYSIS HISTORY", strings.TrimSuffix(sb.String(), "\n"))
}

// bar renders a score as a 20 cell gauge
func bar(score int) string {
	filled := score / 5
	return strings.Repeat("█", filled) + strings.Repeat("░", 20-filled)
}

func marker(d types.Disposition) string {
	switch d {
	case types.DispositionAccepted:
		return "✓"
	case types.DispositionIgnored:
		return "–"
	default:
		return "•"
	}
}
