// Package scanner finds every rule match in a text.
package scanner

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jonathan/bias-detector/internal/catalog"
	"github.com/jonathan/bias-detector/internal/types"
	"golang.org/x/text/cases"
)

// Scanner runs a catalog over texts. It holds no per-scan state and is safe
// for concurrent use.
type Scanner struct {
	cat *catalog.Catalog
	// firstTokens[i] is the folded leading word of rule i, empty when the
	// rule must always run (regex rules, patterns starting with punctuation).
	firstTokens []string
}

// New prepares a scanner for cat.
func New(cat *catalog.Catalog) *Scanner {
	rules := cat.Rules()
	s := &Scanner{
		cat:         cat,
		firstTokens: make([]string, len(rules)),
	}
	fold := cases.Fold()
	for i, rule := range rules {
		if rule.Regex {
			continue
		}
		s.firstTokens[i] = fold.String(leadingWord(rule.Pattern))
	}
	return s
}

// Catalog returns the catalog the scanner was built from.
func (s *Scanner) Catalog() *catalog.Catalog {
	return s.cat
}

// Scan is a convenience wrapper that builds a throwaway scanner.
func Scan(text string, cat *catalog.Catalog) []types.Match {
	return New(cat).Scan(text)
}

// Scan returns every match in text ordered by start offset, then end offset,
// then catalog order. The result is never nil.
func (s *Scanner) Scan(text string) []types.Match {
	matches := []types.Match{}
	if strings.TrimSpace(text) == "" {
		return matches
	}

	present := wordSet(text)
	offsets := newRuneIndex(text)
	rules := s.cat.Rules()

	order := make(map[string]int, len(rules))
	for i, rule := range rules {
		order[rule.ID] = i
		if tok := s.firstTokens[i]; tok != "" && !present[tok] {
			continue
		}
		matches = append(matches, scanRule(text, rule, s.cat, i, offsets)...)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.End != b.End {
			return a.End < b.End
		}
		return order[a.RuleID] < order[b.RuleID]
	})
	return matches
}

// scanRule collects the non-overlapping, word-bounded matches of one rule,
// left to right.
func scanRule(text string, rule types.Rule, cat *catalog.Catalog, i int, offsets *runeIndex) []types.Match {
	if cat.NeedsContext(i) {
		return scanWhole(text, rule, cat, i, offsets)
	}
	return scanResuming(text, rule, cat, i, offsets)
}

// scanResuming restarts the matcher after each candidate. A candidate that
// fails the boundary check does not consume its span: the search resumes one
// rune after the candidate's start so that a valid match inside it is still
// found. Restarting on a suffix is exact only for matchers that do not look
// behind their start position.
func scanResuming(text string, rule types.Rule, cat *catalog.Catalog, i int, offsets *runeIndex) []types.Match {
	re := cat.Matcher(i)
	var out []types.Match

	pos := 0
	for pos <= len(text) {
		loc := re.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		for j := range loc {
			if loc[j] >= 0 {
				loc[j] += pos
			}
		}
		start, end := loc[0], loc[1]

		if end > start && isBoundary(text, start, end) {
			out = append(out, newMatch(text, rule, loc, offsets))
			pos = end
			continue
		}

		_, size := utf8.DecodeRuneInString(text[start:])
		if size == 0 {
			break
		}
		pos = start + size
	}
	return out
}

// scanWhole runs a context-sensitive matcher once over the whole text so that
// anchors and \b see the real surroundings. Candidates failing the boundary
// check are dropped.
func scanWhole(text string, rule types.Rule, cat *catalog.Catalog, i int, offsets *runeIndex) []types.Match {
	var out []types.Match
	for _, loc := range cat.Matcher(i).FindAllStringSubmatchIndex(text, -1) {
		if loc[1] > loc[0] && isBoundary(text, loc[0], loc[1]) {
			out = append(out, newMatch(text, rule, loc, offsets))
		}
	}
	return out
}

// newMatch builds a match from absolute submatch byte offsets.
func newMatch(text string, rule types.Rule, loc []int, offsets *runeIndex) types.Match {
	start, end := loc[0], loc[1]
	m := types.Match{
		RuleID:      rule.ID,
		Start:       offsets.at(start),
		End:         offsets.at(end),
		MatchedText: text[start:end],
		Category:    rule.Category,
		Severity:    rule.Severity,
	}
	if rule.Generator == types.GeneratorExpand {
		m.Groups = make([]int, len(loc))
		for j, v := range loc {
			if v >= 0 {
				v -= start
			}
			m.Groups[j] = v
		}
	}
	return m
}

// isBoundary reports whether text[start:end] is not glued to a word rune on
// either side.
func isBoundary(text string, start, end int) bool {
	if start > 0 {
		before, _ := utf8.DecodeLastRuneInString(text[:start])
		first, _ := utf8.DecodeRuneInString(text[start:])
		if isWordRune(before) && isWordRune(first) {
			return false
		}
	}
	if end < len(text) {
		after, _ := utf8.DecodeRuneInString(text[end:])
		last, _ := utf8.DecodeLastRuneInString(text[:end])
		if isWordRune(after) && isWordRune(last) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

// leadingWord returns the run of word runes at the start of pattern.
func leadingWord(pattern string) string {
	pattern = strings.TrimSpace(pattern)
	for i, r := range pattern {
		if !isWordRune(r) {
			return pattern[:i]
		}
	}
	return pattern
}

// wordSet returns the folded maximal word-rune runs in text.
func wordSet(text string) map[string]bool {
	fold := cases.Fold()
	set := make(map[string]bool)
	words := strings.FieldsFunc(text, func(r rune) bool { return !isWordRune(r) })
	for _, w := range words {
		set[fold.String(w)] = true
	}
	return set
}
