package catalog

import (
	"regexp"
	"unicode"
	"unicode/utf8"

	"github.com/jonathan/bias-detector/internal/types"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Render produces the replacement text for one match of rule.
//
// Literal suggestions take on the leading capital of the matched text, so a
// sentence-initial "He" becomes "They". preserve-case additionally keeps
// all-caps matches all-caps. expand treats the suggestion as a regexp
// template over the rule's capture groups.
func Render(rule types.Rule, re *regexp.Regexp, matchedText string, groups []int) string {
	switch rule.Generator {
	case types.GeneratorRemove:
		return ""
	case types.GeneratorExpand:
		if re == nil {
			return rule.Suggestion
		}
		idx := groups
		if idx == nil {
			idx = re.FindStringSubmatchIndex(matchedText)
		}
		if idx == nil {
			return rule.Suggestion
		}
		return string(re.ExpandString(nil, rule.Suggestion, matchedText, idx))
	case types.GeneratorPreserveCase:
		if isAllUpper(matchedText) {
			return cases.Upper(language.Und).String(rule.Suggestion)
		}
		return matchLeadingCase(rule.Suggestion, matchedText)
	default:
		return matchLeadingCase(rule.Suggestion, matchedText)
	}
}

func matchLeadingCase(suggestion, matchedText string) string {
	first, _ := utf8.DecodeRuneInString(matchedText)
	if first == utf8.RuneError || !unicode.IsUpper(first) {
		return suggestion
	}
	s, size := utf8.DecodeRuneInString(suggestion)
	if s == utf8.RuneError || unicode.IsUpper(s) {
		return suggestion
	}
	return string(unicode.ToUpper(s)) + suggestion[size:]
}

// isAllUpper reports whether the text has at least two letters and none of
// them are lowercase. Single capitals are treated as leading case.
func isAllUpper(s string) bool {
	letters := 0
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		if unicode.IsLower(r) {
			return false
		}
		letters++
	}
	return letters > 1
}
