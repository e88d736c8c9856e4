package catalog

import (
	"regexp"
	"regexp/syntax"
	"strings"

	"github.com/jonathan/bias-detector/internal/types"
)

// compileRule builds the case-insensitive matcher for a rule. Literal phrases
// are split on whitespace and rejoined so that any whitespace run between
// words matches. Word boundaries are enforced by the scanner, not here,
// because RE2's \b only understands ASCII.
func compileRule(rule types.Rule) (*regexp.Regexp, error) {
	var expr string
	if rule.Regex {
		expr = rule.Pattern
	} else {
		words := strings.Fields(rule.Pattern)
		quoted := make([]string, len(words))
		for i, w := range words {
			quoted[i] = regexp.QuoteMeta(w)
		}
		expr = strings.Join(quoted, `\s+`)
	}

	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return nil, err
	}
	re.Longest()
	return re, nil
}

// needsContext reports whether a matcher contains assertions that look at
// the text before a match start (^, \A, \b, \B). Such a matcher cannot be
// restarted on a suffix of the text without changing what it matches.
func needsContext(re *regexp.Regexp) bool {
	parsed, err := syntax.Parse(re.String(), syntax.Perl)
	if err != nil {
		return true
	}
	return hasContextOp(parsed)
}

func hasContextOp(re *syntax.Regexp) bool {
	switch re.Op {
	case syntax.OpBeginLine, syntax.OpBeginText, syntax.OpWordBoundary, syntax.OpNoWordBoundary:
		return true
	}
	for _, sub := range re.Sub {
		if hasContextOp(sub) {
			return true
		}
	}
	return false
}

// slugify turns a pattern into an id fragment: lowercase, runs of
// non-alphanumerics collapsed to a single dash.
func slugify(s string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
			dash = false
			continue
		}
		if !dash && sb.Len() > 0 {
			sb.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(sb.String(), "-")
}
