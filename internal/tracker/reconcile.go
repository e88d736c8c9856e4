package tracker

import "github.com/jonathan/bias-detector/internal/types"

// RuleSource supplies the rule text an issue carries. *catalog.Catalog
// satisfies it.
type RuleSource interface {
	Rule(id string) (types.Rule, bool)
	SuggestMatch(m types.Match) string
}

// Options tunes reconciliation.
type Options struct {
	// InitialDisposition applies to issues seen for the first time.
	// Empty means pending.
	InitialDisposition types.Disposition
}

// Reconcile merges a fresh scan into the previous issue set. It is a pure
// function: the same inputs always produce the same output, and feeding the
// output back in with the same matches changes nothing.
func Reconcile(previous []types.Issue, matches []types.Match, rules RuleSource) []types.Issue {
	return ReconcileWith(previous, matches, rules, Options{})
}

// ReconcileWith is Reconcile with options.
func ReconcileWith(previous []types.Issue, matches []types.Match, rules RuleSource, opts Options) []types.Issue {
	initial := opts.InitialDisposition
	if initial == "" {
		initial = types.DispositionPending
	}

	prior := make(map[string]types.Disposition, len(previous))
	for _, issue := range previous {
		prior[issue.StableID] = issue.Disposition
	}

	type occurrenceKey struct {
		ruleID string
		text   string
	}
	seen := make(map[occurrenceKey]int)
	emitted := make(map[string]bool, len(matches))

	out := make([]types.Issue, 0, len(matches))
	for _, m := range matches {
		key := occurrenceKey{ruleID: m.RuleID, text: Normalize(m.MatchedText)}
		ordinal := seen[key]
		seen[key] = ordinal + 1

		id := StableID(m.Category, m.RuleID, m.MatchedText, ordinal)
		if emitted[id] {
			continue
		}
		emitted[id] = true

		disposition, ok := prior[id]
		if !ok {
			disposition = initial
		}

		issue := types.Issue{
			StableID:    id,
			Match:       m,
			Disposition: disposition,
		}
		if rules != nil {
			issue.Suggestion = rules.SuggestMatch(m)
			if rule, ok := rules.Rule(m.RuleID); ok {
				issue.Reason = rule.Rationale
			}
		}
		out = append(out, issue)
	}
	return out
}
