package tracker

import "github.com/jonathan/bias-detector/internal/types"

// Tracker holds the active issue set of one document. It is not safe for
// concurrent use; the owning session serialises access.
type Tracker struct {
	issues []types.Issue
	index  map[string]int
	opts   Options
}

// New returns an empty tracker.
func New(opts Options) *Tracker {
	return &Tracker{index: map[string]int{}, opts: opts}
}

// Update reconciles the active set against a fresh scan and returns the new set.
func (t *Tracker) Update(matches []types.Match, rules RuleSource) []types.Issue {
	t.set(ReconcileWith(t.issues, matches, rules, t.opts))
	return t.Issues()
}

// Issues returns a copy of the active set in start-offset order.
func (t *Tracker) Issues() []types.Issue {
	out := make([]types.Issue, len(t.issues))
	copy(out, t.issues)
	return out
}

// Len returns the number of active issues
func (t *Tracker) Len() int {
	return len(t.issues)
}

// Get returns the active issue with the given id.
func (t *Tracker) Get(id string) (types.Issue, bool) {
	i, ok := t.index[id]
	if !ok {
		return types.Issue{}, false
	}
	return t.issues[i], true
}

// Accept marks an issue accepted. Unknown ids are ignored; the return value
// reports whether anything changed.
func (t *Tracker) Accept(id string) bool {
	return t.setDisposition(id, types.DispositionAccepted)
}

// Ignore marks an issue ignored.
func (t *Tracker) Ignore(id string) bool {
	return t.setDisposition(id, types.DispositionIgnored)
}

// Reset returns an issue to pending.
func (t *Tracker) Reset(id string) bool {
	return t.setDisposition(id, types.DispositionPending)
}

// AcceptAll accepts every pending issue and returns how many changed.
// Ignored issues stay ignored.
func (t *Tracker) AcceptAll() int {
	n := 0
	for i := range t.issues {
		if t.issues[i].Disposition == types.DispositionPending {
			t.issues[i].Disposition = types.DispositionAccepted
			n++
		}
	}
	return n
}

func (t *Tracker) setDisposition(id string, d types.Disposition) bool {
	i, ok := t.index[id]
	if !ok || t.issues[i].Disposition == d {
		return false
	}
	t.issues[i].Disposition = d
	return true
}

func (t *Tracker) set(issues []types.Issue) {
	t.issues = issues
	t.index = make(map[string]int, len(issues))
	for i, issue := range issues {
		t.index[issue.StableID] = i
	}
}
