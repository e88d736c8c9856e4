package tracker

import (
	"testing"

	"github.com/jonathan/bias-detector/internal/catalog"
	"github.com/jonathan/bias-detector/internal/scanner"
	"github.com/jonathan/bias-detector/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New([]types.Rule{
		{ID: "gender.he", Pattern: "he", Category: types.CategoryGender, Severity: types.SeverityMedium, Suggestion: "they", Rationale: "Uses gender-neutral pronouns"},
		{ID: "gender.guys", Pattern: "guys", Category: types.CategoryGender, Severity: types.SeverityMedium, Suggestion: "team members"},
		{ID: "cultural.rock-star", Pattern: "rock star", Category: types.CategoryCultural, Severity: types.SeverityMedium, Suggestion: "skilled"},
	})
	require.NoError(t, err)
	return cat
}

func TestStableID_IgnoresOffsetAndCase(t *testing.T) {
	a := StableID(types.CategoryGender, "gender.guys", "Guys", 0)
	b := StableID(types.CategoryGender, "gender.guys", "GUYS", 0)
	assert.Equal(t, a, b)
	assert.Len(t, a, idLength)

	assert.NotEqual(t, a, StableID(types.CategoryGender, "gender.guys", "guys", 1))
	assert.NotEqual(t, a, StableID(types.CategoryCultural, "gender.guys", "guys", 0))
	assert.NotEqual(t, a, StableID(types.CategoryGender, "gender.dudes", "guys", 0))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "rock star", Normalize("Rock \n  STAR"))
	// NFD e + combining acute folds to the same key as precomposed é
	assert.Equal(t, Normalize("café"), Normalize("café"))
}

func TestReconcile_NewIssuesArePending(t *testing.T) {
	cat := testCatalog(t)
	issues := Reconcile(nil, scanner.Scan("He is a rock star", cat), cat)

	require.Len(t, issues, 2)
	assert.Equal(t, types.DispositionPending, issues[0].Disposition)
	assert.Equal(t, "They", issues[0].Suggestion)
	assert.Equal(t, "Uses gender-neutral pronouns", issues[0].Reason)
	assert.Equal(t, "skilled", issues[1].Suggestion)
	assert.Less(t, issues[0].Match.Start, issues[1].Match.Start)
}

func TestReconcile_CarriesDispositionAcrossEdits(t *testing.T) {
	cat := testCatalog(t)
	issues := Reconcile(nil, scanner.Scan("He is a rock star", cat), cat)
	issues[1].Disposition = types.DispositionIgnored
	rockID := issues[1].StableID

	// edit elsewhere shifts offsets but not identity
	next := Reconcile(issues, scanner.Scan("Today he is truly a rock star", cat), cat)
	require.Len(t, next, 2)
	assert.Equal(t, rockID, next[1].StableID)
	assert.Equal(t, types.DispositionIgnored, next[1].Disposition)
	assert.Equal(t, 20, next[1].Match.Start)
}

func TestReconcile_DropsVanishedIssues(t *testing.T) {
	cat := testCatalog(t)
	issues := Reconcile(nil, scanner.Scan("He is a rock star", cat), cat)
	issues[0].Disposition = types.DispositionAccepted

	next := Reconcile(issues, scanner.Scan("They are a rock star", cat), cat)
	require.Len(t, next, 1)
	assert.Equal(t, "cultural.rock-star", next[0].Match.RuleID)

	// the pronoun comes back: no disposition history survives
	again := Reconcile(next, scanner.Scan("He is a rock star", cat), cat)
	require.Len(t, again, 2)
	assert.Equal(t, types.DispositionPending, again[0].Disposition)
}

func TestReconcile_Idempotent(t *testing.T) {
	cat := testCatalog(t)
	matches := scanner.Scan("guys, he and the guys are rock star guys", cat)

	first := Reconcile(nil, matches, cat)
	first[2].Disposition = types.DispositionAccepted
	second := Reconcile(first, matches, cat)
	third := Reconcile(second, matches, cat)

	assert.Equal(t, first, second)
	assert.Equal(t, second, third)

	ids := make(map[string]bool)
	for _, issue := range third {
		assert.False(t, ids[issue.StableID], "duplicate id %s", issue.StableID)
		ids[issue.StableID] = true
	}
	assert.Len(t, ids, 5)
}

func TestReconcile_RepeatedOccurrencesGetDistinctIDs(t *testing.T) {
	cat := testCatalog(t)
	issues := Reconcile(nil, scanner.Scan("guys and Guys", cat), cat)
	require.Len(t, issues, 2)
	assert.NotEqual(t, issues[0].StableID, issues[1].StableID)
	assert.Equal(t, StableID(types.CategoryGender, "gender.guys", "guys", 0), issues[0].StableID)
	assert.Equal(t, StableID(types.CategoryGender, "gender.guys", "guys", 1), issues[1].StableID)
}

func TestReconcileWith_InitialDisposition(t *testing.T) {
	cat := testCatalog(t)
	issues := ReconcileWith(nil, scanner.Scan("he said", cat), cat, Options{InitialDisposition: types.DispositionAccepted})
	require.Len(t, issues, 1)
	assert.Equal(t, types.DispositionAccepted, issues[0].Disposition)
}

func TestReconcile_NilRules(t *testing.T) {
	cat := testCatalog(t)
	issues := Reconcile(nil, scanner.Scan("guys", cat), nil)
	require.Len(t, issues, 1)
	assert.Empty(t, issues[0].Suggestion)
}

func TestTracker_Dispositions(t *testing.T) {
	cat := testCatalog(t)
	tr := New(Options{})
	issues := tr.Update(scanner.Scan("He is a rock star with the guys", cat), cat)
	require.Len(t, issues, 3)

	he, rock, guys := issues[0].StableID, issues[1].StableID, issues[2].StableID

	assert.True(t, tr.Accept(he))
	assert.False(t, tr.Accept(he), "already accepted")
	assert.True(t, tr.Ignore(rock))

	got, ok := tr.Get(he)
	require.True(t, ok)
	assert.Equal(t, types.DispositionAccepted, got.Disposition)

	assert.Equal(t, 1, tr.AcceptAll())
	got, _ = tr.Get(guys)
	assert.Equal(t, types.DispositionAccepted, got.Disposition)
	got, _ = tr.Get(rock)
	assert.Equal(t, types.DispositionIgnored, got.Disposition)

	assert.True(t, tr.Reset(rock))
	got, _ = tr.Get(rock)
	assert.Equal(t, types.DispositionPending, got.Disposition)
}

func TestTracker_UnknownIDIsNoop(t *testing.T) {
	tr := New(Options{})
	assert.NotPanics(t, func() {
		assert.False(t, tr.Accept("nope"))
		assert.False(t, tr.Ignore("nope"))
		assert.False(t, tr.Reset("nope"))
	})
	assert.Zero(t, tr.Len())
}

func TestTracker_IssuesReturnsCopy(t *testing.T) {
	cat := testCatalog(t)
	tr := New(Options{})
	tr.Update(scanner.Scan("guys", cat), cat)

	issues := tr.Issues()
	issues[0].Disposition = types.DispositionAccepted

	got, _ := tr.Get(issues[0].StableID)
	assert.Equal(t, types.DispositionPending, got.Disposition)
}

func TestReconcile_EarlierDuplicateShiftsDispositions(t *testing.T) {
	cat := testCatalog(t)
	before := Reconcile(nil, scanner.Scan("hi guys, bye guys", cat), cat)
	require.Len(t, before, 2)
	before[1].Disposition = types.DispositionAccepted

	// Unrelated edits keep identity.
	edited := Reconcile(before, scanner.Scan("hello guys, see you guys", cat), cat)
	require.Len(t, edited, 2)
	assert.Equal(t, types.DispositionPending, edited[0].Disposition)
	assert.Equal(t, types.DispositionAccepted, edited[1].Disposition)

	// A new "guys" in front takes ordinal 0; the accepted disposition follows
	// the second occurrence, which is now the one in the middle.
	after := Reconcile(edited, scanner.Scan("guys, hello guys, see you guys", cat), cat)
	require.Len(t, after, 3)
	assert.Equal(t, types.DispositionPending, after[0].Disposition)
	assert.Equal(t, types.DispositionAccepted, after[1].Disposition)
	assert.Equal(t, 12, after[1].Match.Start)
	assert.Equal(t, types.DispositionPending, after[2].Disposition)
}
