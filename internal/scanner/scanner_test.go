package scanner

import (
	"strings"
	"testing"

	"github.com/jonathan/bias-detector/internal/catalog"
	"github.com/jonathan/bias-detector/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCatalog(t *testing.T, rules ...types.Rule) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(rules)
	require.NoError(t, err)
	return cat
}

func literal(id, pattern string, cat types.Category, sev types.Severity) types.Rule {
	return types.Rule{ID: id, Pattern: pattern, Category: cat, Severity: sev, Suggestion: "x"}
}

func spans(matches []types.Match) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.RuleID + ":" + m.MatchedText
	}
	return out
}

func TestScan_ScenarioA(t *testing.T) {
	cat := mustCatalog(t,
		literal("gender.he", "He", types.CategoryGender, types.SeverityMedium),
		literal("cultural.rock-star", "rock star", types.CategoryCultural, types.SeverityMedium),
	)

	matches := Scan("He is a rock star developer", cat)
	require.Len(t, matches, 2)

	assert.Equal(t, types.Match{
		RuleID: "gender.he", Start: 0, End: 2, MatchedText: "He",
		Category: types.CategoryGender, Severity: types.SeverityMedium,
	}, matches[0])
	assert.Equal(t, 8, matches[1].Start)
	assert.Equal(t, 17, matches[1].End)
	assert.Equal(t, "rock star", matches[1].MatchedText)
}

func TestScan_WordBoundaries(t *testing.T) {
	cat := mustCatalog(t, literal("gender.guys", "guys", types.CategoryGender, types.SeverityMedium))

	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "capitalised", text: "Guys, listen", want: []string{"gender.guys:Guys"}},
		{name: "trailing punctuation", text: "hey guys,", want: []string{"gender.guys:guys"}},
		{name: "prefix of longer word", text: "the guyster", want: []string{}},
		{name: "suffix of longer word", text: "superguys", want: []string{}},
		{name: "underscore glues", text: "guys_only", want: []string{}},
		{name: "two occurrences", text: "guys and GUYS", want: []string{"gender.guys:guys", "gender.guys:GUYS"}},
		{name: "inside quotes", text: `"guys"`, want: []string{"gender.guys:guys"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, spans(Scan(tt.text, cat)))
		})
	}
}

func TestScan_BoundaryFailureDoesNotHideLaterMatch(t *testing.T) {
	cat := mustCatalog(t, literal("gender.he", "he", types.CategoryGender, types.SeverityMedium))

	matches := Scan("the hero said he would", cat)
	require.Len(t, matches, 1)
	assert.Equal(t, 14, matches[0].Start)
}

func TestScan_MultiWordWhitespaceRuns(t *testing.T) {
	cat := mustCatalog(t, literal("cultural.rock-star", "rock star", types.CategoryCultural, types.SeverityMedium))

	assert.Len(t, Scan("a rock   star", cat), 1)
	assert.Len(t, Scan("a rock\n\tstar", cat), 1)
	assert.Empty(t, Scan("a rockstar", cat), "no stemming or joining")
	assert.Empty(t, Scan("a rock-star", cat))
}

func TestScan_OverlapAcrossRulesKept(t *testing.T) {
	cat := mustCatalog(t,
		literal("age.young-and-energetic", "young and energetic", types.CategoryAge, types.SeverityHigh),
		literal("age.young", "young", types.CategoryAge, types.SeverityMedium),
		literal("other.energetic", "energetic", types.CategoryOther, types.SeverityLow),
	)

	got := spans(Scan("a young and energetic hire", cat))
	assert.Equal(t, []string{
		"age.young:young",
		"age.young-and-energetic:young and energetic",
		"other.energetic:energetic",
	}, got)
}

func TestScan_SameRuleLongestMatch(t *testing.T) {
	cat := mustCatalog(t, types.Rule{
		ID: "gender.man", Pattern: `man|manpower`, Regex: true,
		Category: types.CategoryGender, Severity: types.SeverityMedium, Suggestion: "x",
	})

	matches := Scan("we need manpower", cat)
	require.Len(t, matches, 1)
	assert.Equal(t, "manpower", matches[0].MatchedText)
}

func TestScan_UnicodeOffsetsAreCodePoints(t *testing.T) {
	cat := mustCatalog(t, literal("gender.guys", "guys", types.CategoryGender, types.SeverityMedium))

	text := "Café für guys"
	matches := Scan(text, cat)
	require.Len(t, matches, 1)
	assert.Equal(t, 9, matches[0].Start)
	assert.Equal(t, 13, matches[0].End)
	assert.Equal(t, "guys", string([]rune(text)[matches[0].Start:matches[0].End]))

	assert.Empty(t, Scan("éguys", cat), "accented letters are word runes")
}

func TestScan_EmptyAndWhitespace(t *testing.T) {
	cat := catalog.Default()
	for _, text := range []string{"", "   ", "\n\t"} {
		matches := Scan(text, cat)
		assert.NotNil(t, matches)
		assert.Empty(t, matches)
	}
}

func TestScan_Deterministic(t *testing.T) {
	s := New(catalog.Default())
	text := "He is a young and energetic rock star. Guys, she is a native English speaker in a fast-paced environment."

	first := s.Scan(text)
	require.NotEmpty(t, first)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, s.Scan(text))
	}
}

func TestScan_InvariantsHold(t *testing.T) {
	s := New(catalog.Default())
	text := strings.Repeat("He said the guys are tech-savvy digital natives. ", 5)

	n := len([]rune(text))
	for _, m := range s.Scan(text) {
		assert.GreaterOrEqual(t, m.Start, 0)
		assert.Less(t, m.Start, m.End)
		assert.LessOrEqual(t, m.End, n)
		assert.Equal(t, m.MatchedText, string([]rune(text)[m.Start:m.End]))
	}
}

func TestScan_PrefilterSkipsAbsentFirstToken(t *testing.T) {
	cat := mustCatalog(t,
		literal("cultural.fast-paced", "fast-paced environment", types.CategoryCultural, types.SeverityLow),
	)
	s := New(cat)
	assert.Equal(t, []string{"fast"}, s.firstTokens)

	assert.Len(t, s.Scan("a FAST-PACED Environment"), 1)
	assert.Empty(t, s.Scan("a slow environment"))
}

func TestScan_RegexRule(t *testing.T) {
	cat := mustCatalog(t, types.Rule{
		ID: "age.years-young", Pattern: `\d+\s+years\s+young`, Regex: true,
		Category: types.CategoryAge, Severity: types.SeverityLow, Suggestion: "x",
	})
	matches := Scan("only 25 years young applicants", cat)
	require.Len(t, matches, 1)
	assert.Equal(t, "25 years young", matches[0].MatchedText)
}

func TestScan_AnchoredRegexKeepsTextContext(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		text    string
		want    []int
	}{
		{name: "start of text", pattern: `^!`, text: "!!! x", want: []int{0}},
		{name: "begin text escape", pattern: `\A!`, text: "!!! x", want: []int{0}},
		{name: "multiline start", pattern: `(?m)^- `, text: "- a - b\n- c", want: []int{0, 8}},
		{name: "ascii word boundary", pattern: `\bguys`, text: "hey guys, heyguys", want: []int{4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := mustCatalog(t, types.Rule{
				ID: "other.anchored", Pattern: tt.pattern, Regex: true,
				Category: types.CategoryOther, Severity: types.SeverityLow, Suggestion: "x",
			})
			var starts []int
			for _, m := range Scan(tt.text, cat) {
				starts = append(starts, m.Start)
			}
			assert.Equal(t, tt.want, starts)
		})
	}
}

func TestScan_ExpandRecordsGroups(t *testing.T) {
	cat := mustCatalog(t, types.Rule{
		ID: "cultural.ninja", Pattern: `(\w+) ninja`, Regex: true,
		Category: types.CategoryCultural, Severity: types.SeverityLow,
		Suggestion: "$1 expert", Generator: types.GeneratorExpand,
	}, literal("gender.guys", "guys", types.CategoryGender, types.SeverityMedium))

	matches := Scan("Café coding ninja for guys", cat)
	require.Len(t, matches, 2)
	assert.Equal(t, []int{0, 12, 0, 6}, matches[0].Groups)
	assert.Nil(t, matches[1].Groups, "literal rules carry no groups")
}
