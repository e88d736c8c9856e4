package catalog

import (
	"testing"

	"github.com/jonathan/bias-detector/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name    string
		rule    types.Rule
		matched string
		want    string
	}{
		{
			name:    "literal keeps lowercase",
			rule:    types.Rule{Suggestion: "they"},
			matched: "he",
			want:    "they",
		},
		{
			name:    "literal adopts leading capital",
			rule:    types.Rule{Suggestion: "they"},
			matched: "He",
			want:    "They",
		},
		{
			name:    "literal does not shout",
			rule:    types.Rule{Suggestion: "team members"},
			matched: "GUYS",
			want:    "Team members",
		},
		{
			name:    "preserve case all caps",
			rule:    types.Rule{Suggestion: "team members", Generator: types.GeneratorPreserveCase},
			matched: "GUYS",
			want:    "TEAM MEMBERS",
		},
		{
			name:    "preserve case single capital",
			rule:    types.Rule{Suggestion: "they", Generator: types.GeneratorPreserveCase},
			matched: "He",
			want:    "They",
		},
		{
			name:    "remove",
			rule:    types.Rule{Generator: types.GeneratorRemove},
			matched: "very",
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.rule, nil, tt.matched, nil))
		})
	}
}

func TestRender_Expand(t *testing.T) {
	r := types.Rule{
		ID: "cultural.ninja", Pattern: `(\w+) ninja`, Regex: true,
		Category: types.CategoryCultural, Severity: types.SeverityLow,
		Suggestion: "$1 expert", Generator: types.GeneratorExpand,
	}
	cat, err := New([]types.Rule{r})
	require.NoError(t, err)

	assert.Equal(t, "coding expert", cat.Suggest("cultural.ninja", "coding ninja"))
	assert.Equal(t, "", cat.Suggest("missing", "coding ninja"))
}

func TestSuggestMatch_UsesScanGroups(t *testing.T) {
	r := types.Rule{
		ID: "cultural.ninja", Pattern: `(?:\A(\w+)|(\w+)) ninja`, Regex: true,
		Category: types.CategoryCultural, Severity: types.SeverityLow,
		Suggestion: "${2} expert", Generator: types.GeneratorExpand,
	}
	cat, err := New([]types.Rule{r})
	require.NoError(t, err)

	// Scanned inside "I am a coding ninja", where \A cannot match.
	m := types.Match{RuleID: r.ID, MatchedText: "coding ninja", Groups: []int{0, 12, -1, -1, 0, 6}}
	assert.Equal(t, "coding expert", cat.SuggestMatch(m))
}
