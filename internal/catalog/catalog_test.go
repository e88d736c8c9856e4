package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonathan/bias-detector/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rule(id, pattern string, cat types.Category, sev types.Severity, suggestion string) types.Rule {
	return types.Rule{ID: id, Pattern: pattern, Category: cat, Severity: sev, Suggestion: suggestion}
}

func TestNew_ValidRules(t *testing.T) {
	cat, err := New([]types.Rule{
		rule("gender.he", "He", types.CategoryGender, types.SeverityMedium, "They"),
		rule("cultural.rock-star", "rock star", types.CategoryCultural, types.SeverityMedium, "skilled"),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, cat.Len())
	assert.Equal(t, []types.Category{types.CategoryCultural, types.CategoryGender}, cat.Categories())
	assert.Len(t, cat.Version(), versionLength)

	r, ok := cat.Rule("gender.he")
	require.True(t, ok)
	assert.Equal(t, "He", r.Pattern)

	_, ok = cat.Rule("missing")
	assert.False(t, ok)
}

func TestNew_InvalidRules(t *testing.T) {
	tests := []struct {
		name      string
		rule      types.Rule
		wantField string
	}{
		{
			name:      "empty pattern",
			rule:      rule("a", "", types.CategoryAge, types.SeverityLow, "x"),
			wantField: "pattern",
		},
		{
			name:      "whitespace pattern",
			rule:      rule("a", "   ", types.CategoryAge, types.SeverityLow, "x"),
			wantField: "pattern",
		},
		{
			name:      "unknown severity",
			rule:      rule("a", "young", types.CategoryAge, types.Severity("critical"), "x"),
			wantField: "severity",
		},
		{
			name:      "empty suggestion",
			rule:      rule("a", "young", types.CategoryAge, types.SeverityLow, ""),
			wantField: "suggestion",
		},
		{
			name:      "malformed category",
			rule:      rule("a", "young", types.Category("Age Bias"), types.SeverityLow, "x"),
			wantField: "category",
		},
		{
			name:      "missing id",
			rule:      rule("", "young", types.CategoryAge, types.SeverityLow, "x"),
			wantField: "id",
		},
		{
			name: "unknown generator",
			rule: types.Rule{
				ID: "a", Pattern: "young", Category: types.CategoryAge,
				Severity: types.SeverityLow, Suggestion: "x", Generator: "shout",
			},
			wantField: "generator",
		},
		{
			name: "expand on literal rule",
			rule: types.Rule{
				ID: "a", Pattern: "young", Category: types.CategoryAge,
				Severity: types.SeverityLow, Suggestion: "x", Generator: types.GeneratorExpand,
			},
			wantField: "generator",
		},
		{
			name: "bad regex",
			rule: types.Rule{
				ID: "a", Pattern: "(young", Regex: true, Category: types.CategoryAge,
				Severity: types.SeverityLow, Suggestion: "x",
			},
			wantField: "pattern",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, err := New([]types.Rule{tt.rule})
			require.Error(t, err)
			assert.Nil(t, cat)

			var ruleErr *InvalidRuleError
			require.True(t, errors.As(err, &ruleErr), "expected InvalidRuleError, got %T", err)
			assert.Equal(t, tt.wantField, ruleErr.Field)
		})
	}
}

func TestNew_RemoveGeneratorAllowsEmptySuggestion(t *testing.T) {
	_, err := New([]types.Rule{{
		ID: "other.very", Pattern: "very", Category: types.CategoryOther,
		Severity: types.SeverityLow, Generator: types.GeneratorRemove,
	}})
	assert.NoError(t, err)
}

func TestNew_DuplicateID(t *testing.T) {
	_, err := New([]types.Rule{
		rule("dup", "guys", types.CategoryGender, types.SeverityMedium, "everyone"),
		rule("dup", "ninja", types.CategoryCultural, types.SeverityLow, "expert"),
	})
	var ruleErr *InvalidRuleError
	require.True(t, errors.As(err, &ruleErr))
	assert.Equal(t, "dup", ruleErr.RuleID)
	assert.Contains(t, ruleErr.Error(), "duplicate")
}

func TestVersion_ContentAddressed(t *testing.T) {
	rules := []types.Rule{rule("gender.guys", "guys", types.CategoryGender, types.SeverityMedium, "everyone")}
	a, err := New(rules)
	require.NoError(t, err)
	b, err := New(rules)
	require.NoError(t, err)
	assert.Equal(t, a.Version(), b.Version())

	rules[0].Severity = types.SeverityHigh
	c, err := New(rules)
	require.NoError(t, err)
	assert.NotEqual(t, a.Version(), c.Version())
}

func TestRules_ReturnsCopy(t *testing.T) {
	cat, err := New([]types.Rule{rule("gender.guys", "guys", types.CategoryGender, types.SeverityMedium, "everyone")})
	require.NoError(t, err)

	rules := cat.Rules()
	rules[0].Pattern = "mutated"

	r, _ := cat.Rule("gender.guys")
	assert.Equal(t, "guys", r.Pattern)
}

func TestParse_JSON(t *testing.T) {
	doc := `{
		"categories": {
			"gender": [
				{"pattern": "guys", "severity": "medium", "suggestion": "team members", "rationale": "mixed groups"}
			],
			"age": [
				{"id": "age.young", "pattern": "young and energetic", "severity": "high", "suggestion": "motivated"}
			]
		}
	}`
	cat, err := Parse([]byte(doc), FormatJSON)
	require.NoError(t, err)

	rules := cat.Rules()
	require.Len(t, rules, 2)
	// categories are sorted by name
	assert.Equal(t, "age.young", rules[0].ID)
	assert.Equal(t, "gender.guys", rules[1].ID)
	assert.Equal(t, "mixed groups", rules[1].Rationale)
}

func TestParse_YAML(t *testing.T) {
	doc := `
categories:
  cultural:
    - pattern: rock star
      severity: medium
      suggestion: skilled
    - pattern: '(\w+) ninja'
      regex: true
      severity: low
      suggestion: $1 expert
      generator: expand
`
	cat, err := Parse([]byte(doc), FormatYAML)
	require.NoError(t, err)
	require.Equal(t, 2, cat.Len())

	r, ok := cat.Rule("cultural.rock-star")
	require.True(t, ok)
	assert.Equal(t, types.SeverityMedium, r.Severity)
}

func TestParse_SchemaViolation(t *testing.T) {
	_, err := Parse([]byte(`{"categories": {"age": [{"pattern": 5}]}}`), FormatJSON)
	require.Error(t, err)

	var loadErr *LoadError
	assert.True(t, errors.As(err, &loadErr))
}

func TestParse_InvalidRuleSurfaces(t *testing.T) {
	_, err := Parse([]byte(`{"categories": {"age": [{"pattern": "young", "severity": "extreme", "suggestion": "x"}]}}`), FormatJSON)
	var ruleErr *InvalidRuleError
	require.True(t, errors.As(err, &ruleErr))
	assert.Equal(t, "age.young", ruleErr.RuleID)
	assert.Equal(t, "severity", ruleErr.Field)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yml")
	require.NoError(t, os.WriteFile(path, []byte("categories:\n  gender:\n    - pattern: guys\n      severity: medium\n      suggestion: folks\n"), 0644))

	cat, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, cat.Len())

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Contains(t, loadErr.Path, "missing.json")
}

func TestDefault(t *testing.T) {
	cat := Default()
	require.NotNil(t, cat)
	assert.Greater(t, cat.Len(), 10)
	assert.Equal(t, []types.Category{
		types.CategoryAge, types.CategoryCultural, types.CategoryGender, types.CategoryRacial,
	}, cat.Categories())

	_, ok := cat.Rule("racial.native-english-speaker")
	assert.True(t, ok)
	assert.Same(t, cat, Default())
}

func TestHolder_Reload(t *testing.T) {
	h := NewHolder(Default())
	before := h.Load()

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"categories": {"age": [{"pattern": ""}]}}`), 0644))
	_, err := h.Reload(bad)
	require.Error(t, err)
	assert.Same(t, before, h.Load(), "failed reload must keep the old catalog")

	good := filepath.Join(dir, "good.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"categories": {"age": [{"pattern": "young", "severity": "low", "suggestion": "new"}]}}`), 0644))
	cat, err := h.Reload(good)
	require.NoError(t, err)
	assert.Same(t, cat, h.Load())
	assert.NotEqual(t, before.Version(), cat.Version())
}

func TestNeedsContext(t *testing.T) {
	tests := []struct {
		pattern string
		regex   bool
		want    bool
	}{
		{pattern: "rock star", want: false},
		{pattern: `\d+ years young`, regex: true, want: false},
		{pattern: `young$`, regex: true, want: false},
		{pattern: `^young`, regex: true, want: true},
		{pattern: `\Ayoung`, regex: true, want: true},
		{pattern: `(?m)^young`, regex: true, want: true},
		{pattern: `old|\byoung`, regex: true, want: true},
		{pattern: `\Byoung`, regex: true, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			cat, err := New([]types.Rule{{
				ID: "age.r", Pattern: tt.pattern, Regex: tt.regex,
				Category: types.CategoryAge, Severity: types.SeverityLow, Suggestion: "x",
			}})
			require.NoError(t, err)
			assert.Equal(t, tt.want, cat.NeedsContext(0))
		})
	}
}
