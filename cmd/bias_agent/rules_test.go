package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonathan/bias-detector/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRulesListCommand(t *testing.T) {
	res := runCLI(t, "", "rules", "list")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "ID")
	assert.Contains(t, res.stdout, "gender.he")
	assert.Contains(t, res.stdout, "preserve-case")
	assert.Contains(t, res.stdout, "rule(s), catalog ")
}

func TestRulesListCommand_CategoryJSON(t *testing.T) {
	res := runCLI(t, "", "rules", "list", "--category", "racial", "--json")
	require.NoError(t, res.err)

	var rules []types.Rule
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &rules))
	require.NotEmpty(t, rules)
	for _, rule := range rules {
		assert.Equal(t, types.CategoryRacial, rule.Category)
	}
}

func TestRulesValidateCommand(t *testing.T) {
	tmpDir := t.TempDir()
	valid := filepath.Join(tmpDir, "valid.yaml")
	require.NoError(t, os.WriteFile(valid, []byte(`categories:
  gender:
    - pattern: guys
      severity: medium
      suggestion: folks
`), 0644))
	invalid := filepath.Join(tmpDir, "invalid.json")
	require.NoError(t, os.WriteFile(invalid, []byte(`{"categories": {"gender": [
		{"pattern": "guys", "severity": "extreme", "suggestion": "folks"}
	]}}`), 0644))

	res := runCLI(t, "", "rules", "validate", valid)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "is valid: 1 rule(s) in 1 categories")

	res = runCLI(t, "", "rules", "validate", invalid)
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "gender.guys")

	res = runCLI(t, "", "rules", "validate")
	assert.Error(t, res.err)
}

func TestRulesExportCommand_RoundTrips(t *testing.T) {
	res := runCLI(t, "", "rules", "export")
	require.NoError(t, res.err)

	exported := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(exported, []byte(res.stdout), 0644))

	res = runCLI(t, "", "rules", "validate", exported)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "is valid")
}
