package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

// cliResult holds the output of one in-process command run
type cliResult struct {
	stdout string
	stderr string
	err    error
}

// runCLI executes rootCmd in-process with args and stdin. Package-level flag
// variables are reset first so runs do not leak into each other.
func runCLI(t *testing.T, stdin string, args ...string) cliResult {
	t.Helper()
	resetFlags()
	t.Setenv("BIAS_CATALOG", "")
	t.Setenv("DATABASE_URL", "")

	var stdout, stderr bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func resetFlags() {
	rootConfigFile = ""
	rootCatalogFile = ""
	rootVerbose = false

	analyzeOutputFile = ""
	analyzeJSON = false
	analyzeFailUnder = 0
	analyzeConcurrency = 2

	rewriteAccept = nil
	rewriteIgnore = nil
	rewriteSkipConflicts = false
	rewriteOutputFile = ""

	rulesCategory = ""
	rulesJSON = false
}
