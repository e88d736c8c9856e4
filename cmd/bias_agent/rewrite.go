package main

import (
	"context"
	"fmt"

	"github.com/jonathan/bias-detector/internal/observability"
	"github.com/jonathan/bias-detector/internal/rewriting"
	"github.com/jonathan/bias-detector/internal/session"
	"github.com/jonathan/bias-detector/internal/types"
	"github.com/spf13/cobra"
)

var rewriteCmd = &cobra.Command{
	Use:   "rewrite [file]",
	Short: "Replace biased phrases with their suggested alternatives",
	Long: "Scans the input (a file, or stdin), accepts the selected findings and writes the rewritten text. " +
		"Without --accept every finding is accepted. Overlapping findings fail the rewrite unless --skip-conflicts is set.",
	Args: cobra.MaximumNArgs(1),
	RunE: runRewrite,
}

var (
	rewriteAccept        []string
	rewriteIgnore        []string
	rewriteSkipConflicts bool
	rewriteOutputFile    string
)

func init() {
	rewriteCmd.Flags().StringSliceVar(&rewriteAccept, "accept", nil, "Accept only findings with these rule ids, stable ids or categories")
	rewriteCmd.Flags().StringSliceVar(&rewriteIgnore, "ignore", nil, "Ignore findings with these rule ids, stable ids or categories")
	rewriteCmd.Flags().BoolVar(&rewriteSkipConflicts, "skip-conflicts", false, "Apply the non-overlapping findings and report the rest")
	rewriteCmd.Flags().StringVarP(&rewriteOutputFile, "out", "o", "", "Write the rewritten text to this file instead of stdout")

	rootCmd.AddCommand(rewriteCmd)
}

func runRewrite(cmd *cobra.Command, args []string) error {
	st, err := loadSettings()
	if err != nil {
		return err
	}

	path := ""
	if len(args) == 1 {
		path = args[0]
	}
	text, err := readInput(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	sess := session.New(st.catalog, st.scorer, session.Options{Verbose: st.cfg.Verbose})
	before, err := sess.SetText(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to analyze input: %w", err)
	}

	selectIssues(sess, before.Issues, rewriteAccept, rewriteIgnore)

	var conflicts []rewriting.Conflict
	var rewritten string
	if rewriteSkipConflicts {
		rewritten, conflicts, err = sess.RewriteNonConflicting()
	} else {
		rewritten, err = sess.Rewrite()
	}
	if err != nil {
		return fmt.Errorf("failed to rewrite: %w (use --skip-conflicts to apply the rest)", err)
	}

	if st.cfg.Verbose {
		printer := observability.NewPrinter(cmd.ErrOrStderr())
		printer.PrintAnalysis("BEFORE", sess.Result())
		printer.PrintRewrite(rewritten, conflicts)
		after, err := sess.SetText(ctx, rewritten)
		if err != nil {
			return fmt.Errorf("failed to analyze rewritten text: %w", err)
		}
		printer.PrintAnalysis("AFTER", after)
	} else if len(conflicts) > 0 {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: skipped %d overlapping edit(s)\n", len(conflicts))
	}

	if rewriteOutputFile != "" {
		if err := writeOutput(rewriteOutputFile, []byte(rewritten)); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Successfully wrote rewritten text to %s\n", rewriteOutputFile)
		return nil
	}
	_, _ = fmt.Fprint(cmd.OutOrStdout(), rewritten)
	return nil
}

// selectIssues applies --accept and --ignore. Ignore wins when both name an
// issue.
func selectIssues(sess *session.Session, issues []types.Issue, accept, ignore []string) {
	if len(accept) == 0 {
		sess.AcceptAll()
	} else {
		for _, issue := range issues {
			if selects(issue, accept) {
				sess.AcceptIssue(issue.StableID)
			}
		}
	}
	for _, issue := range issues {
		if selects(issue, ignore) {
			sess.IgnoreIssue(issue.StableID)
		}
	}
}

func selects(issue types.Issue, keys []string) bool {
	for _, k := range keys {
		if k == issue.StableID || k == issue.Match.RuleID || k == string(issue.Match.Category) {
			return true
		}
	}
	return false
}
