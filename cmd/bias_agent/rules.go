package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/jonathan/bias-detector/internal/catalog"
	"github.com/jonathan/bias-detector/internal/types"
	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and validate rule catalogs",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the rules of the active catalog",
	Args:  cobra.NoArgs,
	RunE:  runRulesList,
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a rule catalog file without using it",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesValidate,
}

var rulesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the built-in catalog document, as a starting point for a custom catalog",
	Args:  cobra.NoArgs,
	RunE:  runRulesExport,
}

var (
	rulesCategory string
	rulesJSON     bool
)

func init() {
	rulesListCmd.Flags().StringVar(&rulesCategory, "category", "", "Only list rules of this category")
	rulesListCmd.Flags().BoolVar(&rulesJSON, "json", false, "Print rules as JSON")

	rulesCmd.AddCommand(rulesListCmd, rulesValidateCmd, rulesExportCmd)
	rootCmd.AddCommand(rulesCmd)
}

func runRulesList(cmd *cobra.Command, _ []string) error {
	st, err := loadSettings()
	if err != nil {
		return err
	}

	rules := make([]types.Rule, 0, st.catalog.Len())
	for _, rule := range st.catalog.Rules() {
		if rulesCategory == "" || string(rule.Category) == rulesCategory {
			rules = append(rules, rule)
		}
	}

	out := cmd.OutOrStdout()
	if rulesJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rules)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tCATEGORY\tSEVERITY\tPATTERN\tSUGGESTION")
	for _, rule := range rules {
		suggestion := rule.Suggestion
		if rule.Generator != types.GeneratorLiteral {
			suggestion = fmt.Sprintf("%s [%s]", suggestion, rule.Generator)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", rule.ID, rule.Category, rule.Severity, rule.Pattern, suggestion)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write rules: %w", err)
	}
	_, _ = fmt.Fprintf(out, "\n%d rule(s), catalog %s\n", len(rules), st.catalog.Version())
	return nil
}

func runRulesValidate(cmd *cobra.Command, args []string) error {
	cat, err := catalog.LoadFile(args[0])
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✅ %s is valid: %d rule(s) in %d categories, version %s\n",
		args[0], cat.Len(), len(cat.Categories()), cat.Version())
	return nil
}

func runRulesExport(cmd *cobra.Command, _ []string) error {
	_, err := cmd.OutOrStdout().Write(catalog.DefaultDocument())
	return err
}
