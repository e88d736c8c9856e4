package main

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/jonathan/bias-detector/internal/observability"
	"github.com/jonathan/bias-detector/internal/session"
	"github.com/jonathan/bias-detector/internal/types"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [files...]",
	Short: "Scan text files for biased language and score them",
	Long: "Scans each input file (or stdin when none is given) with the rule catalog and reports " +
		"the diversity score and findings. Files are analyzed in parallel.",
	RunE: runAnalyze,
}

var (
	analyzeOutputFile  string
	analyzeJSON        bool
	analyzeFailUnder   int
	analyzeConcurrency int
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOutputFile, "out", "o", "", "Write the analysis results as JSON to this file")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print results as JSON instead of a summary")
	analyzeCmd.Flags().IntVar(&analyzeFailUnder, "fail-under", 0, "Exit with an error if any score is below this value")
	analyzeCmd.Flags().IntVar(&analyzeConcurrency, "concurrency", runtime.NumCPU(), "Maximum files analyzed at once")

	rootCmd.AddCommand(analyzeCmd)
}

// FileAnalysis is the result for one input
type FileAnalysis struct {
	File   string                `json:"file"`
	Result *types.AnalysisResult `json:"result"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	st, err := loadSettings()
	if err != nil {
		return err
	}

	inputs := args
	if len(inputs) == 0 {
		inputs = []string{"-"}
	}

	analyses, err := analyzeFiles(cmd.Context(), cmd, st, inputs)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if analyzeOutputFile != "" {
		jsonBytes, err := json.MarshalIndent(analyses, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		if err := writeOutput(analyzeOutputFile, jsonBytes); err != nil {
			return err
		}
	}

	if analyzeJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(analyses); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
	} else {
		printer := observability.NewPrinter(out)
		for _, a := range analyses {
			if st.cfg.Verbose {
				printer.PrintAnalysis(a.File, a.Result)
				continue
			}
			_, _ = fmt.Fprintf(out, "%s: score %d (%d issue(s))\n", a.File, a.Result.Score.DiversityScore, len(a.Result.Issues))
		}
	}

	if analyzeOutputFile != "" {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Successfully wrote %d analysis result(s) to %s\n", len(analyses), analyzeOutputFile)
	}

	if analyzeFailUnder > 0 {
		for _, a := range analyses {
			if a.Result.Score.DiversityScore < analyzeFailUnder {
				return fmt.Errorf("%s scored %d, below --fail-under %d", a.File, a.Result.Score.DiversityScore, analyzeFailUnder)
			}
		}
	}
	return nil
}

// analyzeFiles scans every input in parallel and returns the results in
// input order. Each input gets its own session.
func analyzeFiles(ctx context.Context, cmd *cobra.Command, st *settings, inputs []string) ([]FileAnalysis, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	texts := make([]string, len(inputs))
	for i, in := range inputs {
		text, err := readInput(cmd.InOrStdin(), in)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", in, err)
		}
		texts[i] = text
	}

	analyses := make([]FileAnalysis, len(inputs))
	g, gCtx := errgroup.WithContext(ctx)
	if analyzeConcurrency > 0 {
		g.SetLimit(analyzeConcurrency)
	}
	for i := range inputs {
		g.Go(func() error {
			sess := session.New(st.catalog, st.scorer, session.Options{InclusiveMode: st.cfg.InclusiveMode})
			result, err := sess.SetText(gCtx, texts[i])
			if err != nil {
				return fmt.Errorf("failed to analyze %s: %w", inputs[i], err)
			}
			name := inputs[i]
			if name == "-" {
				name = "stdin"
			}
			analyses[i] = FileAnalysis{File: name, Result: result}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return analyses, nil
}
