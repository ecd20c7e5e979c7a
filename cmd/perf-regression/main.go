package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		baselinePath  string
		candidatePath string
		threshold     float64
	)

	cmd := &cobra.Command{
		Use:   "perf-regression",
		Short: "Compare two `go test -bench` outputs and fail on regressions",
		Long: `perf-regression compares the median of each tracked benchmark between a
baseline and a candidate run. It exits non-zero when a median grows by more
than --threshold (0.30 = +30%) or when samples are missing.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if threshold < 0 {
				return errors.New("--threshold must be >= 0")
			}
			baseline, err := parseFile(baselinePath)
			if err != nil {
				return fmt.Errorf("parse baseline: %w", err)
			}
			candidate, err := parseFile(candidatePath)
			if err != nil {
				return fmt.Errorf("parse candidate: %w", err)
			}

			rows, failures := compare(baseline, candidate, threshold)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "perf regression check:")
			fmt.Fprintln(out, "benchmark metric baseline candidate delta")
			for _, r := range rows {
				fmt.Fprintf(out, "%s %s %.3f %.3f %+0.2f%%\n", r.Benchmark, r.Metric, r.Baseline, r.Candidate, r.Delta*100)
			}
			if len(failures) > 0 {
				return fmt.Errorf("performance regression threshold exceeded:\n  - %s", strings.Join(failures, "\n  - "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&baselinePath, "baseline", "", "path to baseline benchmark output")
	cmd.Flags().StringVar(&candidatePath, "candidate", "", "path to candidate benchmark output")
	cmd.Flags().Float64Var(&threshold, "threshold", defaultThreshold, "maximum allowed regression ratio")
	_ = cmd.MarkFlagRequired("baseline")
	_ = cmd.MarkFlagRequired("candidate")
	return cmd
}

func parseFile(path string) (sampleSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseBenchmarks(f)
}
