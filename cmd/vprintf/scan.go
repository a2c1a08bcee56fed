package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vprintf/internal/expand"
	"vprintf/internal/trace"
)

var scanCmd = &cobra.Command{
	Use:   "scan [flags] <file.go|directory>...",
	Short: "Check every Printf call site without writing output",
	Long: `Scan expands the given files in memory and reports format and call-shape
diagnostics. Directories are walked for files carrying the build tag.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

func init() {
	addReportFlags(scanCmd, "pretty|short|json|sarif")
	scanCmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
}

func runScan(cmd *cobra.Command, args []string) error {
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()

	ropts, err := readReportOptions(cmd)
	if err != nil {
		return err
	}
	setup, err := readExpandSetup(cmd)
	if err != nil {
		return err
	}

	span := trace.Begin(trace.FromContext(cmd.Context()), trace.ScopeDriver, "scan", 0)
	ctx := trace.WithSpanContext(cmd.Context(), trace.SpanContext{SpanID: span.ID()})
	x, err := expand.New(setup.cfg, setup.opts)
	if err != nil {
		return err
	}
	fs, results, err := x.Run(ctx, args)
	if err != nil {
		span.End("failed")
		return err
	}
	bag := mergeBags(results)
	span.End(fmt.Sprintf("files=%d diagnostics=%d", len(results), bag.Len()))

	if err := renderDiagnostics(cmd.OutOrStdout(), bag, fs, ropts, os.Args[1:]); err != nil {
		return err
	}
	if !quiet(cmd) && ropts.format == "pretty" {
		calls := 0
		for _, r := range results {
			calls += r.Calls
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "scanned %d file(s), %d call site(s)\n", len(results), calls)
	}
	if ropts.failed(bag) {
		return errHasDiagnostics
	}
	return nil
}

// readExpandSetup loads the config and folds in the flags shared by scan
// and generate.
func readExpandSetup(cmd *cobra.Command) (expandSetup, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return expandSetup{}, err
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return expandSetup{}, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return expandSetup{}, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if jobs < 0 {
		return expandSetup{}, fmt.Errorf("--jobs must be >= 0, got %d", jobs)
	}
	if jobs == 0 {
		jobs = cfg.Jobs
	}
	return expandSetup{
		cfg:  cfg,
		opts: expand.Options{Jobs: jobs, MaxDiagnostics: maxDiagnostics},
	}, nil
}
