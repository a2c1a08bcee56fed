package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"vprintf/internal/expand"
	"vprintf/internal/pipeline"
	"vprintf/internal/source"
	"vprintf/internal/trace"
)

var generateCmd = &cobra.Command{
	Use:   "generate [flags] <file.go|directory>...",
	Short: "Expand Printf call sites into generated files",
	Long: `Generate rewrites every file carrying the build tag into a sibling file
with the configured suffix. Outputs are cached per input content and
settings; a file is only rewritten when its content changes.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	addReportFlags(generateCmd, "pretty|short|json|sarif")
	generateCmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
	generateCmd.Flags().Bool("no-cache", false, "bypass the disk cache")
	generateCmd.Flags().Bool("stdout", false, "print generated sources instead of writing files")
	generateCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
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
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	toStdout, err := cmd.Flags().GetBool("stdout")
	if err != nil {
		return fmt.Errorf("failed to get stdout flag: %w", err)
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}

	stderr := cmd.ErrOrStderr()
	timings := &pipeline.Timings{}
	setup.opts.Timings = timings
	setup.opts.Write = !toStdout
	if !noCache && !setup.cfg.NoCache {
		cache, err := expand.OpenDiskCache("vprintf", setup.cfg.CacheDir)
		if err != nil {
			// без кэша тоже работаем
			fmt.Fprintf(stderr, "warning: disk cache disabled: %v\n", err)
		} else {
			setup.opts.Cache = cache
		}
	}

	span := trace.Begin(trace.FromContext(cmd.Context()), trace.ScopeDriver, "generate", 0)
	ctx := trace.WithSpanContext(cmd.Context(), trace.SpanContext{SpanID: span.ID()})
	started := time.Now()

	var (
		fs      *source.FileSet
		results []expand.FileResult
	)
	inputs, err := expand.Collect(args, setup.cfg.Generate.Suffix)
	if err != nil {
		span.End("failed")
		return err
	}
	if !toStdout && shouldUseTUI(mode, len(inputs)) {
		files := make([]string, len(inputs))
		for i, in := range inputs {
			files[i] = in.Path
		}
		fs, results, err = runWithUI(ctx, "generate", files, setup, args)
	} else {
		var x *expand.Expander
		if x, err = expand.New(setup.cfg, setup.opts); err != nil {
			span.End("failed")
			return err
		}
		fs, results, err = x.Run(ctx, args)
	}
	if err != nil {
		span.End("failed")
		return err
	}
	wall := time.Since(started)
	bag := mergeBags(results)
	span.End(fmt.Sprintf("files=%d diagnostics=%d", len(results), bag.Len()))

	// при --stdout диагностика уходит в stderr, чтобы не смешиваться с кодом
	diagOut := cmd.OutOrStdout()
	if toStdout {
		diagOut = stderr
		if err := printOutputs(cmd.OutOrStdout(), results); err != nil {
			return err
		}
	}
	if err := renderDiagnostics(diagOut, bag, fs, ropts, os.Args[1:]); err != nil {
		return err
	}

	if !quiet(cmd) && ropts.format == "pretty" {
		fmt.Fprintln(stderr, summarize(results, toStdout))
	}
	if showTimings {
		printStageTimings(stderr, stageTimer(timings), len(results), wall)
	}
	if ropts.failed(bag) {
		dumpTraceRing(cmd, stderr)
		return errHasDiagnostics
	}
	return nil
}

func printOutputs(w io.Writer, results []expand.FileResult) error {
	for _, r := range results {
		if r.Output == nil {
			continue
		}
		if _, err := w.Write(r.Output); err != nil {
			return err
		}
	}
	return nil
}

func summarize(results []expand.FileResult, toStdout bool) string {
	var generated, cached, written, skipped, failed, calls int
	for _, r := range results {
		switch {
		case r.Failed():
			failed++
			continue
		case r.Skipped:
			skipped++
			continue
		}
		generated++
		calls += r.Calls
		if r.Cached {
			cached++
		}
		if r.Written {
			written++
		}
	}
	msg := fmt.Sprintf("generated %d file(s), %d call site(s)", generated, calls)
	if !toStdout {
		msg += fmt.Sprintf(", %d written", written)
	}
	if cached > 0 {
		msg += fmt.Sprintf(", %d cached", cached)
	}
	if skipped > 0 {
		msg += fmt.Sprintf(", %d skipped", skipped)
	}
	if failed > 0 {
		msg += fmt.Sprintf(", %d failed", failed)
	}
	return msg
}
