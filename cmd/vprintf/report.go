package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"vprintf/internal/config"
	"vprintf/internal/diag"
	"vprintf/internal/diagfmt"
	"vprintf/internal/expand"
	"vprintf/internal/source"
	"vprintf/internal/version"
)

// expandSetup bundles what every expanding command hands to expand.New.
type expandSetup struct {
	cfg  config.Config
	opts expand.Options
}

type reportOptions struct {
	format    string
	pathMode  diagfmt.PathMode
	color     bool
	showNotes bool
	showFixes bool
	preview   bool
	// warningsAsErrors makes any warning fail the command.
	warningsAsErrors bool
}

func addReportFlags(cmd *cobra.Command, formats string) {
	cmd.Flags().String("format", "pretty", "diagnostics format ("+formats+")")
	cmd.Flags().String("path-mode", "auto", "how paths are printed (auto|absolute|relative|basename)")
	cmd.Flags().Bool("no-notes", false, "omit diagnostic notes")
	cmd.Flags().Bool("suggest", false, "include fix suggestions")
	cmd.Flags().Bool("preview", false, "preview fix edits (implies --suggest)")
	cmd.Flags().Bool("warnings-as-errors", false, "treat warnings as errors")
}

func readReportOptions(cmd *cobra.Command) (reportOptions, error) {
	var opts reportOptions
	var err error
	if opts.format, err = cmd.Flags().GetString("format"); err != nil {
		return opts, fmt.Errorf("failed to get format flag: %w", err)
	}
	switch opts.format {
	case "pretty", "short", "json", "sarif":
	default:
		return opts, fmt.Errorf("unknown format: %s", opts.format)
	}
	modeStr, err := cmd.Flags().GetString("path-mode")
	if err != nil {
		return opts, fmt.Errorf("failed to get path-mode flag: %w", err)
	}
	mode, ok := diagfmt.ParsePathMode(modeStr)
	if !ok {
		return opts, fmt.Errorf("unknown path mode: %s", modeStr)
	}
	opts.pathMode = mode
	noNotes, err := cmd.Flags().GetBool("no-notes")
	if err != nil {
		return opts, fmt.Errorf("failed to get no-notes flag: %w", err)
	}
	opts.showNotes = !noNotes
	if opts.showFixes, err = cmd.Flags().GetBool("suggest"); err != nil {
		return opts, fmt.Errorf("failed to get suggest flag: %w", err)
	}
	if opts.preview, err = cmd.Flags().GetBool("preview"); err != nil {
		return opts, fmt.Errorf("failed to get preview flag: %w", err)
	}
	opts.showFixes = opts.showFixes || opts.preview
	if opts.warningsAsErrors, err = cmd.Flags().GetBool("warnings-as-errors"); err != nil {
		return opts, fmt.Errorf("failed to get warnings-as-errors flag: %w", err)
	}
	opts.color = useColor(cmd)
	return opts, nil
}

// mergeBags collects every file's diagnostics into one sorted bag.
func mergeBags(results []expand.FileResult) *diag.Bag {
	all := diag.NewBag(0)
	for _, r := range results {
		all.Merge(r.Bag)
	}
	all.Sort()
	all.Dedup()
	return all
}

// failed reports whether bag should make the command exit non-zero.
func (o reportOptions) failed(bag *diag.Bag) bool {
	for _, d := range bag.Items() {
		if d.Severity.Blocks(o.warningsAsErrors) {
			return true
		}
	}
	return false
}

func renderDiagnostics(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts reportOptions, args []string) error {
	switch opts.format {
	case "pretty":
		diagfmt.Pretty(w, bag, fs, diagfmt.PrettyOpts{
			Color:       opts.color,
			Context:     2,
			PathMode:    opts.pathMode,
			ShowNotes:   opts.showNotes,
			ShowFixes:   opts.showFixes,
			ShowPreview: opts.preview,
		})
	case "short":
		diagfmt.Short(w, bag, fs, opts.pathMode)
	case "json":
		err := diagfmt.JSON(w, bag, fs, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         opts.pathMode,
			IncludeNotes:     opts.showNotes,
			IncludeFixes:     opts.showFixes,
			IncludePreviews:  opts.preview,
		})
		if err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
	case "sarif":
		meta := diagfmt.SarifRunMeta{
			ToolName:       "vprintf",
			ToolVersion:    version.Version,
			InvocationArgs: args,
		}
		if err := diagfmt.Sarif(w, bag, fs, meta); err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
	default:
		return fmt.Errorf("unknown format: %s", opts.format)
	}
	return nil
}
