package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"vprintf/internal/diag"
	"vprintf/internal/diagfmt"
	"vprintf/internal/printf"
	"vprintf/internal/source"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <format>",
	Short: "Check a single format string",
	Long: `Check resolves the wire types of a printf format string as written in C,
for example 'x=%d name=%s\n' (escape sequences are not decoded).`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().Int("args", -1, "number of arguments supplied (default: as many as the format needs)")
	checkCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

type checkOutput struct {
	OK          bool                      `json:"ok"`
	Types       []printf.WireType         `json:"types"`
	Diagnostics diagfmt.DiagnosticsOutput `json:"diagnostics"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	nargs, err := cmd.Flags().GetInt("args")
	if err != nil {
		return fmt.Errorf("failed to get args flag: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	fs, bag, res := checkFormat(args[0], nargs, cfg.Limits.MaxArgsWarning)
	out := cmd.OutOrStdout()
	switch format {
	case "pretty":
		diagfmt.Pretty(out, bag, fs, diagfmt.PrettyOpts{
			Color:     useColor(cmd),
			Context:   0,
			PathMode:  diagfmt.PathModeBasename,
			ShowNotes: true,
			ShowFixes: true,
		})
		if !bag.HasErrors() && !quiet(cmd) {
			names := make([]string, len(res.Types))
			for i, t := range res.Types {
				names[i] = t.String()
			}
			fmt.Fprintf(out, "ok: %d argument(s)", len(names))
			if len(names) > 0 {
				fmt.Fprintf(out, ": %s", strings.Join(names, ", "))
			}
			fmt.Fprintln(out)
		}
	case "json":
		payload := checkOutput{
			OK:    !bag.HasErrors(),
			Types: res.Types,
			Diagnostics: diagfmt.BuildDiagnosticsOutput(bag, fs, diagfmt.JSONOpts{
				PathMode:     diagfmt.PathModeBasename,
				IncludeNotes: true,
				IncludeFixes: true,
			}),
		}
		if payload.Types == nil {
			payload.Types = []printf.WireType{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(payload); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	if bag.HasErrors() {
		return errHasDiagnostics
	}
	return nil
}

// checkFormat runs the scanner over format held in a virtual file so the
// usual renderers can point into it. nargs < 0 means "whatever the format
// needs".
func checkFormat(format string, nargs, limit int) (*source.FileSet, *diag.Bag, printf.Result) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("<format>", []byte(format))
	bag := diag.NewBag(0)
	r := diag.BagReporter{Bag: bag}

	if nargs < 0 {
		specs, err := printf.Scan(format)
		if err == nil {
			nargs = len(specs)
		}
	}
	whole, _ := source.SpanOf(id, 0, len(format))
	res, err := printf.CheckLimit(format, nargs, limit)

	var pe *printf.ParseError
	var ae *printf.ArityError
	switch {
	case errors.As(err, &pe):
		end := pe.End
		if !pe.HasEnd {
			end = len(format)
		}
		sp, spErr := source.SpanOf(id, pe.Start, end)
		if spErr != nil {
			sp = whole
		}
		b := diag.ReportError(r, pe.Kind.Code(), sp, pe.Error())
		if sugg, ok := pe.Suggestion(); ok {
			b = b.WithSuggestion(sp, pe.Snippet(), sugg)
		}
		b.Emit()
	case errors.As(err, &ae):
		diag.ReportError(r, diag.FmtArityMismatch, whole, ae.Error()).Emit()
	case err == nil && res.TooManyArgs:
		diag.ReportWarning(r, diag.FmtTooManyArgs, whole, printf.TooManyArgsMsg).
			WithNote(whole, "see "+printf.TooManyArgsLink).
			Emit()
	}
	return fs, bag, res
}
