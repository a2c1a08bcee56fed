package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"vprintf/internal/diag"
	"vprintf/internal/expand"
	"vprintf/internal/fix"
)

var fixCmd = &cobra.Command{
	Use:   "fix [flags] <file.go|directory>...",
	Short: "Apply suggested fixes (portable size prefixes, missing build constraints)",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFix,
}

func init() {
	fixCmd.Flags().Bool("all", false, "apply every available fix")
	fixCmd.Flags().String("id", "", "apply only the fix with this id (see --list)")
	fixCmd.Flags().Bool("list", false, "list available fixes without applying them")
	fixCmd.Flags().Bool("dry-run", false, "report what would change without writing files")
	fixCmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
}

func runFix(cmd *cobra.Command, args []string) error {
	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return fmt.Errorf("failed to get all flag: %w", err)
	}
	id, err := cmd.Flags().GetString("id")
	if err != nil {
		return fmt.Errorf("failed to get id flag: %w", err)
	}
	list, err := cmd.Flags().GetBool("list")
	if err != nil {
		return fmt.Errorf("failed to get list flag: %w", err)
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return fmt.Errorf("failed to get dry-run flag: %w", err)
	}
	if all && id != "" {
		return errors.New("--all and --id cannot be used together")
	}

	setup, err := readExpandSetup(cmd)
	if err != nil {
		return err
	}
	x, err := expand.New(setup.cfg, setup.opts)
	if err != nil {
		return err
	}
	fs, results, err := x.Run(cmd.Context(), args)
	if err != nil {
		return err
	}
	bag := mergeBags(results)
	out := cmd.OutOrStdout()

	if list {
		n := 0
		for _, d := range bag.Items() {
			for i, f := range d.Fixes {
				start, _ := fs.Resolve(d.Primary)
				fmt.Fprintf(out, "%s  %s:%d:%d  %s\n", fix.ID(d, i), fs.Get(d.Primary.File).Path, start.Line, start.Col, f.Title)
				n++
			}
		}
		if n == 0 && !quiet(cmd) {
			fmt.Fprintln(out, "no fixes available")
		}
		return nil
	}

	opts := fix.ApplyOptions{Mode: fix.ApplyModeOnce, DryRun: dryRun}
	switch {
	case all:
		opts.Mode = fix.ApplyModeAll
	case id != "":
		opts.Mode = fix.ApplyModeID
		opts.TargetID = id
	}
	res, err := fix.Apply(fs, bag.Items(), opts)
	if errors.Is(err, fix.ErrNoFixes) {
		reportSkipped(cmd, res.Skipped)
		if !quiet(cmd) {
			fmt.Fprintln(out, err.Error())
		}
		return nil
	}
	if err != nil {
		return err
	}

	verb := "fixed"
	if dryRun {
		verb = "would fix"
	}
	for _, a := range res.Applied {
		fmt.Fprintf(out, "%s %s: %s (%s)\n", verb, a.PrimaryPath, a.Title, a.Code.ID())
	}
	reportSkipped(cmd, res.Skipped)
	if !quiet(cmd) {
		for _, c := range res.FileChanges {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d edit(s)\n", c.Path, c.EditCount)
		}
	}
	// оставшиеся ошибки без исправлений всё ещё ломают сборку
	if remaining := unfixable(bag.Items()); remaining > 0 && !quiet(cmd) {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d error(s) have no automatic fix\n", remaining)
	}
	return nil
}

func reportSkipped(cmd *cobra.Command, skipped []fix.SkippedFix) {
	for _, s := range skipped {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %s\n", s.ID, s.Reason)
	}
}

func unfixable(items []*diag.Diagnostic) int {
	n := 0
	for _, d := range items {
		if d.Severity >= diag.SevError && len(d.Fixes) == 0 {
			n++
		}
	}
	return n
}
