package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"vprintf/internal/layout"
	"vprintf/internal/printf"
)

var layoutCmd = &cobra.Command{
	Use:   "layout [flags] <format>",
	Short: "Show the packed argument record for a format string",
	Args:  cobra.ExactArgs(1),
	RunE:  runLayout,
}

func init() {
	layoutCmd.Flags().String("target", "", "layout target ("+strings.Join(layout.TargetNames(), "|")+"; default from config)")
	layoutCmd.Flags().String("format", "pretty", "output format (pretty|json|yaml|c)")
	layoutCmd.Flags().String("name", "vprintf_args", "struct name for --format c")
}

func runLayout(cmd *cobra.Command, args []string) error {
	targetName, err := cmd.Flags().GetString("target")
	if err != nil {
		return fmt.Errorf("failed to get target flag: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	name, err := cmd.Flags().GetString("name")
	if err != nil {
		return fmt.Errorf("failed to get name flag: %w", err)
	}
	if targetName == "" {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		targetName = cfg.Target.Name
	}
	target, err := layout.TargetByName(targetName)
	if err != nil {
		return err
	}
	eng, err := layout.New(target)
	if err != nil {
		return err
	}

	specs, err := printf.Scan(args[0])
	if err != nil {
		var pe *printf.ParseError
		if errors.As(err, &pe) {
			return fmt.Errorf("%s %s", pe.Kind.Code().ID(), pe.Error())
		}
		return err
	}
	l, err := eng.LayoutOf(printf.Types(specs))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch format {
	case "pretty":
		renderLayoutPretty(out, l, useColor(cmd))
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(l)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(l); err != nil {
			return err
		}
		return enc.Close()
	case "c":
		_, err := io.WriteString(out, l.CDecl(name))
		return err
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	return nil
}

var (
	layoutTitleStyle  = lipgloss.NewStyle().Bold(true)
	layoutHeaderStyle = lipgloss.NewStyle().Faint(true)
)

func renderLayoutPretty(w io.Writer, l layout.RecordLayout, color bool) {
	title := fmt.Sprintf("%s: size %d, align %d", l.Target, l.Size, l.Align)
	header := fmt.Sprintf("  %-3s %-6s %6s %5s %5s", "#", "type", "offset", "size", "align")
	if color {
		title = layoutTitleStyle.Render(title)
		header = layoutHeaderStyle.Render(header)
	}
	fmt.Fprintln(w, title)
	if len(l.Fields) == 0 {
		fmt.Fprintln(w, "  (empty record)")
		return
	}
	fmt.Fprintln(w, header)
	for i, f := range l.Fields {
		fmt.Fprintf(w, "  %-3d %-6s %6d %5d %5d\n", i, f.Type, f.Offset, f.Size, f.Align)
	}
}
