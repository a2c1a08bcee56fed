package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"vprintf/internal/config"
	"vprintf/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "vprintf",
	Short: "Build-time expander for device printf calls",
	Long: `vprintf rewrites devrt.Printf call sites into packed-record calls of the
device vprintf entry point, checking every format string at build time`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
		if err != nil {
			return err
		}
		switch colorFlag {
		case "auto", "on", "off":
			return nil
		}
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", colorFlag)
	},
}

// exitError carries a process exit code without an extra message; the
// diagnostics were already printed.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

var errHasDiagnostics = &exitError{code: 1}

func init() {
	// Устанавливаем версию для автоматического флага --version
	rootCmd.Version = version.Version

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(layoutCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics per file")
	rootCmd.PersistentFlags().String("config", "", "path to vprintf.toml (default: search upwards from the working directory)")
	rootCmd.PersistentFlags().String("trace", "", "write trace events to this file (- for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	rootCmd.PersistentFlags().String("trace-mode", "ring", "trace storage mode (stream|ring|both)")
	rootCmd.PersistentFlags().Int("trace-ring-size", 4096, "ring buffer capacity for --trace-mode ring")
	rootCmd.PersistentFlags().Duration("trace-heartbeat", 0, "emit heartbeat trace events at this interval (0 disables)")
	rootCmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to this file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write a heap profile to this file on exit")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write a Go runtime trace to this file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintf(os.Stderr, "vprintf: %v\n", err)
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// loadConfig resolves the configuration for the working directory, honouring
// the persistent --config flag.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	explicit, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		return config.Config{}, err
	}
	return config.Load(wd, explicit)
}

func useColor(cmd *cobra.Command) bool {
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false
	}
	return colorFlag == "on" || (colorFlag == "auto" && isTerminal(os.Stdout))
}

func quiet(cmd *cobra.Command) bool {
	q, err := cmd.Root().PersistentFlags().GetBool("quiet")
	return err == nil && q
}
