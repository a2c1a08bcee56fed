package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vprintf/internal/expand"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the generate disk cache",
	Args:  cobra.NoArgs,
	RunE:  runClean,
}

func runClean(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cache, err := expand.OpenDiskCache("vprintf", cfg.CacheDir)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	if err := cache.DropAll(); err != nil {
		return fmt.Errorf("failed to remove %q: %w", cache.Dir(), err)
	}
	if !quiet(cmd) {
		fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", cache.Dir())
	}
	return nil
}
