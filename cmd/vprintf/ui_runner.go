package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"vprintf/internal/expand"
	"vprintf/internal/pipeline"
	"vprintf/internal/source"
	"vprintf/internal/ui"
)

type runOutcome struct {
	fs      *source.FileSet
	results []expand.FileResult
	err     error
}

// runWithUI drives x.Run in the background and renders its progress events
// until the run finishes.
func runWithUI(ctx context.Context, title string, files []string, cfg expandSetup, paths []string) (*source.FileSet, []expand.FileResult, error) {
	events := make(chan pipeline.Event, 256)
	outcomeCh := make(chan runOutcome, 1)

	cfg.opts.Sink = pipeline.ChannelSink{Ch: events}
	x, err := expand.New(cfg.cfg, cfg.opts)
	if err != nil {
		return nil, nil, err
	}

	go func() {
		fs, results, err := x.Run(ctx, paths)
		outcomeCh <- runOutcome{fs: fs, results: results, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.fs, outcome.results, uiErr
	}
	return outcome.fs, outcome.results, outcome.err
}
