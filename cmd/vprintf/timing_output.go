package main

import (
	"fmt"
	"io"
	"time"

	"vprintf/internal/observ"
	"vprintf/internal/pipeline"
)

// stageTimer folds per-file stage durations into a command timer. Stage
// sums add up work across workers, so they can exceed wall time.
func stageTimer(timings *pipeline.Timings) *observ.Timer {
	timer := observ.NewTimer()
	for _, stage := range pipeline.AllStages {
		if timings.Has(stage) {
			timer.Add(string(stage), timings.Duration(stage), "")
		}
	}
	if timings.Has(pipeline.StageCache) {
		timer.Add(string(pipeline.StageCache), timings.Duration(pipeline.StageCache), "cache hits")
	}
	return timer
}

func printStageTimings(out io.Writer, timer *observ.Timer, files int, wall time.Duration) {
	if out == nil || timer == nil {
		return
	}
	fmt.Fprint(out, timer.Summary())
	fmt.Fprintf(out, "  %-20s %7.2f ms  // %d file(s)\n", "wall", observ.DurationToMillis(wall), files)
}
