// Package pipeline defines the stages a file goes through during expansion
// and the progress events reported for them.
package pipeline

import (
	"sync"
	"time"
)

// Stage describes one step of expanding a file.
type Stage string

const (
	StageLoad    Stage = "load"
	StageScan    Stage = "scan"    // parse the Go file and find call sites
	StageResolve Stage = "resolve" // check formats and arity
	StageEmit    Stage = "emit"
	StageWrite   Stage = "write"
	StageCache   Stage = "cache" // served from the disk cache
)

// AllStages lists stages in execution order.
var AllStages = []Stage{StageLoad, StageScan, StageResolve, StageEmit, StageWrite}

// Status captures progress state within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress for a file (or for the whole run when File is empty).
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. Implementations must be safe for
// concurrent use; workers report from several goroutines.
type ProgressSink interface {
	OnEvent(Event)
}

// Timings accumulates stage durations across files.
type Timings struct {
	mu     sync.Mutex
	stages map[Stage]time.Duration
}

// Add adds dur to stage.
func (t *Timings) Add(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stages == nil {
		t.stages = make(map[Stage]time.Duration)
	}
	t.stages[stage] += dur
}

// Has reports whether a duration for stage is recorded.
func (t *Timings) Has(stage Stage) bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.stages[stage]
	return ok
}

func (t *Timings) Duration(stage Stage) time.Duration {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stages[stage]
}

// Sum returns the sum of durations across the provided stages.
func (t *Timings) Sum(stages ...Stage) time.Duration {
	var total time.Duration
	for _, stage := range stages {
		total += t.Duration(stage)
	}
	return total
}
