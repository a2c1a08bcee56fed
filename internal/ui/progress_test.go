package ui

import (
	"strings"
	"testing"

	"vprintf/internal/pipeline"
)

func TestApplyEventUpdatesStatus(t *testing.T) {
	ch := make(chan pipeline.Event)
	m := NewProgressModel("generate", []string{"a.go", "b.go"}, ch).(*progressModel)

	m.applyEvent(pipeline.Event{File: "a.go", Stage: pipeline.StageResolve, Status: pipeline.StatusWorking})
	m.applyEvent(pipeline.Event{File: "b.go", Stage: pipeline.StageCache, Status: pipeline.StatusDone})
	m.applyEvent(pipeline.Event{File: "zzz.go", Stage: pipeline.StageScan, Status: pipeline.StatusWorking})
	m.applyEvent(pipeline.Event{Stage: pipeline.StageWrite, Status: pipeline.StatusWorking})

	if m.items[0].status != "resolving" || m.items[1].status != "cached" {
		t.Fatalf("unexpected statuses %+v", m.items)
	}
	if got := m.percent(); got != 0.75 {
		t.Fatalf("percent = %v, want 0.75", got)
	}
	if m.stageLabel != "writing" {
		t.Fatalf("stage label = %q", m.stageLabel)
	}
	view := m.View()
	if !strings.Contains(view, "a.go") || !strings.Contains(view, "generate (writing)") {
		t.Fatalf("unexpected view:\n%s", view)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("kernels/very/long/path.go", 10); got != "kernels..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("short.go", 20); got != "short.go" {
		t.Fatalf("truncate = %q", got)
	}
}
