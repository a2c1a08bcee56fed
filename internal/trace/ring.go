package trace

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// RingTracer keeps the last N events in memory for a dump after a failed
// generate run.
type RingTracer struct {
	mu    sync.Mutex
	buf   []Event
	next  int // slot for the next event
	count int
	level Level
}

// NewRingTracer keeps capacity events; 4096 when capacity <= 0.
func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = 4096
	}
	return &RingTracer{buf: make([]Event, capacity), level: level}
}

func (t *RingTracer) Emit(ev *Event) {
	if !t.level.ShouldEmit(ev.Scope) && ev.Kind != KindHeartbeat {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf[t.next] = *ev
	t.buf[t.next].Seq = NextSeq()
	t.next = (t.next + 1) % len(t.buf)
	t.count = min(t.count+1, len(t.buf))
}

// Snapshot returns the stored events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Event, 0, t.count)
	first := (t.next - t.count + len(t.buf)) % len(t.buf)
	for i := range t.count {
		out = append(out, t.buf[(first+i)%len(t.buf)])
	}
	return out
}

// Unfinished returns the files whose expansion began but did not end
// within the kept window, in start order. After a failed or interrupted run
// these are the files to look at first.
func (t *RingTracer) Unfinished() []string {
	var order []uint64
	open := make(map[uint64]string)
	for _, ev := range t.Snapshot() {
		if ev.Scope != ScopeModule {
			continue
		}
		switch ev.Kind {
		case KindSpanBegin:
			order = append(order, ev.SpanID)
			open[ev.SpanID] = ev.Name
		case KindSpanEnd:
			delete(open, ev.SpanID)
		}
	}
	var files []string
	for _, id := range order {
		if name, ok := open[id]; ok {
			files = append(files, name)
		}
	}
	return files
}

// Dump writes the stored events to w. Text dumps start with the unfinished
// files.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	if format != FormatNDJSON {
		if files := t.Unfinished(); len(files) > 0 {
			if _, err := fmt.Fprintf(w, "unfinished: %s\n", strings.Join(files, ", ")); err != nil {
				return err
			}
		}
	}
	for _, ev := range t.Snapshot() {
		if _, err := w.Write(FormatEvent(&ev, format)); err != nil {
			return err
		}
	}
	return nil
}

func (t *RingTracer) Flush() error { return nil }
func (t *RingTracer) Close() error { return nil }
func (t *RingTracer) Level() Level { return t.level }

func (t *RingTracer) Enabled() bool {
	return t.level > LevelOff
}
