package trace

import (
	"sync"
	"time"
)

// Heartbeat emits a progress event every interval. A heartbeat that keeps
// naming the same in-flight file points at the file the expander is stuck on.
type Heartbeat struct {
	tracer   Tracer
	progress *Progress
	stop     chan struct{}
	done     chan struct{}
	once     sync.Once
}

// StartHeartbeat returns nil when tracing is off or interval <= 0. progress
// may be nil, then only the beat number is reported.
func StartHeartbeat(tracer Tracer, interval time.Duration, progress *Progress) *Heartbeat {
	if tracer == nil || !tracer.Enabled() || interval <= 0 {
		return nil
	}
	h := &Heartbeat{
		tracer:   tracer,
		progress: progress,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go h.run(interval)
	return h
}

func (h *Heartbeat) run(interval time.Duration) {
	defer close(h.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.beat()
		case <-h.stop:
			return
		}
	}
}

func (h *Heartbeat) beat() {
	ev := &Event{
		Time:  time.Now(),
		Seq:   NextSeq(),
		Kind:  KindHeartbeat,
		Scope: ScopeDriver,
		GID:   getGoroutineID(),
		Name:  "heartbeat",
	}
	if h.progress != nil {
		snap := h.progress.Snapshot()
		ev.Detail = snap.String()
		ev.Extra = snap.Extra()
	}
	h.tracer.Emit(ev)
}

// Stop is safe on a nil Heartbeat and idempotent.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.stop) })
	<-h.done
}
