package trace

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// Progress counts expander work for heartbeat events. Methods are safe for
// concurrent use and do nothing on a nil *Progress.
type Progress struct {
	mu       sync.Mutex
	total    int
	done     int
	failed   int
	calls    int
	inFlight map[string]struct{}
}

func NewProgress() *Progress {
	return &Progress{inFlight: make(map[string]struct{})}
}

// AddFiles raises the number of files expected by n.
func (p *Progress) AddFiles(n int) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.total += n
	p.mu.Unlock()
}

func (p *Progress) StartFile(path string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.inFlight[path] = struct{}{}
	p.mu.Unlock()
}

// FinishFile records path as done with calls expanded call sites.
func (p *Progress) FinishFile(path string, calls int, failed bool) {
	if p == nil {
		return
	}
	p.mu.Lock()
	delete(p.inFlight, path)
	p.done++
	p.calls += calls
	if failed {
		p.failed++
	}
	p.mu.Unlock()
}

// ProgressSnapshot is a point-in-time copy of Progress.
type ProgressSnapshot struct {
	Total    int
	Done     int
	Failed   int
	Calls    int
	InFlight []string // sorted
}

func (p *Progress) Snapshot() ProgressSnapshot {
	if p == nil {
		return ProgressSnapshot{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	s := ProgressSnapshot{Total: p.total, Done: p.done, Failed: p.failed, Calls: p.calls}
	for f := range p.inFlight {
		s.InFlight = append(s.InFlight, f)
	}
	slices.Sort(s.InFlight)
	return s
}

func (s ProgressSnapshot) String() string {
	out := fmt.Sprintf("files %d/%d, %d call sites", s.Done, s.Total, s.Calls)
	if s.Failed > 0 {
		out += fmt.Sprintf(", %d failed", s.Failed)
	}
	if len(s.InFlight) > 0 {
		out += ", expanding " + strings.Join(s.InFlight, " ")
	}
	return out
}

// Extra is the heartbeat event payload.
func (s ProgressSnapshot) Extra() map[string]string {
	return map[string]string{
		"files_done":   strconv.Itoa(s.Done),
		"files_total":  strconv.Itoa(s.Total),
		"files_failed": strconv.Itoa(s.Failed),
		"call_sites":   strconv.Itoa(s.Calls),
	}
}
