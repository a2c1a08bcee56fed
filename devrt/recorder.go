package devrt

import (
	"io"
	"sync"
	"unsafe"
)

// Call is one decoded Vprintf invocation.
type Call struct {
	Format string
	Args   []any
	Output string
	Err    error
}

// Recorder is a Runtime that decodes and keeps every call. It returns the
// number of arguments, as the device runtime does.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Vprintf(format *byte, args unsafe.Pointer) int32 {
	c := decodeCall(format, args)
	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()
	if c.Err != nil {
		return -1
	}
	return int32(len(c.Args))
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}

func decodeCall(format *byte, args unsafe.Pointer) Call {
	f, vals, err := Decode(format, args)
	c := Call{Format: f, Args: vals, Err: err}
	if err == nil {
		c.Output, c.Err = Sprintf(f, vals)
	}
	return c
}

// WriterRuntime prints each call to W, emulating device output on the host.
type WriterRuntime struct {
	mu sync.Mutex
	W  io.Writer
}

func NewWriterRuntime(w io.Writer) *WriterRuntime {
	return &WriterRuntime{W: w}
}

func (w *WriterRuntime) Vprintf(format *byte, args unsafe.Pointer) int32 {
	c := decodeCall(format, args)
	if c.Err != nil {
		return -1
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := io.WriteString(w.W, c.Output); err != nil {
		return -1
	}
	return int32(len(c.Args))
}
