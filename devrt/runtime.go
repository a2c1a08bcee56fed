package devrt

import (
	"sync/atomic"
	"unsafe"
)

// Runtime is the formatted-output primitive:
//
//	int32 vprintf(const char *format, void *args)
//
// format points at a NUL-terminated string and args at the packed argument
// record. A negative result means failure and is passed through unchanged.
type Runtime interface {
	Vprintf(format *byte, args unsafe.Pointer) int32
}

// RuntimeFunc adapts a function to Runtime.
type RuntimeFunc func(format *byte, args unsafe.Pointer) int32

func (f RuntimeFunc) Vprintf(format *byte, args unsafe.Pointer) int32 {
	return f(format, args)
}

type nopRuntime struct{}

func (nopRuntime) Vprintf(*byte, unsafe.Pointer) int32 { return -1 }

type runtimeBox struct{ rt Runtime }

var current atomic.Pointer[runtimeBox]

func init() {
	current.Store(&runtimeBox{rt: nopRuntime{}})
}

// SetRuntime installs rt and returns the previously installed runtime.
// A nil rt restores the default, which fails every call with -1.
func SetRuntime(rt Runtime) Runtime {
	if rt == nil {
		rt = nopRuntime{}
	}
	prev := current.Swap(&runtimeBox{rt: rt})
	return prev.rt
}

// CurrentRuntime returns the installed runtime.
func CurrentRuntime() Runtime {
	return current.Load().rt
}

// Vprintf forwards to the installed runtime. Generated code calls it with
// the address of a record laid out as described in the package doc.
func Vprintf(format *byte, args unsafe.Pointer) int32 {
	return current.Load().rt.Vprintf(format, args)
}
