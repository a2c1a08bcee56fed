package devrt

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"vprintf/internal/printf"
)

// ErrEmbeddedNUL is returned when a format contains a NUL byte, which would
// silently truncate it on the device.
var ErrEmbeddedNUL = errors.New("devrt: format contains a NUL byte")

// ArgError reports an argument whose Go type cannot be converted to the wire
// type its specifier requires.
type ArgError struct {
	Index int
	Want  printf.WireType
	Got   string
}

func (e *ArgError) Error() string {
	return fmt.Sprintf("devrt: argument %d: cannot pass %s as %s", e.Index, e.Got, e.Want)
}

// ErrorHandler receives errors detected by Printf.
type ErrorHandler func(error)

var errHandler atomic.Pointer[ErrorHandler]

func defaultErrorHandler(err error) {
	fmt.Fprintf(os.Stderr, "devrt: %v\n", err)
}

// SetErrorHandler installs h and returns the previous handler. A nil h
// restores the default, which writes to stderr.
func SetErrorHandler(h ErrorHandler) ErrorHandler {
	if h == nil {
		h = defaultErrorHandler
	}
	prev := errHandler.Swap(&h)
	if prev == nil {
		return defaultErrorHandler
	}
	return *prev
}

func reportError(err error) {
	if h := errHandler.Load(); h != nil {
		(*h)(err)
		return
	}
	defaultErrorHandler(err)
}
