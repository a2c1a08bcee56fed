// Package devrt is the runtime surface of vprintf-generated code.
//
// Source files tagged "vprintf" call Printf directly:
//
//	//go:build vprintf
//
//	devrt.Printf("x=%d %s\n", x, name)
//
// Compiled that way, Printf validates the format and the arguments at run
// time and packs them into a record before calling Vprintf. Running
// "vprintf generate" on such a file produces a twin compiled under
// "!vprintf" where every call site has already been expanded into a typed
// record plus a direct Vprintf call, so nothing is checked or converted at
// run time.
//
// Format grammar:
//
//	%[flags][width][.precision][size]type
//
// flags are any of "-+0 #"; width and precision are decimal digits; size is
// "h", "l" or "ll"; type is one of "cdiouxXpeEfFgGaAs". "%%" prints a percent
// sign. Record field types follow the CUDA device runtime:
//
//	%d %i        int32      %lld %lli   int64
//	%u %o %x %X  uint32     %hu ...     uint16    %llu ...  uint64
//	%e %f %g %a  float64    %c          uint32
//	%s           *byte (NUL-terminated)
//	%p           unsafe.Pointer
//
// The following are rejected because their width differs between hosts and
// the device, or the device runtime does not implement them: "*" width,
// ".*" precision, %hd/%hi, %ld/%li, %lu/%lo/%lx/%lX, any size prefix on
// floating point, %lc, %ls and %lp. Use %lld and %llu for 64-bit values.
//
// At most 32 arguments are accepted by the device runtime in addition to the
// format string; see
// https://docs.nvidia.com/cuda/cuda-c-programming-guide/index.html#limitations.
package devrt
