package devrt

import (
	"fmt"
	"unsafe"

	"vprintf/internal/printf"
)

// GoString copies a NUL-terminated string.
func GoString(p *byte) string {
	if p == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(unsafe.Pointer(p), n)) != 0 {
		n++
	}
	return string(unsafe.Slice(p, n))
}

// Decode reads a packed record back into Go values using the layout implied
// by format. Values are int16, int32, int64, uint16, uint32, uint64, float64,
// string (nil for a NULL char*) and uintptr for void*.
func Decode(format *byte, args unsafe.Pointer) (string, []any, error) {
	f := GoString(format)
	specs, err := printf.Scan(f)
	if err != nil {
		return f, nil, err
	}
	types := printf.Types(specs)
	l, err := hostEngine.LayoutOf(types)
	if err != nil {
		return f, nil, fmt.Errorf("devrt: %w", err)
	}
	if len(types) > 0 && args == nil {
		return f, nil, fmt.Errorf("devrt: nil record for %d argument(s)", len(types))
	}
	out := make([]any, len(types))
	for i, fl := range l.Fields {
		at := unsafe.Add(args, fl.Offset)
		switch fl.Type {
		case printf.I16:
			out[i] = *(*int16)(at)
		case printf.I32:
			out[i] = *(*int32)(at)
		case printf.I64:
			out[i] = *(*int64)(at)
		case printf.U16:
			out[i] = *(*uint16)(at)
		case printf.U32:
			out[i] = *(*uint32)(at)
		case printf.U64:
			out[i] = *(*uint64)(at)
		case printf.F64:
			out[i] = *(*float64)(at)
		case printf.StrPtr:
			if s := *(**byte)(at); s != nil {
				out[i] = GoString(s)
			}
		case printf.VoidPtr:
			out[i] = uintptr(*(*unsafe.Pointer)(at))
		}
	}
	return f, out, nil
}
