package devrt

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"unsafe"

	"vprintf/internal/layout"
	"vprintf/internal/printf"
)

// hostEngine matches the record structs of generated code.
var hostEngine = layout.HostEngine()

// Packet is a packed argument record ready to be handed to Vprintf. Memory
// referenced from the record (string copies, pointer arguments) is owned by
// the Packet and must stay reachable until the call returns; call KeepAlive
// after Vprintf.
type Packet struct {
	Format []byte // NUL-terminated
	Types  []printf.WireType
	Layout layout.RecordLayout

	words []uint64
	keep  []any
}

// FormatPtr returns the NUL-terminated format.
func (p *Packet) FormatPtr() *byte {
	return unsafe.SliceData(p.Format)
}

// Args returns the address of the packed record.
func (p *Packet) Args() unsafe.Pointer {
	return unsafe.Pointer(unsafe.SliceData(p.words))
}

// Bytes returns a copy of the record bytes.
func (p *Packet) Bytes() []byte {
	out := make([]byte, p.Layout.Size)
	copy(out, unsafe.Slice((*byte)(p.Args()), p.Layout.Size))
	return out
}

func (p *Packet) KeepAlive() {
	runtime.KeepAlive(p.keep)
	runtime.KeepAlive(p.words)
	runtime.KeepAlive(p.Format)
}

// Pack validates format against args and builds the record. Errors are
// *printf.ParseError, *printf.ArityError, *ArgError or ErrEmbeddedNUL.
func Pack(format string, args ...any) (*Packet, error) {
	if strings.IndexByte(format, 0) >= 0 {
		return nil, ErrEmbeddedNUL
	}
	res, err := printf.Check(format, len(args))
	if err != nil {
		return nil, err
	}
	l, err := hostEngine.LayoutOf(res.Types)
	if err != nil {
		return nil, fmt.Errorf("devrt: %w", err)
	}

	p := &Packet{
		Format: append([]byte(format), 0),
		Types:  res.Types,
		Layout: l,
		words:  make([]uint64, max(1, (l.Size+7)/8)),
	}
	base := p.Args()
	for i, f := range l.Fields {
		if err := p.put(unsafe.Add(base, f.Offset), i, f.Type, args[i]); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Packet) put(dst unsafe.Pointer, idx int, t printf.WireType, arg any) error {
	v := reflect.ValueOf(arg)
	bad := func() error {
		got := "nil"
		if v.IsValid() {
			got = v.Type().String()
		}
		return &ArgError{Index: idx, Want: t, Got: got}
	}

	switch t {
	case printf.I16, printf.I32, printf.I64, printf.U16, printf.U32, printf.U64:
		bits, ok := intBits(v, t == printf.I16 || t == printf.I32 || t == printf.I64)
		if !ok {
			return bad()
		}
		switch t {
		case printf.I16:
			*(*int16)(dst) = int16(bits)
		case printf.I32:
			*(*int32)(dst) = int32(bits)
		case printf.I64:
			*(*int64)(dst) = int64(bits)
		case printf.U16:
			*(*uint16)(dst) = uint16(bits)
		case printf.U32:
			*(*uint32)(dst) = uint32(bits)
		case printf.U64:
			*(*uint64)(dst) = bits
		}
	case printf.F64:
		f, ok := floatValue(v)
		if !ok {
			return bad()
		}
		*(*float64)(dst) = f
	case printf.StrPtr:
		ptr, ok := p.strPointer(v)
		if !ok {
			return bad()
		}
		*(*uintptr)(dst) = ptr
	case printf.VoidPtr:
		ptr, ok := p.voidPointer(v)
		if !ok {
			return bad()
		}
		*(*uintptr)(dst) = ptr
	default:
		return bad()
	}
	return nil
}

// intBits converts like a Go conversion expression T(x) would.
func intBits(v reflect.Value, signed bool) (uint64, bool) {
	if !v.IsValid() {
		return 0, false
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return uint64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint(), true
	case reflect.Float32, reflect.Float64:
		if signed {
			return uint64(int64(v.Float())), true
		}
		return uint64(v.Float()), true
	}
	return 0, false
}

func floatValue(v reflect.Value) (float64, bool) {
	if !v.IsValid() {
		return 0, false
	}
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(v.Uint()), true
	}
	return 0, false
}

// strPointer accepts string and []byte (copied with a NUL), *byte and
// unsafe.Pointer (passed through) and nil.
func (p *Packet) strPointer(v reflect.Value) (uintptr, bool) {
	if !v.IsValid() {
		return 0, true
	}
	switch v.Kind() {
	case reflect.String:
		return p.cstring([]byte(v.String())), true
	case reflect.Slice:
		if v.Type().Elem().Kind() != reflect.Uint8 {
			return 0, false
		}
		return p.cstring(v.Bytes()), true
	case reflect.Pointer:
		if v.Type().Elem().Kind() != reflect.Uint8 {
			return 0, false
		}
		p.keep = append(p.keep, v.Interface())
		return v.Pointer(), true
	case reflect.UnsafePointer:
		p.keep = append(p.keep, v.Interface())
		return v.Pointer(), true
	}
	return 0, false
}

func (p *Packet) cstring(b []byte) uintptr {
	buf := make([]byte, len(b)+1)
	copy(buf, b)
	p.keep = append(p.keep, buf)
	return uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
}

func (p *Packet) voidPointer(v reflect.Value) (uintptr, bool) {
	if !v.IsValid() {
		return 0, true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		p.keep = append(p.keep, v.Interface())
		return v.Pointer(), true
	case reflect.Uintptr:
		return uintptr(v.Uint()), true
	}
	return 0, false
}
