package printf

import "fmt"

// WireType is the exact fixed-width type a specifier occupies in the packed
// argument record.
type WireType uint8

const (
	WireInvalid WireType = iota
	I16
	I32
	I64
	U16
	U32
	U64
	F64
	VoidPtr
	StrPtr
)

var wireNames = [...]string{
	WireInvalid: "invalid",
	I16:         "i16",
	I32:         "i32",
	I64:         "i64",
	U16:         "u16",
	U32:         "u32",
	U64:         "u64",
	F64:         "f64",
	VoidPtr:     "void*",
	StrPtr:      "char*",
}

func (w WireType) String() string {
	if int(w) < len(wireNames) {
		return wireNames[w]
	}
	return "invalid"
}

// GoType is the field type used for w in a generated record struct.
func (w WireType) GoType() string {
	switch w {
	case I16:
		return "int16"
	case I32:
		return "int32"
	case I64:
		return "int64"
	case U16:
		return "uint16"
	case U32:
		return "uint32"
	case U64:
		return "uint64"
	case F64:
		return "float64"
	case VoidPtr:
		return "unsafe.Pointer"
	case StrPtr:
		return "*byte"
	}
	return ""
}

// CType is the C spelling of w, as seen by the device runtime.
func (w WireType) CType() string {
	switch w {
	case I16:
		return "int16_t"
	case I32:
		return "int32_t"
	case I64:
		return "int64_t"
	case U16:
		return "uint16_t"
	case U32:
		return "uint32_t"
	case U64:
		return "uint64_t"
	case F64:
		return "double"
	case VoidPtr:
		return "const void*"
	case StrPtr:
		return "const char*"
	}
	return "void"
}

func (w WireType) IsPointer() bool {
	return w == VoidPtr || w == StrPtr
}

// Size returns the scalar width in bytes; pointers report 0 since their width
// depends on the target.
func (w WireType) Size() int {
	switch w {
	case I16, U16:
		return 2
	case I32, U32:
		return 4
	case I64, U64, F64:
		return 8
	}
	return 0
}

// ParseWireType accepts the names produced by String.
func ParseWireType(s string) (WireType, bool) {
	for i, name := range wireNames {
		if i != int(WireInvalid) && name == s {
			return WireType(i), true
		}
	}
	return WireInvalid, false
}

// MarshalText renders w by name in JSON and YAML output.
func (w WireType) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

func (w *WireType) UnmarshalText(b []byte) error {
	t, ok := ParseWireType(string(b))
	if !ok {
		return fmt.Errorf("unknown wire type %q", b)
	}
	*w = t
	return nil
}
