package devrt

import (
	"reflect"
	"unsafe"

	"vprintf/internal/printf"
)

// CStringArg is what a %s argument may be in generated code: the same
// types Printf accepts for %s.
type CStringArg interface {
	~string | ~[]byte | *byte | unsafe.Pointer
}

// CString converts a %s argument of generated code to the record field
// type. Strings and byte slices are copied with a terminating NUL; the copy
// is reachable through the record until Vprintf returns.
func CString[T CStringArg](v T) *byte {
	switch x := any(v).(type) {
	case *byte:
		return x
	case unsafe.Pointer:
		return (*byte)(x)
	}
	rv := reflect.ValueOf(v)
	var b []byte
	if rv.Kind() == reflect.String {
		b = []byte(rv.String())
	} else {
		b = rv.Bytes()
	}
	buf := make([]byte, len(b)+1)
	copy(buf, b)
	return unsafe.SliceData(buf)
}

// Pointer converts argument idx of a %p conversion in generated code. It
// takes what Printf takes for %p (pointers, slices, maps, channels, funcs,
// uintptr and nil); anything else goes to the ErrorHandler as an *ArgError
// and is passed as a null pointer.
func Pointer(idx int, v any) unsafe.Pointer {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return rv.UnsafePointer()
	case reflect.Uintptr:
		u := uintptr(rv.Uint())
		return *(*unsafe.Pointer)(unsafe.Pointer(&u))
	}
	reportError(&ArgError{Index: idx, Want: printf.VoidPtr, Got: rv.Type().String()})
	return nil
}
