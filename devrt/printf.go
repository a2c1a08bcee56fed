package devrt

// Printf checks format against args, packs them and calls Vprintf. It is
// also the marker "vprintf generate" looks for: in generated files each call
// is replaced by an already-typed record and a direct Vprintf call.
//
// On a malformed format, an argument count mismatch or an unconvertible
// argument Printf reports through the installed ErrorHandler and returns -1
// without calling the runtime.
func Printf(format string, args ...any) int32 {
	p, err := Pack(format, args...)
	if err != nil {
		reportError(err)
		return -1
	}
	n := Vprintf(p.FormatPtr(), p.Args())
	p.KeepAlive()
	return n
}
