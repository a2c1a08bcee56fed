package devrt

import (
	"fmt"
	"strings"

	"vprintf/internal/printf"
)

// Sprintf formats decoded arguments the way the device prints them. It is
// used by host-side runtimes; args must come from Decode.
func Sprintf(format string, args []any) (string, error) {
	var b strings.Builder
	s := printf.NewScanner(format)
	prev := 0
	i := 0
	for {
		spec, ok := s.Next()
		if !ok {
			break
		}
		writeLiteral(&b, format[prev:spec.Start])
		prev = spec.End
		if i >= len(args) {
			return b.String(), &printf.ArityError{Want: i + 1, Got: len(args)}
		}
		b.WriteString(formatOne(spec, args[i]))
		i++
	}
	if err := s.Err(); err != nil {
		return b.String(), err
	}
	writeLiteral(&b, format[prev:])
	return b.String(), nil
}

func writeLiteral(b *strings.Builder, lit string) {
	b.WriteString(strings.ReplaceAll(lit, "%%", "%"))
}

func formatOne(spec printf.ConversionSpec, arg any) string {
	var verb byte
	switch spec.Verb {
	case 'd', 'i', 'u':
		verb = 'd'
	case 'F':
		verb = 'f'
	case 'a':
		verb = 'x'
	case 'A':
		verb = 'X'
	case 'p':
		verb = 's'
		arg = pointerText(arg)
	case 's':
		if arg == nil {
			arg = "(null)"
		}
		verb = 's'
	default:
		verb = spec.Verb
	}

	var f strings.Builder
	f.WriteByte('%')
	f.WriteString(spec.Flags.String())
	f.WriteString(spec.Width)
	switch {
	case spec.HasPrecision:
		f.WriteByte('.')
		f.WriteString(spec.Precision)
	case spec.Verb == 'g' || spec.Verb == 'G':
		f.WriteString(".6")
	}
	f.WriteByte(verb)
	return fmt.Sprintf(f.String(), arg)
}

func pointerText(arg any) string {
	p, _ := arg.(uintptr)
	if p == 0 {
		return "(nil)"
	}
	return fmt.Sprintf("%#x", p)
}
