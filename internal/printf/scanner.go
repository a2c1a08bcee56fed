package printf

import (
	"iter"
	"unicode/utf8"
)

// Scanner walks a format string and yields resolved conversion
// conversions one at a time. A Scanner is single-use: once it reports the
// end or an error it keeps returning false.
type Scanner struct {
	cur  Cursor
	err  *ParseError
	done bool
}

func NewScanner(format string) *Scanner {
	return &Scanner{cur: NewCursor(format)}
}

// Err returns the error that stopped the scanner, if any.
func (s *Scanner) Err() error {
	if s.err == nil {
		return nil
	}
	return s.err
}

// ParseErr is Err without the interface wrapping.
func (s *Scanner) ParseErr() *ParseError {
	return s.err
}

// Next returns the next conversion, or false at the end of the format or
// after the first error.
func (s *Scanner) Next() (ConversionSpec, bool) {
	if s.done {
		return ConversionSpec{}, false
	}
	spec, err := s.next()
	if err != nil {
		s.err = err
		s.done = true
		return ConversionSpec{}, false
	}
	if spec == nil {
		s.done = true
		return ConversionSpec{}, false
	}
	return *spec, true
}

func (s *Scanner) fail(kind ErrorKind, msg string, m Mark, hasEnd bool) *ParseError {
	start, end := s.cur.SpanFrom(m)
	e := &ParseError{
		Kind:   kind,
		Msg:    msg,
		Start:  start,
		HasEnd: hasEnd,
		Format: s.cur.Src,
	}
	if hasEnd {
		e.End = end
	}
	return e
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func (s *Scanner) next() (*ConversionSpec, *ParseError) {
	c := &s.cur
	for !c.EOF() {
		start := c.Mark()
		if c.Bump() != '%' {
			continue
		}
		if c.Eat('%') {
			continue
		}
		spec := ConversionSpec{Start: int(start)}

		for {
			f, ok := flagOf(c.Peek())
			if !ok {
				break
			}
			spec.Flags |= f
			c.Bump()
		}

		if c.Eat('*') {
			return nil, s.fail(ErrVariableWidth, msgVariableWidth, start, true)
		}
		spec.Width = c.EatWhile(isDigit)

		if c.Eat('.') {
			if c.Eat('*') {
				return nil, s.fail(ErrVariablePrecision, msgVariablePrecision, start, true)
			}
			spec.HasPrecision = true
			spec.Precision = c.EatWhile(isDigit)
		}

		// hh не поддерживается: второй 'h' читается как тип
		switch {
		case c.Eat('h'):
			spec.Size = SizeShort
		case c.Eat('l'):
			spec.Size = SizeLong
			if c.Eat('l') {
				spec.Size = SizeLongLong
			}
		}

		if c.EOF() {
			return nil, s.fail(ErrEndedEarly, msgEndedEarly, start, false)
		}
		verb := c.Peek()
		if verb >= utf8.RuneSelf {
			_, w := utf8.DecodeRuneInString(c.Src[c.Off:])
			c.Off += w
			return nil, s.fail(ErrInvalidType, msgInvalidType, start, true)
		}
		c.Bump()
		if familyOf(verb) == FamilyNone {
			return nil, s.fail(ErrInvalidType, msgInvalidType, start, true)
		}
		spec.Verb = verb

		wt, msg, ok := Resolve(verb, spec.Size)
		if !ok {
			e := s.fail(ErrSizeNotAllowed, msg, start, true)
			e.Size, e.Verb = spec.Size, verb
			return nil, e
		}
		spec.Type = wt
		spec.End = c.Off
		return &spec, nil
	}
	return nil, nil
}

// Specs exposes the scanner as a range-over-func sequence. The sequence ends
// after yielding the first error.
func Specs(format string) iter.Seq2[ConversionSpec, error] {
	return func(yield func(ConversionSpec, error) bool) {
		s := NewScanner(format)
		for {
			spec, ok := s.Next()
			if !ok {
				if err := s.ParseErr(); err != nil {
					yield(ConversionSpec{}, err)
				}
				return
			}
			if !yield(spec, nil) {
				return
			}
		}
	}
}

// Scan collects every conversion, failing on the first error.
func Scan(format string) ([]ConversionSpec, error) {
	s := NewScanner(format)
	var out []ConversionSpec
	for {
		spec, ok := s.Next()
		if !ok {
			break
		}
		out = append(out, spec)
	}
	if err := s.ParseErr(); err != nil {
		return nil, err
	}
	return out, nil
}

// Types returns just the wire types of specs in order.
func Types(specs []ConversionSpec) []WireType {
	out := make([]WireType, len(specs))
	for i, s := range specs {
		out[i] = s.Type
	}
	return out
}
