package source

import (
	"fmt"

	"fortio.org/safecast"
)

type Span struct {
	File  FileID
	Start uint32 // в байтах включительно
	End   uint32 // в байтах не включительно
}

// SpanOf builds a span from int byte offsets as produced by go/token.
func SpanOf(file FileID, start, end int) (Span, error) {
	s, err := safecast.Conv[uint32](start)
	if err != nil {
		return Span{}, fmt.Errorf("span start %d: %w", start, err)
	}
	e, err := safecast.Conv[uint32](end)
	if err != nil {
		return Span{}, fmt.Errorf("span end %d: %w", end, err)
	}
	if e < s {
		return Span{}, fmt.Errorf("span end %d before start %d", end, start)
	}
	return Span{File: file, Start: s, End: e}, nil
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}

// Contains reports whether other lies fully inside s.
func (s Span) Contains(other Span) bool {
	return s.File == other.File && other.Start >= s.Start && other.End <= s.End
}
