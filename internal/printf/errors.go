package printf

import (
	"fmt"

	"vprintf/internal/diag"
)

// ErrorKind classifies a ParseError.
type ErrorKind uint8

const (
	ErrInvalidType ErrorKind = iota + 1
	ErrEndedEarly
	ErrVariableWidth
	ErrVariablePrecision
	ErrSizeNotAllowed
)

func (k ErrorKind) String() string {
	switch k {
	case ErrInvalidType:
		return "InvalidType"
	case ErrEndedEarly:
		return "EndedEarly"
	case ErrVariableWidth:
		return "VariableWidth"
	case ErrVariablePrecision:
		return "VariablePrecision"
	case ErrSizeNotAllowed:
		return "SizeNotAllowed"
	}
	return "Unknown"
}

// Code maps the kind to its diagnostic code.
func (k ErrorKind) Code() diag.Code {
	switch k {
	case ErrInvalidType:
		return diag.FmtInvalidType
	case ErrEndedEarly:
		return diag.FmtEndedEarly
	case ErrVariableWidth:
		return diag.FmtVariableWidth
	case ErrVariablePrecision:
		return diag.FmtVariablePrecision
	case ErrSizeNotAllowed:
		return diag.FmtSizeNotAllowed
	}
	return diag.UnknownCode
}

const (
	msgVariableWidth     = "variable width arguments are not yet supported"
	msgVariablePrecision = "cuda does not support variable precision arguments"
	msgEndedEarly        = "ended early"
	msgInvalidType       = "Invalid type specifier"
)

// ParseError describes the first malformed or unsupported specifier in a
// format string. When HasEnd is false the offending text runs to the end of
// the format.
type ParseError struct {
	Kind   ErrorKind
	Msg    string
	Start  int
	End    int
	HasEnd bool
	Format string

	// Size and Verb are set for ErrSizeNotAllowed.
	Size Size
	Verb byte
}

// Snippet returns the offending substring of the format.
func (e *ParseError) Snippet() string {
	if e.Start < 0 || e.Start > len(e.Format) {
		return ""
	}
	if !e.HasEnd {
		return e.Format[e.Start:]
	}
	end := min(e.End, len(e.Format))
	return e.Format[e.Start:end]
}

// Error renders the build-time message: <reason>: "<substring>".
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: \"%s\"", e.Msg, e.Snippet())
}

// Suggestion proposes a replacement for Snippet when a portable spelling
// exists (%ld -> %lld, %lu -> %llu, %hd -> %d).
func (e *ParseError) Suggestion() (string, bool) {
	if e.Kind != ErrSizeNotAllowed || !e.HasEnd {
		return "", false
	}
	snip := e.Snippet()
	if len(snip) < 2 {
		return "", false
	}
	body := snip[:len(snip)-1]
	switch fam := familyOf(e.Verb); {
	case e.Size == SizeLong && (fam == FamilySigned || fam == FamilyUnsigned):
		return body + "l" + string(e.Verb), true
	case e.Size == SizeShort && fam == FamilySigned:
		return body[:len(body)-1] + string(e.Verb), true
	}
	return "", false
}

// ArityError reports a mismatch between the number of specifiers and the
// number of supplied arguments.
type ArityError struct {
	Want int
	Got  int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("format expects %d argument(s), got %d", e.Want, e.Got)
}
