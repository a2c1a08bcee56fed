package layout

import (
	"fmt"
	"strings"

	"vprintf/internal/printf"
)

// LayoutErrorKind enumerates types of layout calculation errors.
type LayoutErrorKind uint8

const (
	// LayoutErrUnknownType indicates a wire type outside the known set.
	LayoutErrUnknownType LayoutErrorKind = iota + 1
	LayoutErrUnknownTarget
	LayoutErrBadTarget
)

// LayoutError represents an error during record layout calculation.
type LayoutError struct {
	Kind   LayoutErrorKind
	Type   printf.WireType
	Index  int    // field index for LayoutErrUnknownType
	Target string // for target errors
}

func (e *LayoutError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case LayoutErrUnknownType:
		return fmt.Sprintf("field %d has unknown wire type %d", e.Index, e.Type)
	case LayoutErrUnknownTarget:
		return fmt.Sprintf("unknown target %q (known: %s)", e.Target, strings.Join(TargetNames(), ", "))
	case LayoutErrBadTarget:
		return fmt.Sprintf("target %q has invalid pointer or int64 properties", e.Target)
	default:
		return fmt.Sprintf("layout error kind=%d", e.Kind)
	}
}
