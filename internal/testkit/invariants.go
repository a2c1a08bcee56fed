// Package testkit holds checks shared by tests of packages that produce
// diagnostics.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"vprintf/internal/diag"
	"vprintf/internal/source"
)

// CheckSpanInvariants verifies every span a bag carries:
// 1) the span points at a file known to fs
// 2) Start <= End <= len(content)
// 3) fix edits with OldText match the file content they replace
func CheckSpanInvariants(fs *source.FileSet, bag *diag.Bag) error {
	if fs == nil || bag == nil {
		return fmt.Errorf("nil file set or bag")
	}
	for i, d := range bag.Items() {
		if err := checkSpan(fs, d.Primary); err != nil {
			return fmt.Errorf("diagnostic %d (%s) primary: %w", i, d.Code.ID(), err)
		}
		for j, n := range d.Notes {
			if err := checkSpan(fs, n.Span); err != nil {
				return fmt.Errorf("diagnostic %d (%s) note %d: %w", i, d.Code.ID(), j, err)
			}
		}
		for j, f := range d.Fixes {
			for k, e := range f.Edits {
				if err := checkSpan(fs, e.Span); err != nil {
					return fmt.Errorf("diagnostic %d (%s) fix %d edit %d: %w", i, d.Code.ID(), j, k, err)
				}
				if e.OldText == "" {
					continue
				}
				content := fs.Get(e.Span.File).Content
				if got := string(content[e.Span.Start:e.Span.End]); got != e.OldText {
					return fmt.Errorf("diagnostic %d (%s) fix %d edit %d: old text %q, file has %q",
						i, d.Code.ID(), j, k, e.OldText, got)
				}
			}
		}
	}
	return nil
}

func checkSpan(fs *source.FileSet, sp source.Span) error {
	f := fs.Get(sp.File)
	if f == nil {
		return fmt.Errorf("unknown file id %d", sp.File)
	}
	size, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		return fmt.Errorf("file %s: %w", f.Path, err)
	}
	if sp.Start > sp.End {
		return fmt.Errorf("inverted span %v", sp)
	}
	if sp.End > size {
		return fmt.Errorf("span %v exceeds file size %d", sp, size)
	}
	return nil
}
