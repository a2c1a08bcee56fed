package diag

import (
	"cmp"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"vprintf/internal/source"
)

var newlines = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

type goldenRow struct {
	kind string // severity label or "note"
	code string
	path string
	line uint32
	col  uint32
	msg  string
}

func (r goldenRow) String() string {
	return fmt.Sprintf("%s %s %s:%d:%d %s", r.kind, r.code, r.path, r.line, r.col, r.msg)
}

func compareGolden(a, b goldenRow) int {
	return cmp.Or(
		strings.Compare(a.path, b.path),
		cmp.Compare(a.line, b.line),
		cmp.Compare(a.col, b.col),
		strings.Compare(a.kind, b.kind),
		strings.Compare(a.code, b.code),
		strings.Compare(a.msg, b.msg),
	)
}

// FormatGolden renders diags one line each, ordered by position, for
// comparison against literal expectations in tests:
//
//	error FMT1005 kern.go:8:15 long int is not supported: "%ld"
//	note FMT1005 kern.go:8:18 in this conversion
//
// Virtual files keep their name, loaded files are shown relative to the
// FileSet base directory. Locations inside generated *_vprintf.go files are
// left out so expectations do not churn when the emitter changes.
func FormatGolden(fs *source.FileSet, diags []*Diagnostic, withNotes bool) string {
	if fs == nil {
		return ""
	}
	var rows []goldenRow
	add := func(kind string, code Code, sp source.Span, msg string) {
		f := fs.Get(sp.File)
		if f == nil || f.Flags&source.FileGenerated != 0 {
			return
		}
		start, _ := fs.Resolve(sp)
		rows = append(rows, goldenRow{
			kind: kind,
			code: code.ID(),
			path: goldenPath(fs, f),
			line: start.Line,
			col:  start.Col,
			msg:  strings.TrimSpace(newlines.Replace(msg)),
		})
	}
	for _, d := range diags {
		add(d.Severity.Label(), d.Code, d.Primary, d.Message)
		if withNotes {
			for _, n := range d.Notes {
				add("note", d.Code, n.Span, n.Msg)
			}
		}
	}
	slices.SortStableFunc(rows, compareGolden)

	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = r.String()
	}
	return strings.Join(lines, "\n")
}

func goldenPath(fs *source.FileSet, f *source.File) string {
	p := f.Path
	if f.Flags&source.FileVirtual == 0 {
		p = f.FormatPath("relative", fs.BaseDir())
	}
	return strings.TrimPrefix(filepath.ToSlash(p), "./")
}
