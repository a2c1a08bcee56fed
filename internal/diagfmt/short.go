package diagfmt

import (
	"fmt"
	"io"

	"vprintf/internal/diag"
	"vprintf/internal/source"
)

// Short prints one line per diagnostic in the form compilers and editors
// parse: <path>:<line>:<col>: <severity> <CODE>: <message>.
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet, mode PathMode) {
	if bag == nil {
		return
	}
	for _, d := range bag.Items() {
		var loc string
		if fs != nil {
			if f := fs.Get(d.Primary.File); f != nil {
				start, _ := fs.Resolve(d.Primary)
				loc = fmt.Sprintf("%s:%d:%d: ", formatPath(f, fs, mode), start.Line, start.Col)
			}
		}
		fmt.Fprintf(w, "%s%s %s: %s\n", loc, d.Severity.Label(), d.Code.ID(), d.Message)
	}
}
