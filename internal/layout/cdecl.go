package layout

import (
	"fmt"
	"strings"
)

// CDecl renders the record as a C struct declaration annotated with offsets,
// handy for cross-checking against device code.
func (l RecordLayout) CDecl(name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "/* %s: size %d, align %d */\n", l.Target, l.Size, l.Align)
	fmt.Fprintf(&b, "struct %s {\n", name)
	for i, f := range l.Fields {
		fmt.Fprintf(&b, "    %s f%d; /* offset %d */\n", f.Type.CType(), i, f.Offset)
	}
	b.WriteString("};\n")
	return b.String()
}
