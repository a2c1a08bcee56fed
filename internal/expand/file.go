package expand

import (
	"errors"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/scanner"
	"go/token"
	"slices"
	"strings"

	"vprintf/internal/config"
	"vprintf/internal/diag"
	"vprintf/internal/emit"
	"vprintf/internal/layout"
	"vprintf/internal/pipeline"
	"vprintf/internal/printf"
	"vprintf/internal/source"
	"vprintf/internal/trace"
)

// maxSyntaxErrors caps SYN2001 diagnostics per file.
const maxSyntaxErrors = 10

// Header is the first line of every generated file.
func Header(input string) string {
	return fmt.Sprintf("// Code generated by vprintf generate from %s; DO NOT EDIT.", input)
}

// fileResult is the in-memory outcome of expanding one file.
type fileResult struct {
	output  []byte
	calls   int
	skipped bool
}

// fileExpander holds the state for one file. Not safe for concurrent use.
type fileExpander struct {
	cfg      config.Config
	eng      *layout.Engine
	file     *source.File
	src      []byte
	reporter diag.Reporter
	tracer   trace.Tracer
	parent   uint64
	// advance marks the start of the next pipeline stage; may be nil.
	advance  func(pipeline.Stage)

	tf       *token.File
	names    *emit.Names
	emitOpts emit.Options
	calls    int
}

type textEdit struct {
	start, end int
	text       string
}

func (fx *fileExpander) stage(s pipeline.Stage) {
	if fx.advance != nil {
		fx.advance(s)
	}
}

func (fx *fileExpander) span(start, end int) source.Span {
	sp, err := source.SpanOf(fx.file.ID, start, end)
	if err != nil {
		return source.Span{File: fx.file.ID}
	}
	return sp
}

func (fx *fileExpander) nodeSpan(n ast.Node) source.Span {
	return fx.span(fx.tf.Offset(n.Pos()), fx.tf.Offset(n.End()))
}

// run expands fx.file. explicit is true for files named on the command
// line: those must carry the build constraint, walked files without it
// are skipped.
func (fx *fileExpander) run(explicit bool) fileResult {
	fx.stage(pipeline.StageScan)
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, fx.file.Path, fx.src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		fx.reportSyntax(err)
		return fileResult{}
	}
	fx.tf = fset.File(f.Pos())

	tag := fx.cfg.Generate.BuildTag
	lines := headerConstraints(f, fx.tf)
	build, ok := goBuildWithTag(lines, tag)
	if !ok {
		if !explicit {
			return fileResult{skipped: true}
		}
		want := "//go:build " + tag
		diag.ReportError(fx.reporter, diag.SynMissingConstraint, fx.nodeSpan(f.Name),
			fmt.Sprintf("missing %q constraint; the file would build together with its generated output", want)).
			WithFix("add build constraint", diag.FixEdit{Span: fx.span(0, 0), NewText: want + "\n\n"}).
			Emit()
		return fileResult{}
	}

	alias, _ := importName(f, fx.cfg.Generate.RuntimeImport, fx.cfg.RuntimeName())
	unsafeName, haveUnsafe := importName(f, "unsafe", "unsafe")
	if !haveUnsafe {
		unsafeName = "unsafe"
	}
	fx.names = emit.NewNames(identifiers(f))
	fx.emitOpts = emit.Options{Runtime: alias, Entry: fx.cfg.Generate.Entry, Unsafe: unsafeName}

	fx.stage(pipeline.StageResolve)
	edits := make([]textEdit, 0, 8)
	ok = true
	for _, site := range findCallSites(f, fx.tf, alias, fx.cfg.Generate.Marker) {
		text, good := fx.expandSite(site)
		if !good {
			ok = false
			continue
		}
		edits = append(edits, textEdit{start: site.start, end: site.end, text: text})
	}
	if !ok {
		return fileResult{}
	}

	fx.stage(pipeline.StageEmit)
	for _, l := range lines {
		switch {
		case l.plus:
			edits = append(edits, textEdit{start: l.start, end: l.end})
		case l.start == build.start:
			edits = append(edits, textEdit{start: l.start, end: l.end, text: "//go:build " + negateTag(l.expr, tag).String()})
		}
	}
	if fx.calls > 0 && !haveUnsafe {
		edits = append(edits, fx.importUnsafe(f))
	}

	out := Header(source.BaseName(fx.file.Path)) + "\n\n" + applyEdits(fx.src, edits)
	formatted, err := format.Source([]byte(out))
	if err != nil {
		diag.ReportError(fx.reporter, diag.SynGoSyntax, fx.nodeSpan(f.Name),
			fmt.Sprintf("generated file does not parse: %v", err)).Emit()
		return fileResult{}
	}
	return fileResult{output: formatted, calls: fx.calls}
}

// importUnsafe adds "unsafe" to the first import declaration, turning a
// single import into a block. Standard library imports share a group with
// it, anything else gets its own group. import "C" is never touched.
func (fx *fileExpander) importUnsafe(f *ast.File) textEdit {
	for _, decl := range f.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.IMPORT || len(gd.Specs) == 0 || importsC(gd) {
			continue
		}
		first := gd.Specs[0].(*ast.ImportSpec)
		sep := "\n"
		if !isStdlib(first) {
			sep = "\n\n"
		}
		if gd.Lparen.IsValid() {
			if after := fx.stdlibBefore(gd, "unsafe"); after != nil {
				at := fx.tf.Offset(after.End())
				return textEdit{start: at, end: at, text: "\n\t\"unsafe\""}
			}
			at := fx.tf.Offset(gd.Lparen) + 1
			return textEdit{start: at, end: at, text: "\n\t\"unsafe\"" + strings.TrimSuffix(sep, "\n")}
		}
		start, end := fx.tf.Offset(first.Pos()), fx.tf.Offset(first.End())
		return textEdit{start: start, end: end, text: "(\n\t\"unsafe\"" + sep + "\t" + string(fx.src[start:end]) + "\n)"}
	}
	at := fx.tf.Offset(f.Name.End())
	return textEdit{start: at, end: at, text: "\n\nimport \"unsafe\""}
}

// stdlibBefore returns the last import of the leading stdlib group that
// sorts before path, or nil.
func (fx *fileExpander) stdlibBefore(gd *ast.GenDecl, path string) *ast.ImportSpec {
	var last *ast.ImportSpec
	line := 0
	for _, spec := range gd.Specs {
		is := spec.(*ast.ImportSpec)
		l := fx.tf.Line(is.Pos())
		if !isStdlib(is) || (line != 0 && l != line+1) || strings.Trim(is.Path.Value, "`\"") > path {
			break
		}
		last, line = is, fx.tf.Line(is.End())
	}
	return last
}

func importsC(gd *ast.GenDecl) bool {
	for _, spec := range gd.Specs {
		if is, ok := spec.(*ast.ImportSpec); ok && is.Path.Value == `"C"` {
			return true
		}
	}
	return false
}

// isStdlib: первый элемент пути без точки
func isStdlib(is *ast.ImportSpec) bool {
	path := strings.Trim(is.Path.Value, "`\"")
	first, _, _ := strings.Cut(path, "/")
	return !strings.Contains(first, ".")
}

func (fx *fileExpander) reportSyntax(err error) {
	var list scanner.ErrorList
	if !errors.As(err, &list) {
		diag.ReportError(fx.reporter, diag.SynGoSyntax, fx.span(0, 0), err.Error()).Emit()
		return
	}
	for i, e := range list {
		if i == maxSyntaxErrors {
			break
		}
		off := min(e.Pos.Offset, len(fx.src))
		end := min(off+1, len(fx.src))
		diag.ReportError(fx.reporter, diag.SynGoSyntax, fx.span(off, end), e.Msg).Emit()
	}
}

// expandSite validates one call and returns its replacement text. Nested
// call sites inside the arguments are expanded first.
func (fx *fileExpander) expandSite(site *callSite) (string, bool) {
	call := site.call
	ok := true

	var args []string
	if len(call.Args) > 1 {
		args = make([]string, 0, len(call.Args)-1)
		for _, a := range call.Args[1:] {
			text, good := fx.render(fx.tf.Offset(a.Pos()), fx.tf.Offset(a.End()), site.children)
			ok = ok && good
			args = append(args, text)
		}
	}

	if len(call.Args) == 0 {
		diag.ReportError(fx.reporter, diag.FmtNonLiteral, fx.nodeSpan(call), "format must be a string literal").
			WithNote(fx.span(fx.tf.Offset(call.Rparen), fx.tf.Offset(call.Rparen)+1), "missing format argument").
			Emit()
		return "", false
	}
	if call.Ellipsis.IsValid() {
		at := fx.tf.Offset(call.Ellipsis)
		diag.ReportError(fx.reporter, diag.FmtSpreadArgs, fx.span(at, at+3),
			"spread arguments are not supported; pass each argument explicitly").Emit()
		return "", false
	}
	lit, isLit := ast.Unparen(call.Args[0]).(*ast.BasicLit)
	if !isLit || lit.Kind != token.STRING {
		diag.ReportError(fx.reporter, diag.FmtNonLiteral, fx.nodeSpan(call.Args[0]), "format must be a string literal").Emit()
		return "", false
	}
	litStart := fx.tf.Offset(lit.Pos())
	litSpan := fx.nodeSpan(lit)

	decoded, err := decodeLiteral(lit.Value)
	if err != nil {
		diag.ReportError(fx.reporter, diag.FmtBadLiteral, litSpan, fmt.Sprintf("malformed string literal: %v", err)).Emit()
		return "", false
	}
	if i := strings.IndexByte(decoded.Value, 0); i >= 0 {
		s, e := decoded.sourceRange(i, i+1)
		diag.ReportError(fx.reporter, diag.FmtEmbeddedNUL, litSpan, "format contains a NUL byte").
			WithNote(fx.span(litStart+s, litStart+e), "the device runtime stops reading here").
			Emit()
		return "", false
	}

	res, err := printf.CheckLimit(decoded.Value, len(args), fx.cfg.Limits.MaxArgsWarning)
	if err != nil {
		fx.reportCheck(err, call, lit, decoded)
		return "", false
	}
	if res.TooManyArgs {
		diag.ReportWarning(fx.reporter, diag.FmtTooManyArgs, litSpan, printf.TooManyArgsMsg).
			WithNote(litSpan, "see "+printf.TooManyArgsLink).
			Emit()
	}
	if !ok {
		return "", false
	}

	out, err := emit.Expression(emit.Call{
		Format: decoded.Value,
		Args:   args,
		Types:  res.Types,
		Record: fx.names.Fresh(),
	}, fx.emitOpts, fx.eng)
	if err != nil {
		diag.ReportError(fx.reporter, diag.SynGoSyntax, fx.nodeSpan(call), err.Error()).Emit()
		return "", false
	}
	if out.Mismatch != "" {
		diag.ReportWarning(fx.reporter, diag.FmtLayoutMismatch, fx.nodeSpan(call),
			fmt.Sprintf("generated record does not match %s: %s", out.Layout.Target, out.Mismatch)).
			WithNote(litSpan, fmt.Sprintf("record is size %d, align %d on %s; size %d, align %d on %s",
				out.Host.Size, out.Host.Align, out.Host.Target, out.Layout.Size, out.Layout.Align, out.Layout.Target)).
			Emit()
	}
	fx.calls++
	trace.Point(fx.tracer, trace.ScopeNode, "call",
		fmt.Sprintf("%s %v size=%d align=%d", fx.nodeSpan(call), res.Types, out.Layout.Size, out.Layout.Align), fx.parent)
	return out.Expr, true
}

func (fx *fileExpander) reportCheck(err error, call *ast.CallExpr, lit *ast.BasicLit, decoded literal) {
	litStart := fx.tf.Offset(lit.Pos())
	litSpan := fx.nodeSpan(lit)

	var pe *printf.ParseError
	var ae *printf.ArityError
	switch {
	case errors.As(err, &pe):
		end := len(decoded.Value)
		if pe.HasEnd {
			end = pe.End
		}
		s, e := decoded.sourceRange(pe.Start, end)
		sub := fx.span(litStart+s, litStart+e)
		b := diag.ReportError(fx.reporter, pe.Kind.Code(), litSpan, pe.Error()).
			WithNote(sub, "in this conversion")
		// правка возможна только если фрагмент записан без escape-последовательностей
		if sugg, ok := pe.Suggestion(); ok && string(fx.src[litStart+s:litStart+e]) == pe.Snippet() {
			b.WithSuggestion(sub, pe.Snippet(), sugg)
		}
		b.Emit()
	case errors.As(err, &ae):
		b := diag.ReportError(fx.reporter, diag.FmtArityMismatch, litSpan, ae.Error())
		if ae.Got > ae.Want {
			b.WithNote(fx.nodeSpan(call.Args[1+ae.Want]), "unexpected argument")
		} else {
			at := fx.tf.Offset(call.Rparen)
			b.WithNote(fx.span(at, at+1), fmt.Sprintf("%d more argument(s) expected", ae.Want-ae.Got))
		}
		b.Emit()
	default:
		diag.ReportError(fx.reporter, diag.UnknownCode, litSpan, err.Error()).Emit()
	}
}

// render returns src[lo:hi] with the call sites in sites replaced by their
// expansions.
func (fx *fileExpander) render(lo, hi int, sites []*callSite) (string, bool) {
	var b strings.Builder
	ok := true
	pos := lo
	for _, s := range sites {
		if s.start < lo || s.end > hi {
			continue
		}
		b.Write(fx.src[pos:s.start])
		text, good := fx.expandSite(s)
		if !good {
			ok = false
			text = string(fx.src[s.start:s.end])
		}
		b.WriteString(text)
		pos = s.end
	}
	b.Write(fx.src[pos:hi])
	return b.String(), ok
}

// applyEdits splices non-overlapping edits into src.
func applyEdits(src []byte, edits []textEdit) string {
	slices.SortStableFunc(edits, func(a, b textEdit) int {
		return a.start - b.start
	})
	var b strings.Builder
	b.Grow(len(src) + 256*len(edits))
	pos := 0
	for _, e := range edits {
		if e.start < pos {
			continue
		}
		b.Write(src[pos:e.start])
		b.WriteString(e.text)
		pos = e.end
	}
	b.Write(src[pos:])
	return b.String()
}
