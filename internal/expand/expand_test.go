package expand

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vprintf/internal/config"
	"vprintf/internal/diag"
	"vprintf/internal/layout"
	"vprintf/internal/pipeline"
	"vprintf/internal/source"
	"vprintf/internal/testkit"
)

const kernelSrc = `//go:build vprintf

package kern

import "vprintf/devrt"

func Report(x int, name *byte) {
	devrt.Printf("x=%d %s\n", x, name)
}
`

func expandSource(t *testing.T, src string, explicit bool) (*source.FileSet, FileResult) {
	t.Helper()
	return expandSourceWith(t, config.Default(), src, explicit)
}

func expandSourceWith(t *testing.T, cfg config.Config, src string, explicit bool) (*source.FileSet, FileResult) {
	t.Helper()
	x, err := New(cfg, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	fs := source.NewFileSet()
	id := fs.AddVirtual("kern.go", []byte(src))
	res := x.Expand(context.Background(), fs, id, explicit)
	if err := testkit.CheckSpanInvariants(fs, res.Bag); err != nil {
		t.Fatalf("span invariants: %v", err)
	}
	return fs, res
}

func onlyDiag(t *testing.T, res FileResult) *diag.Diagnostic {
	t.Helper()
	items := res.Bag.Items()
	if len(items) != 1 {
		t.Fatalf("want 1 diagnostic, got %d: %+v", len(items), items)
	}
	return items[0]
}

func spanText(fs *source.FileSet, sp source.Span) string {
	return string(fs.Get(sp.File).Content[sp.Start:sp.End])
}

func TestExpandRewritesCallSite(t *testing.T) {
	_, res := expandSource(t, kernelSrc, true)
	if res.Failed() {
		t.Fatalf("unexpected diagnostics: %+v", res.Bag.Items())
	}
	out := string(res.Output)
	if !strings.HasPrefix(out, Header("kern.go")+"\n") {
		t.Fatalf("missing header:\n%s", out)
	}
	for _, want := range []string{
		"//go:build !vprintf\n",
		"import (\n\t\"unsafe\"\n\n\t\"vprintf/devrt\"\n)\n",
		"func(a0 int32, a1 *byte) int32 {",
		"type vprintfArgs0 struct {",
		"f0 int32",
		"f1 *byte",
		"vargs := vprintfArgs0{a0, a1}",
		"}(int32(x), devrt.CString(name))",
		`return devrt.Vprintf(unsafe.StringData("x=%d %s\n\x00"), unsafe.Pointer(&vargs))`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "devrt.Printf") || strings.Contains(out, "//go:build vprintf") {
		t.Errorf("call site or constraint left in output:\n%s", out)
	}
	if res.Calls != 1 || res.OutPath != "kern_vprintf.go" {
		t.Fatalf("calls=%d outPath=%q", res.Calls, res.OutPath)
	}
}

func TestExpandKeepsExistingUnsafeAndAlias(t *testing.T) {
	src := `//go:build vprintf && linux

package kern

import (
	u "unsafe"

	rt "vprintf/devrt"
)

var _ = u.Sizeof(0)

func Hello() int32 {
	return rt.Printf("hello %% world\n")
}
`
	_, res := expandSource(t, src, true)
	if res.Failed() {
		t.Fatalf("unexpected diagnostics: %+v", res.Bag.Items())
	}
	out := string(res.Output)
	for _, want := range []string{
		"//go:build !vprintf && linux",
		"type vprintfArgs0 struct{}",
		"vargs := vprintfArgs0{}",
		`return rt.Vprintf(u.StringData("hello %% world\n\x00"), u.Pointer(&vargs))`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
	if strings.Count(out, `"unsafe"`) != 1 {
		t.Errorf("unsafe imported twice:\n%s", out)
	}
}

func TestExpandNestedCalls(t *testing.T) {
	src := `//go:build vprintf

package kern

import "vprintf/devrt"

func Nested() {
	devrt.Printf("%d\n", devrt.Printf("inner\n"))
}
`
	_, res := expandSource(t, src, true)
	if res.Failed() {
		t.Fatalf("unexpected diagnostics: %+v", res.Bag.Items())
	}
	out := string(res.Output)
	if got := strings.Count(out, "devrt.Vprintf("); got != 2 {
		t.Fatalf("want 2 runtime calls, got %d:\n%s", got, out)
	}
	if !strings.Contains(out, "vprintfArgs1") || strings.Contains(out, "devrt.Printf") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if res.Calls != 2 {
		t.Fatalf("calls = %d", res.Calls)
	}
}

func TestExpandRecordNameAvoidsFileIdentifiers(t *testing.T) {
	src := `//go:build vprintf

package kern

import "vprintf/devrt"

type vprintfArgs0 int

func F(v vprintfArgs0) {
	devrt.Printf("%d\n", v)
}
`
	_, res := expandSource(t, src, true)
	if res.Failed() {
		t.Fatalf("unexpected diagnostics: %+v", res.Bag.Items())
	}
	if !strings.Contains(string(res.Output), "type vprintfArgs1 struct {") {
		t.Fatalf("record name collides:\n%s", res.Output)
	}
}

func TestExpandDeferredCallEvaluatesArgumentsAtStatement(t *testing.T) {
	src := `//go:build vprintf

package kern

import "vprintf/devrt"

func Deferred() {
	x := 1
	defer devrt.Printf("deferred x=%d\n", x)
	go devrt.Printf("async x=%d\n", x)
	x = 5
}
`
	_, res := expandSource(t, src, true)
	if res.Failed() {
		t.Fatalf("unexpected diagnostics: %+v", res.Bag.Items())
	}
	f, err := parser.ParseFile(token.NewFileSet(), "kern_vprintf.go", res.Output, 0)
	if err != nil {
		t.Fatalf("generated file does not parse: %v\n%s", err, res.Output)
	}

	var calls []*ast.CallExpr
	ast.Inspect(f, func(n ast.Node) bool {
		switch st := n.(type) {
		case *ast.DeferStmt:
			calls = append(calls, st.Call)
		case *ast.GoStmt:
			calls = append(calls, st.Call)
		}
		return true
	})
	if len(calls) != 2 {
		t.Fatalf("want defer and go statements, got %d:\n%s", len(calls), res.Output)
	}
	for _, call := range calls {
		lit, ok := call.Fun.(*ast.FuncLit)
		if !ok {
			t.Fatalf("statement does not call a function literal:\n%s", res.Output)
		}
		if len(call.Args) != 1 || len(lit.Type.Params.List) != 1 {
			t.Fatalf("argument must be passed as a parameter:\n%s", res.Output)
		}
		// x is read at the statement, never inside the body
		ast.Inspect(lit.Body, func(n ast.Node) bool {
			if id, ok := n.(*ast.Ident); ok && id.Name == "x" {
				t.Errorf("function body reads x:\n%s", res.Output)
			}
			return true
		})
	}
	if !strings.Contains(string(res.Output), "}(int32(x))") {
		t.Fatalf("converted argument missing:\n%s", res.Output)
	}
}

func TestExpandConvertsStringAndPointerArguments(t *testing.T) {
	src := `//go:build vprintf

package kern

import (
	"fmt"

	rt "vprintf/devrt"
)

func Hi(buf []byte) {
	name := fmt.Sprint("gpu")
	rt.Printf("hi %s %s %p %p\n", name, buf, buf, nil)
}
`
	_, res := expandSource(t, src, true)
	if res.Failed() {
		t.Fatalf("unexpected diagnostics: %+v", res.Bag.Items())
	}
	out := string(res.Output)
	for _, want := range []string{
		"func(a0 *byte, a1 *byte, a2 unsafe.Pointer, a3 unsafe.Pointer) int32 {",
		"}(rt.CString(name), rt.CString(buf), rt.Pointer(2, buf), rt.Pointer(3, nil))",
		"import (\n\t\"fmt\"\n\t\"unsafe\"\n\n\trt \"vprintf/devrt\"\n)\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}

func TestExpandMergesUnsafeImport(t *testing.T) {
	tests := []struct {
		name    string
		imports string
		want    string
	}{
		{
			"single third-party import",
			`import "vprintf/devrt"`,
			"import (\n\t\"unsafe\"\n\n\t\"vprintf/devrt\"\n)\n",
		},
		{
			"block with stdlib group",
			"import (\n\t\"math\"\n\n\t\"vprintf/devrt\"\n)",
			"import (\n\t\"math\"\n\t\"unsafe\"\n\n\t\"vprintf/devrt\"\n)\n",
		},
		{
			"block without stdlib",
			"import (\n\tdv \"vprintf/devrt\"\n)",
			"import (\n\t\"unsafe\"\n\n\tdv \"vprintf/devrt\"\n)\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alias := "devrt"
			if strings.Contains(tt.imports, "dv ") {
				alias = "dv"
			}
			body := "\t" + alias + ".Printf(\"%f\\n\", 1.5)\n"
			if strings.Contains(tt.imports, "math") {
				body = "\t" + alias + ".Printf(\"%f\\n\", math.Pi)\n"
			}
			src := "//go:build vprintf\n\npackage kern\n\n" + tt.imports + "\n\nfunc F() {\n" + body + "}\n"
			_, res := expandSource(t, src, true)
			if res.Failed() {
				t.Fatalf("unexpected diagnostics: %+v", res.Bag.Items())
			}
			out := string(res.Output)
			if !strings.Contains(out, tt.want) {
				t.Fatalf("want imports:\n%s\ngot:\n%s", tt.want, out)
			}
			if strings.Count(out, "import") != 1 {
				t.Fatalf("want a single import declaration:\n%s", out)
			}
		})
	}
}

func TestExpandWarnsOnTargetLayoutMismatch(t *testing.T) {
	if layout.Host().Int64Align == 4 {
		t.Skip("host already places 8-byte scalars at 4-byte alignment")
	}
	cfg := config.Default()
	cfg.Target.Name = "i386"
	fs, res := expandSourceWith(t, cfg, callSrc(`devrt.Printf("%d %lld\n", n, n)`), true)
	if res.Failed() || res.Output == nil {
		t.Fatalf("a layout mismatch is a warning: %+v", res.Bag.Items())
	}
	got := diag.FormatGolden(fs, res.Bag.Items(), false)
	want := "warning FMT1301 kern.go:8:2 generated record does not match i386-linux-gnu: argument 2 (int64_t) is 8 bytes at offset 8 on " +
		layout.Host().Triple + ", 8 bytes at offset 4 on i386-linux-gnu"
	if got != want {
		t.Fatalf("diagnostics:\nwant:\n%s\n\ngot:\n%s", want, got)
	}

	_, res = expandSourceWith(t, config.Default(), callSrc(`devrt.Printf("%d %lld\n", n, n)`), true)
	if res.Bag.Len() != 0 && layout.Host().PtrSize == 8 {
		t.Fatalf("nvptx64 matches a 64-bit host: %+v", res.Bag.Items())
	}
}

func callSrc(call string) string {
	return fmt.Sprintf(`//go:build vprintf

package kern

import "vprintf/devrt"

func F(n int, args []any, f string) {
	%s
}
`, call)
}

func TestExpandReportsFormatErrors(t *testing.T) {
	fs, res := expandSource(t, callSrc(`devrt.Printf("n=%ld\n", n)`), true)
	if res.Output != nil {
		t.Fatal("output produced for a file with errors")
	}
	d := onlyDiag(t, res)
	if d.Code != diag.FmtSizeNotAllowed || d.Message != `long int is not supported: "%ld"` {
		t.Fatalf("unexpected diagnostic %v %q", d.Code, d.Message)
	}
	if got := spanText(fs, d.Primary); got != `"n=%ld\n"` {
		t.Fatalf("primary span = %q", got)
	}
	if len(d.Notes) != 1 || spanText(fs, d.Notes[0].Span) != "%ld" {
		t.Fatalf("unexpected notes %+v", d.Notes)
	}
	if len(d.Fixes) != 1 || d.Fixes[0].Edits[0].NewText != "%lld" {
		t.Fatalf("unexpected fixes %+v", d.Fixes)
	}
	want := "error FMT1005 kern.go:8:15 long int is not supported: \"%ld\"\n" +
		"note FMT1005 kern.go:8:18 in this conversion"
	if got := diag.FormatGolden(fs, res.Bag.Items(), true); got != want {
		t.Fatalf("diagnostics:\nwant:\n%s\n\ngot:\n%s", want, got)
	}
}

func TestExpandCallShapeErrors(t *testing.T) {
	tests := []struct {
		name string
		call string
		code diag.Code
		span string
	}{
		{"arity", `devrt.Printf("%d %d\n", n)`, diag.FmtArityMismatch, `"%d %d\n"`},
		{"extra", `devrt.Printf("%d\n", n, n)`, diag.FmtArityMismatch, `"%d\n"`},
		{"non-literal", `devrt.Printf(f, n)`, diag.FmtNonLiteral, "f"},
		{"no-args", `devrt.Printf()`, diag.FmtNonLiteral, "devrt.Printf()"},
		{"spread", `devrt.Printf("%d\n", args...)`, diag.FmtSpreadArgs, "..."},
		{"nul", `devrt.Printf("a\x00b")`, diag.FmtEmbeddedNUL, `"a\x00b"`},
		{"variable-width", `devrt.Printf("%*d\n", n)`, diag.FmtVariableWidth, `"%*d\n"`},
		{"ended-early", `devrt.Printf("%-")`, diag.FmtEndedEarly, `"%-"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, res := expandSource(t, callSrc(tt.call), true)
			d := onlyDiag(t, res)
			if d.Code != tt.code {
				t.Fatalf("code = %v, want %v (%s)", d.Code, tt.code, d.Message)
			}
			if got := spanText(fs, d.Primary); got != tt.span {
				t.Fatalf("span = %q, want %q", got, tt.span)
			}
		})
	}
}

func TestExpandTooManyArgsWarns(t *testing.T) {
	var names []string
	for range 33 {
		names = append(names, "n")
	}
	call := fmt.Sprintf(`devrt.Printf("%s", %s)`, strings.Repeat("%d", 33), strings.Join(names, ", "))
	_, res := expandSource(t, callSrc(call), true)
	d := onlyDiag(t, res)
	if d.Severity != diag.SevWarning || d.Code != diag.FmtTooManyArgs {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
	if res.Output == nil {
		t.Fatal("the advisory must not suppress output")
	}
}

func TestExpandConstraintHandling(t *testing.T) {
	src := strings.TrimPrefix(kernelSrc, "//go:build vprintf\n\n")

	_, res := expandSource(t, src, false)
	if !res.Skipped || res.Bag.Len() != 0 {
		t.Fatalf("walked file without constraint: skipped=%v diags=%d", res.Skipped, res.Bag.Len())
	}

	_, res = expandSource(t, src, true)
	d := onlyDiag(t, res)
	if d.Code != diag.SynMissingConstraint || len(d.Fixes) != 1 {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
}

func TestExpandSyntaxError(t *testing.T) {
	_, res := expandSource(t, "//go:build vprintf\n\npackage kern\n\nfunc {\n", true)
	if !res.Failed() {
		t.Fatal("expected a syntax error")
	}
	if d := res.Bag.Items()[0]; d.Code != diag.SynGoSyntax {
		t.Fatalf("code = %v", d.Code)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCollectSkipsNonInputs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"a.go", "a_vprintf.go", "a_test.go", "notes.txt",
		"testdata/x.go", ".hidden/y.go", "vendor/z.go", "sub/b.go",
	} {
		writeFile(t, filepath.Join(dir, name), "package p\n")
	}
	inputs, err := Collect([]string{dir, filepath.Join(dir, "a.go")}, "_vprintf.go")
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, in := range inputs {
		rel, _ := filepath.Rel(dir, filepath.FromSlash(in.Path))
		got = append(got, filepath.ToSlash(rel))
	}
	if strings.Join(got, ",") != "a.go,sub/b.go" {
		t.Fatalf("inputs = %v", got)
	}
	if !inputs[0].Explicit || inputs[1].Explicit {
		t.Fatalf("explicit flags = %+v", inputs)
	}
}

func TestRunWritesAndCaches(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "kern.go"), kernelSrc)
	writeFile(t, filepath.Join(dir, "plain.go"), "package kern\n")

	cache, err := OpenDiskCache("vprintf", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	var events []pipeline.Event
	sink := make(chan pipeline.Event, 64)
	var timings pipeline.Timings
	x, err := New(config.Default(), Options{
		Jobs:    2,
		Write:   true,
		Cache:   cache,
		Sink:    pipeline.ChannelSink{Ch: sink},
		Timings: &timings,
	})
	if err != nil {
		t.Fatal(err)
	}

	_, results, err := x.Run(context.Background(), []string{dir})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d", len(results))
	}
	kern, plain := results[0], results[1]
	if !kern.Written || kern.Cached || kern.Failed() {
		t.Fatalf("kern: %+v", kern)
	}
	if !plain.Skipped {
		t.Fatalf("plain.go should be skipped: %+v", plain)
	}
	written, err := os.ReadFile(filepath.Join(dir, "kern_vprintf.go"))
	if err != nil || string(written) != string(kern.Output) {
		t.Fatalf("generated file mismatch: %v", err)
	}
	if !timings.Has(pipeline.StageResolve) || !timings.Has(pipeline.StageWrite) {
		t.Fatal("stage timings not recorded")
	}

	_, results, err = x.Run(context.Background(), []string{dir})
	if err != nil {
		t.Fatal(err)
	}
	if !results[0].Cached || results[0].Written {
		t.Fatalf("second run: %+v", results[0])
	}

	close(sink)
	for ev := range sink {
		events = append(events, ev)
	}
	var sawCache bool
	for _, ev := range events {
		if ev.Stage == pipeline.StageCache && ev.Status == pipeline.StatusDone {
			sawCache = true
		}
	}
	if !sawCache {
		t.Fatal("no cache event reported")
	}
}

func TestRunReportsLoadErrors(t *testing.T) {
	x, err := New(config.Default(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := x.Run(context.Background(), []string{filepath.Join(t.TempDir(), "missing.go")}); err == nil {
		t.Fatal("expected an error for a missing path")
	}
}
