package emit

import (
	"go/format"
	"strings"
	"testing"

	"vprintf/internal/layout"
	"vprintf/internal/printf"
)

func TestExpressionShape(t *testing.T) {
	res, err := Expression(Call{
		Format: "x=%d %s\n",
		Args:   []string{"x", "name"},
		Types:  []printf.WireType{printf.I32, printf.StrPtr},
		Record: "vprintfArgs0",
	}, DefaultOptions(), layout.MustNew(layout.NVPTX64()))
	if err != nil {
		t.Fatal(err)
	}
	want := "func(a0 int32, a1 *byte) int32 {\n" +
		"\ttype vprintfArgs0 struct {\n" +
		"\t\tf0 int32\n" +
		"\t\tf1 *byte\n" +
		"\t}\n" +
		"\tvargs := vprintfArgs0{a0, a1}\n" +
		"\treturn devrt.Vprintf(unsafe.StringData(\"x=%d %s\\n\\x00\"), unsafe.Pointer(&vargs))\n" +
		"}(int32(x), devrt.CString(name))"
	if res.Expr != want {
		t.Fatalf("unexpected expression:\nwant:\n%s\n\ngot:\n%s", want, res.Expr)
	}
	if res.Layout.Size != 16 || res.Layout.Align != 8 {
		t.Fatalf("unexpected layout %+v", res.Layout)
	}
	if res.Host.Target != layout.Host().Triple {
		t.Fatalf("host layout computed for %q", res.Host.Target)
	}
}

func TestExpressionConversions(t *testing.T) {
	res, err := Expression(Call{
		Format: "%hu %lld %llu %f %c %p",
		Args:   []string{"a", " b+1 ", "c", "d", "'x'", "&buf[0]", "label", "nil"},
		Types:  []printf.WireType{printf.U16, printf.I64, printf.U64, printf.F64, printf.U32, printf.VoidPtr, printf.StrPtr, printf.StrPtr},
		Record: "vprintfArgs3",
	}, Options{Runtime: "rt", Unsafe: "uns"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"func(a0 uint16, a1 int64, a2 uint64, a3 float64, a4 uint32, a5 uns.Pointer, a6 *byte, a7 *byte) int32 {",
		"vprintfArgs3{a0, a1, a2, a3, a4, a5, a6, a7}",
		"}(uint16(a), int64(b+1), uint64(c), float64(d), uint32('x'), rt.Pointer(5, &buf[0]), rt.CString(label), nil)",
		"f5 uns.Pointer",
		"return rt.Vprintf(uns.StringData(",
	} {
		if !strings.Contains(res.Expr, want) {
			t.Errorf("expression missing %q:\n%s", want, res.Expr)
		}
	}
}

func TestExpressionEmptyRecord(t *testing.T) {
	res, err := Expression(Call{Format: "hello %% world", Record: "vprintfArgs0"}, DefaultOptions(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(res.Expr, "func() int32 {") || !strings.HasSuffix(res.Expr, "}()") ||
		!strings.Contains(res.Expr, "type vprintfArgs0 struct{}") || !strings.Contains(res.Expr, "vargs := vprintfArgs0{}") {
		t.Fatalf("unexpected empty-record expression:\n%s", res.Expr)
	}
}

func TestExpressionIsGofmtStable(t *testing.T) {
	res, err := Expression(Call{
		Format: "%d %s %p",
		Args:   []string{"n", "name", "ptr"},
		Types:  []printf.WireType{printf.I32, printf.StrPtr, printf.VoidPtr},
		Record: "vprintfArgs0",
	}, DefaultOptions(), nil)
	if err != nil {
		t.Fatal(err)
	}
	src := "package p\n\nfunc f() {\n\t_ = " + strings.ReplaceAll(res.Expr, "\n", "\n\t") + "\n}\n"
	out, err := format.Source([]byte(src))
	if err != nil {
		t.Fatalf("format.Source: %v\n%s", err, src)
	}
	if string(out) != src {
		t.Fatalf("expression is not gofmt-clean:\nwant:\n%s\ngot:\n%s", src, out)
	}
}

func TestExpressionRejectsMismatch(t *testing.T) {
	_, err := Expression(Call{Format: "%d %d", Args: []string{"a"}, Types: []printf.WireType{printf.I32, printf.I32}, Record: "r"}, DefaultOptions(), nil)
	if err == nil {
		t.Fatal("expected arity error")
	}
	_, err = Expression(Call{Format: "a\x00b", Record: "r"}, DefaultOptions(), nil)
	if err == nil {
		t.Fatal("expected NUL rejection")
	}
}

func TestNamesSkipUsed(t *testing.T) {
	n := NewNames(map[string]struct{}{"vprintfArgs0": {}, "vprintfArgs2": {}})
	got := []string{n.Fresh(), n.Fresh(), n.Fresh()}
	want := []string{"vprintfArgs1", "vprintfArgs3", "vprintfArgs4"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("names = %v, want %v", got, want)
		}
	}
}

func TestExpressionReportsLayoutMismatch(t *testing.T) {
	call := Call{
		Format: "%d %lld",
		Args:   []string{"a", "b"},
		Types:  []printf.WireType{printf.I32, printf.I64},
		Record: "vprintfArgs0",
	}
	res, err := Expression(call, DefaultOptions(), layout.HostEngine())
	if err != nil {
		t.Fatal(err)
	}
	if res.Mismatch != "" {
		t.Fatalf("host against itself: %q", res.Mismatch)
	}

	if layout.Host().Int64Align == 4 {
		t.Skip("host already packs 8-byte scalars at 4")
	}
	res, err = Expression(call, DefaultOptions(), layout.MustNew(layout.I386()))
	if err != nil {
		t.Fatal(err)
	}
	if res.Layout.Size != 12 || res.Host.Size != 16 {
		t.Fatalf("sizes: target %d host %d", res.Layout.Size, res.Host.Size)
	}
	if !strings.Contains(res.Mismatch, "argument 2 (int64_t)") || !strings.Contains(res.Mismatch, "offset 4 on i386-linux-gnu") {
		t.Fatalf("Mismatch = %q", res.Mismatch)
	}
}
