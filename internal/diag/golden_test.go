package diag

import (
	"testing"

	"vprintf/internal/source"
)

func TestFormatGolden(t *testing.T) {
	fs := source.NewFileSet()
	fs.SetBaseDir("/workspace")

	userFile := fs.Add("/workspace/kernels/add.go", []byte("a\nb\n"), 0)
	genFile := fs.Add("/workspace/kernels/add_vprintf.go", []byte("x\n"), source.FileGenerated)
	request := fs.AddVirtual("input.go", []byte("c\n"))

	diags := []*Diagnostic{
		{
			Severity: SevError,
			Code:     FmtSizeNotAllowed,
			Message:  "first line\nsecond",
			Primary:  source.Span{File: userFile, Start: 0, End: 1},
			Notes: []Note{
				{Span: source.Span{File: genFile, Start: 0, End: 0}, Msg: "skip me"},
				{Span: source.Span{File: userFile, Start: 2, End: 3}, Msg: "note line"},
			},
		},
		{
			Severity: SevWarning,
			Code:     FmtTooManyArgs,
			Message:  "another",
			Primary:  source.Span{File: userFile, Start: 2, End: 3},
		},
		NewError(SynGoSyntax, source.Span{File: genFile}, "bad"),
		New(SevWarning, FmtLayoutMismatch, source.Span{File: request}, "record  differs"),
	}

	expected := "warning FMT1301 input.go:1:1 record  differs\n" +
		"error FMT1005 kernels/add.go:1:1 first line second\n" +
		"note FMT1005 kernels/add.go:2:1 note line\n" +
		"warning FMT1901 kernels/add.go:2:1 another"
	if got := FormatGolden(fs, diags, true); got != expected {
		t.Fatalf("unexpected golden diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
	if got := FormatGolden(fs, diags[:1], false); got != "error FMT1005 kernels/add.go:1:1 first line second" {
		t.Fatalf("notes must be left out: %q", got)
	}
}

func TestSeverityLabels(t *testing.T) {
	tests := []struct {
		sev    Severity
		label  string
		str    string
		blocks [2]bool // without, with --warnings-as-errors
	}{
		{SevInfo, "info", "INFO", [2]bool{false, false}},
		{SevWarning, "warning", "WARNING", [2]bool{false, true}},
		{SevError, "error", "ERROR", [2]bool{true, true}},
		{Severity(9), "unknown", "UNKNOWN", [2]bool{true, true}},
	}
	for _, tt := range tests {
		if tt.sev.Label() != tt.label || tt.sev.String() != tt.str {
			t.Errorf("%d: label %q string %q", tt.sev, tt.sev.Label(), tt.sev.String())
		}
		if tt.sev.Blocks(false) != tt.blocks[0] || tt.sev.Blocks(true) != tt.blocks[1] {
			t.Errorf("%s: unexpected Blocks", tt.sev)
		}
	}
}

func TestCodeID(t *testing.T) {
	tests := []struct {
		code Code
		want string
	}{
		{FmtInvalidType, "FMT1001"},
		{FmtTooManyArgs, "FMT1901"},
		{SynGoSyntax, "SYN2001"},
		{IOLoadFileError, "IO4001"},
		{ObsTimings, "OBS6001"},
		{UnknownCode, "E0000"},
	}
	for _, tt := range tests {
		if got := tt.code.ID(); got != tt.want {
			t.Errorf("Code(%d).ID() = %q, want %q", tt.code, got, tt.want)
		}
	}
	if got := FmtArityMismatch.String(); got != "[FMT1101]: Argument count does not match format" {
		t.Errorf("unexpected String(): %q", got)
	}
}

func TestBagSortDedupAndLimit(t *testing.T) {
	b := NewBag(3)
	sp := func(start uint32) source.Span { return source.Span{File: 1, Start: start, End: start + 1} }
	b.Add(NewError(FmtInvalidType, sp(5), "b"))
	b.Add(New(SevWarning, FmtTooManyArgs, sp(1), "a"))
	b.Add(NewError(FmtInvalidType, sp(5), "b"))
	if b.Add(NewError(FmtInvalidType, sp(9), "c")) {
		t.Fatal("bag must refuse items past its limit")
	}
	b.Sort()
	b.Dedup()
	if b.Len() != 2 {
		t.Fatalf("expected 2 items after dedup, got %d", b.Len())
	}
	if b.Items()[0].Code != FmtTooManyArgs {
		t.Fatalf("expected warning first after sort, got %s", b.Items()[0].Code.ID())
	}
	if !b.HasErrors() || !b.HasWarnings() {
		t.Fatal("expected both errors and warnings")
	}
}

func TestReportBuilderEmitsOnce(t *testing.T) {
	bag := NewBag(0)
	r := NewDedupReporter(BagReporter{Bag: bag})
	lit := source.Span{File: 1, Start: 0, End: 8}
	conv := func(start uint32) source.Span { return source.Span{File: 1, Start: start, End: start + 3} }
	const msg = `long int is not supported: "%ld"`

	b := ReportError(r, FmtSizeNotAllowed, lit, msg).
		WithNote(conv(1), "in this conversion").
		WithSuggestion(conv(1), "%ld", "%lld")
	b.Emit()
	b.Emit()
	ReportError(r, FmtSizeNotAllowed, lit, msg).WithNote(conv(1), "in this conversion").Emit()
	// same literal, other conversion
	ReportError(r, FmtSizeNotAllowed, lit, msg).WithNote(conv(5), "in this conversion").Emit()

	if bag.Len() != 2 || r.Dropped() != 1 {
		t.Fatalf("expected 2 diagnostics and 1 dropped, got %d and %d", bag.Len(), r.Dropped())
	}
	d := bag.Items()[0]
	if len(d.Notes) != 1 || len(d.Fixes) != 1 {
		t.Fatalf("unexpected diagnostic payload: %+v", d)
	}
	if f := d.Fixes[0]; f.Title != "use %lld" || f.Edits[0].NewText != "%lld" || f.Edits[0].OldText != "%ld" {
		t.Fatalf("unexpected fix %+v", f)
	}
}
