package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("kernel.go", []byte("package k\n"), 0)
	id2 := fs.Add("kernel.go", []byte("package kernel\n"), 0)
	if id1 == id2 {
		t.Fatalf("expected distinct ids, got %d twice", id1)
	}
	latest, ok := fs.GetLatest("kernel.go")
	if !ok || latest != id2 {
		t.Fatalf("GetLatest = %d,%v; want %d,true", latest, ok, id2)
	}
	if got := string(fs.Get(id1).Content); got != "package k\n" {
		t.Errorf("old version content = %q", got)
	}
	if fs.Len() != 2 {
		t.Errorf("Len = %d, want 2", fs.Len())
	}
	if fs.Get(FileID(42)) != nil {
		t.Error("expected nil for unknown id")
	}
}

func TestResolveLineCol(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("main.go", []byte("package main\n\nfunc main() {\n}\n"))

	tests := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{Line: 1, Col: 1}},
		{12, LineCol{Line: 1, Col: 13}}, // сам '\n' принадлежит первой строке
		{13, LineCol{Line: 2, Col: 1}},
		{19, LineCol{Line: 3, Col: 6}},
	}
	for _, tt := range tests {
		start, _ := fs.Resolve(Span{File: id, Start: tt.off, End: tt.off})
		if start != tt.want {
			t.Errorf("Resolve(%d) = %+v, want %+v", tt.off, start, tt.want)
		}
	}
}

func TestGetLineAndSlice(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.go", []byte("one\ntwo\nthree"))
	f := fs.Get(id)

	if got := f.GetLine(2); got != "two" {
		t.Errorf("GetLine(2) = %q", got)
	}
	if got := f.GetLine(3); got != "three" {
		t.Errorf("GetLine(3) = %q", got)
	}
	if got := f.GetLine(9); got != "" {
		t.Errorf("GetLine(9) = %q, want empty", got)
	}
	if got := string(f.Slice(Span{File: id, Start: 4, End: 7})); got != "two" {
		t.Errorf("Slice = %q", got)
	}
	if got := string(f.Slice(Span{File: id, Start: 8, End: 100})); got != "three" {
		t.Errorf("clamped Slice = %q", got)
	}
}

func TestLoadNormalizesBOMAndCRLF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crlf.go")
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte("package p\r\nvar x = 1\r\n")...)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	f := fs.Get(id)
	if string(f.Content) != "package p\nvar x = 1\n" {
		t.Errorf("content = %q", f.Content)
	}
	if f.Flags&FileHadBOM == 0 || f.Flags&FileNormalizedCRLF == 0 {
		t.Errorf("flags = %b, want BOM and CRLF bits", f.Flags)
	}
}

func TestSpanOf(t *testing.T) {
	sp, err := SpanOf(3, 10, 14)
	if err != nil {
		t.Fatal(err)
	}
	if sp.Len() != 4 || sp.File != 3 {
		t.Errorf("unexpected span %v", sp)
	}
	if _, err := SpanOf(0, -1, 2); err == nil {
		t.Error("expected error for negative start")
	}
	if _, err := SpanOf(0, 5, 2); err == nil {
		t.Error("expected error for inverted span")
	}
	outer := Span{File: 1, Start: 0, End: 10}
	if !outer.Contains(Span{File: 1, Start: 2, End: 10}) {
		t.Error("expected containment")
	}
	if outer.Contains(Span{File: 2, Start: 2, End: 3}) {
		t.Error("different files must not be contained")
	}
}

func TestRelativePathOutsideBaseFallsBackToAbsolute(t *testing.T) {
	tmp := t.TempDir()
	base := filepath.Join(tmp, "base")
	target := filepath.Join(tmp, "other", "file.go")

	got, err := RelativePath(target, base)
	if err != nil {
		t.Fatalf("RelativePath: %v", err)
	}
	if got != normalizePath(target) {
		t.Fatalf("expected absolute fallback %q, got %q", normalizePath(target), got)
	}

	inside, err := RelativePath(filepath.Join(base, "pkg", "a.go"), base)
	if err != nil {
		t.Fatal(err)
	}
	if inside != "pkg/a.go" {
		t.Errorf("inside = %q", inside)
	}
}
