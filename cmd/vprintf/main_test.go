package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vprintf/internal/diag"
	"vprintf/internal/expand"
	"vprintf/internal/layout"
	"vprintf/internal/pipeline"
	"vprintf/internal/printf"
)

func executeRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCheckFormat(t *testing.T) {
	tests := []struct {
		name   string
		format string
		nargs  int
		code   diag.Code
		sev    diag.Severity
		fixes  int
		types  []printf.WireType
	}{
		{name: "ok", format: "x=%d %s", nargs: -1, types: []printf.WireType{printf.I32, printf.StrPtr}},
		{name: "long", format: "%ld", nargs: -1, code: diag.FmtSizeNotAllowed, sev: diag.SevError, fixes: 1},
		{name: "arity", format: "%d", nargs: 0, code: diag.FmtArityMismatch, sev: diag.SevError},
		{name: "too many", format: strings.Repeat("%d", 33), nargs: -1, code: diag.FmtTooManyArgs, sev: diag.SevWarning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, bag, res := checkFormat(tt.format, tt.nargs, 32)
			if tt.code == 0 {
				if bag.Len() != 0 {
					t.Fatalf("unexpected diagnostics: %+v", bag.Items())
				}
				if len(res.Types) != len(tt.types) {
					t.Fatalf("types = %v", res.Types)
				}
				for i := range tt.types {
					if res.Types[i] != tt.types[i] {
						t.Fatalf("types = %v, want %v", res.Types, tt.types)
					}
				}
				return
			}
			if bag.Len() != 1 {
				t.Fatalf("want 1 diagnostic, got %+v", bag.Items())
			}
			d := bag.Items()[0]
			if d.Code != tt.code || d.Severity != tt.sev || len(d.Fixes) != tt.fixes {
				t.Fatalf("diag = %+v", d)
			}
		})
	}
}

func TestCheckFormatSpanCoversConversion(t *testing.T) {
	fs, bag, _ := checkFormat("value %ld\n", -1, 32)
	d := bag.Items()[0]
	got := string(fs.Get(d.Primary.File).Content[d.Primary.Start:d.Primary.End])
	if got != "%ld" {
		t.Fatalf("primary covers %q", got)
	}
	if d.Fixes[0].Edits[0].NewText != "%lld" {
		t.Fatalf("fix = %+v", d.Fixes[0])
	}
}

func TestSummarize(t *testing.T) {
	failed := expand.FileResult{Bag: diag.NewBag(0)}
	failed.Bag.Add(&diag.Diagnostic{Severity: diag.SevError, Code: diag.FmtInvalidType})
	results := []expand.FileResult{
		{Output: []byte("a"), Calls: 2, Written: true, Bag: diag.NewBag(0)},
		{Output: []byte("b"), Calls: 1, Cached: true, Bag: diag.NewBag(0)},
		{Skipped: true, Bag: diag.NewBag(0)},
		failed,
	}
	got := summarize(results, false)
	want := "generated 2 file(s), 3 call site(s), 1 written, 1 cached, 1 skipped, 1 failed"
	if got != want {
		t.Fatalf("summarize = %q, want %q", got, want)
	}
	if got := summarize(results[:1], true); got != "generated 1 file(s), 2 call site(s)" {
		t.Fatalf("stdout summary = %q", got)
	}
}

func TestStageTimings(t *testing.T) {
	timings := &pipeline.Timings{}
	timings.Add(pipeline.StageScan, 2*time.Millisecond)
	timings.Add(pipeline.StageEmit, time.Millisecond)
	timings.Add(pipeline.StageCache, time.Millisecond)

	rep := stageTimer(timings).Report()
	if len(rep.Phases) != 3 || rep.Phases[0].Name != "scan" || rep.Phases[2].Name != "cache" {
		t.Fatalf("phases = %+v", rep.Phases)
	}
	if rep.TotalMS != 4 {
		t.Fatalf("total = %v", rep.TotalMS)
	}

	var buf bytes.Buffer
	printStageTimings(&buf, stageTimer(timings), 3, 5*time.Millisecond)
	if !strings.Contains(buf.String(), "wall") || !strings.Contains(buf.String(), "3 file(s)") {
		t.Fatalf("output:\n%s", buf.String())
	}
}

func TestReadUIMode(t *testing.T) {
	for in, want := range map[string]uiMode{"": uiModeAuto, "ON": uiModeOn, " off ": uiModeOff} {
		got, err := readUIMode(in)
		if err != nil || got != want {
			t.Fatalf("readUIMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := readUIMode("sometimes"); err == nil {
		t.Fatal("expected error")
	}
	if !shouldUseTUI(uiModeOn, 1) || shouldUseTUI(uiModeOff, 10) {
		t.Fatal("explicit modes ignored")
	}
}

func TestRenderLayoutPretty(t *testing.T) {
	eng := layout.MustNew(layout.NVPTX64())
	l, err := eng.LayoutOf([]printf.WireType{printf.I32, printf.StrPtr})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	renderLayoutPretty(&buf, l, false)
	want := "nvptx64-nvidia-cuda: size 16, align 8\n" +
		"  #   type   offset  size align\n" +
		"  0   i32         0     4     4\n" +
		"  1   char*       8     8     8\n"
	if buf.String() != want {
		t.Fatalf("got:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestLayoutCommandC(t *testing.T) {
	out, _, err := executeRoot(t, "layout", "--target", "i386", "--format", "c", "%d %f")
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	for _, want := range []string{"size 12, align 4", "struct vprintf_args {", "double f1; /* offset 4 */"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestGenerateCommand(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "kern.go")
	src := "//go:build vprintf\n\npackage kern\n\nimport \"vprintf/devrt\"\n\nfunc F(x int) {\n\tdevrt.Printf(\"%d\\n\", x)\n}\n"
	if err := os.WriteFile(good, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, err := executeRoot(t, "generate", "--quiet", "--no-cache", "--ui", "off", dir)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	out, err := os.ReadFile(filepath.Join(dir, "kern_vprintf.go"))
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if !strings.Contains(string(out), "devrt.Vprintf(") {
		t.Fatalf("output:\n%s", out)
	}

	bad := filepath.Join(dir, "bad.go")
	if err := os.WriteFile(bad, []byte(strings.Replace(src, "%d", "%ld", 1)), 0o644); err != nil {
		t.Fatal(err)
	}
	stdout, _, err := executeRoot(t, "generate", "--quiet", "--no-cache", "--ui", "off", "--format", "short", dir)
	if !errors.Is(err, errHasDiagnostics) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(stdout, "FMT1005") {
		t.Fatalf("diagnostics:\n%s", stdout)
	}
	if _, err := os.Stat(filepath.Join(dir, "bad_vprintf.go")); !os.IsNotExist(err) {
		t.Fatalf("failed file must not be written: %v", err)
	}
}

func TestFixCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kern.go")
	src := "package kern\n\nimport \"vprintf/devrt\"\n\nfunc F(x int64) {\n\tdevrt.Printf(\"%ld\\n\", x)\n}\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	// первый проход добавляет ограничение сборки, второй чинит формат
	for pass := 1; pass <= 2; pass++ {
		out, _, err := executeRoot(t, "fix", "--all", path)
		if err != nil {
			t.Fatalf("fix pass %d: %v", pass, err)
		}
		if !strings.Contains(out, "fixed") {
			t.Fatalf("pass %d output:\n%s", pass, out)
		}
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(got), "//go:build vprintf\n\npackage kern") || !strings.Contains(string(got), `"%lld\n"`) {
		t.Fatalf("fixed file:\n%s", got)
	}
}
