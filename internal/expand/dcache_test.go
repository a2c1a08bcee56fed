package expand

import (
	"testing"

	"vprintf/internal/diag"
	"vprintf/internal/source"
)

func TestDiskCacheRoundTrip(t *testing.T) {
	c, err := OpenDiskCache("vprintf", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := CacheKey([]byte("package p\n"), "p.go", "fp")
	if key == CacheKey([]byte("package p\n"), "q.go", "fp") {
		t.Fatal("file name must be part of the key")
	}

	var miss DiskPayload
	if hit, err := c.Get(key, &miss); err != nil || hit {
		t.Fatalf("empty cache: hit=%v err=%v", hit, err)
	}

	warn := diag.New(diag.SevWarning, diag.FmtTooManyArgs, source.Span{File: 3, Start: 10, End: 20}, "too many").
		WithNote(source.Span{File: 3, Start: 10, End: 20}, "see docs")
	if err := c.Put(key, &DiskPayload{Output: []byte("out"), Calls: 2, Diags: toCached([]*diag.Diagnostic{warn})}); err != nil {
		t.Fatal(err)
	}

	var got DiskPayload
	hit, err := c.Get(key, &got)
	if err != nil || !hit {
		t.Fatalf("hit=%v err=%v", hit, err)
	}
	if string(got.Output) != "out" || got.Calls != 2 {
		t.Fatalf("payload = %+v", got)
	}
	restored := fromCached(7, got.Diags)
	if len(restored) != 1 || restored[0].Primary != (source.Span{File: 7, Start: 10, End: 20}) ||
		restored[0].Code != diag.FmtTooManyArgs || len(restored[0].Notes) != 1 {
		t.Fatalf("restored = %+v", restored)
	}

	if err := c.DropAll(); err != nil {
		t.Fatal(err)
	}
	if hit, _ := c.Get(key, &got); hit {
		t.Fatal("entry survived DropAll")
	}
}

func TestCacheDirPrefersExplicit(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/xdg")
	if got, _ := CacheDir("vprintf", "/explicit"); got != "/explicit" {
		t.Fatalf("got %q", got)
	}
	if got, _ := CacheDir("vprintf", ""); got != "/xdg/vprintf" {
		t.Fatalf("got %q", got)
	}
}
