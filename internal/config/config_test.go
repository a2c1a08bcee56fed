package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvConfig, EnvTarget, EnvJobs, EnvNoCache, EnvCacheDir} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaultsWithoutManifest(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path != "" {
		t.Fatalf("expected no manifest, got %q", cfg.Path)
	}
	if cfg.Generate.Suffix != "_vprintf.go" || cfg.Target.Name != "nvptx64" || cfg.Limits.MaxArgsWarning != 32 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.RuntimeName() != "devrt" {
		t.Fatalf("runtime name = %q", cfg.RuntimeName())
	}
}

func TestLoadFindsManifestUpwards(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, FileName), `
[generate]
runtime_import = "example.com/gpu/rt"
suffix = "_gen.go"

[target]
name = "x86_64"

[limits]
max_args_warning = 16
`)
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(nested, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path != filepath.Join(root, FileName) {
		t.Fatalf("path = %q", cfg.Path)
	}
	if cfg.Generate.RuntimeImport != "example.com/gpu/rt" || cfg.RuntimeName() != "rt" {
		t.Fatalf("runtime import not applied: %+v", cfg.Generate)
	}
	if cfg.Generate.Marker != "Printf" {
		t.Fatalf("unset keys must keep defaults, got marker %q", cfg.Generate.Marker)
	}
	if cfg.Generate.Suffix != "_gen.go" || cfg.Target.Name != "x86_64" || cfg.Limits.MaxArgsWarning != 16 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv(EnvTarget, "i386")
	t.Setenv(EnvJobs, "3")
	t.Setenv(EnvNoCache, "1")
	t.Setenv(EnvCacheDir, filepath.Join(dir, "cache"))
	cfg, err := Load(dir, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Target.Name != "i386" || cfg.Jobs != 3 || !cfg.NoCache || cfg.CacheDir != filepath.Join(dir, "cache") {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	tgt, err := cfg.LayoutTarget()
	if err != nil || tgt.PtrSize != 4 {
		t.Fatalf("unexpected target %+v %v", tgt, err)
	}
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad toml", "[generate\n", "failed to parse TOML"},
		{"unknown key", "[generate]\nflavour = \"x\"\n", "unknown keys: generate.flavour"},
		{"bad suffix", "[generate]\nsuffix = \"_gen.txt\"\n", "[generate].suffix"},
		{"bad entry", "[generate]\nentry = \"not ident\"\n", "[generate].entry"},
		{"bad target", "[target]\nname = \"sparc\"\n", "unknown target"},
		{"negative limit", "[limits]\nmax_args_warning = -1\n", "max_args_warning"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "custom.toml")
			writeFile(t, path, tt.content)
			_, err := Load("", path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestFingerprintTracksOutputSettings(t *testing.T) {
	a := Default()
	b := Default()
	b.Jobs = 8
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatal("jobs must not change the fingerprint")
	}
	b.Generate.Entry = "Other"
	if a.Fingerprint() == b.Fingerprint() {
		t.Fatal("entry must change the fingerprint")
	}
}
