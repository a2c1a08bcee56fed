// Package config loads vprintf.toml and applies VPRINTF_* environment
// overrides on top of built-in defaults.
package config

import (
	"errors"
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/xyproto/env/v2"

	"vprintf/internal/layout"
)

// FileName is the manifest looked up from the working directory upwards.
const FileName = "vprintf.toml"

const (
	EnvConfig   = "VPRINTF_CONFIG"
	EnvTarget   = "VPRINTF_TARGET"
	EnvJobs     = "VPRINTF_JOBS"
	EnvNoCache  = "VPRINTF_NO_CACHE"
	EnvCacheDir = "VPRINTF_CACHE_DIR"
)

type Config struct {
	Generate GenerateConfig `toml:"generate"`
	Target   TargetConfig   `toml:"target"`
	Limits   LimitsConfig   `toml:"limits"`

	// Path is the manifest that was loaded, empty when defaults are used.
	Path string `toml:"-"`
	// Jobs, NoCache and CacheDir only come from the environment and flags.
	Jobs     int    `toml:"-"`
	NoCache  bool   `toml:"-"`
	CacheDir string `toml:"-"`
}

type GenerateConfig struct {
	// RuntimeImport is the import path of the runtime package.
	RuntimeImport string `toml:"runtime_import"`
	// Entry is the function generated code calls.
	Entry string `toml:"entry"`
	// Marker is the function whose calls are expanded.
	Marker   string `toml:"marker"`
	BuildTag string `toml:"build_tag"`
	Suffix   string `toml:"suffix"`
}

type TargetConfig struct {
	Name string `toml:"name"`
}

type LimitsConfig struct {
	MaxArgsWarning int `toml:"max_args_warning"`
}

func Default() Config {
	return Config{
		Generate: GenerateConfig{
			RuntimeImport: "vprintf/devrt",
			Entry:         "Vprintf",
			Marker:        "Printf",
			BuildTag:      "vprintf",
			Suffix:        "_vprintf.go",
		},
		Target: TargetConfig{Name: "nvptx64"},
		Limits: LimitsConfig{MaxArgsWarning: 32},
	}
}

// Find walks up from startDir looking for vprintf.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load resolves the configuration. explicit (a --config flag) wins over
// VPRINTF_CONFIG, which wins over the manifest found from startDir.
// Environment overrides are applied last.
func Load(startDir, explicit string) (Config, error) {
	cfg := Default()

	path := explicit
	if path == "" {
		path = env.Str(EnvConfig)
	}
	if path == "" {
		found, ok, err := Find(startDir)
		if err != nil {
			return Config{}, err
		}
		if ok {
			path = found
		}
	}
	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return Config{}, err
		}
		cfg.Path = path
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		if cfg.Path != "" {
			return Config{}, fmt.Errorf("%s: %w", cfg.Path, err)
		}
		return Config{}, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("generate", "suffix") && strings.TrimSpace(cfg.Generate.Suffix) == "" {
		return fmt.Errorf("%s: [generate].suffix must not be empty", path)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Target.Name = env.Str(EnvTarget, cfg.Target.Name)
	cfg.Jobs = env.Int(EnvJobs, cfg.Jobs)
	if env.Has(EnvNoCache) {
		cfg.NoCache = env.Bool(EnvNoCache)
	}
	cfg.CacheDir = env.Str(EnvCacheDir, cfg.CacheDir)
}

// Validate checks field shapes; it does not touch the filesystem.
func (c Config) Validate() error {
	g := c.Generate
	if strings.TrimSpace(g.RuntimeImport) == "" {
		return errors.New("[generate].runtime_import must not be empty")
	}
	if !token.IsIdentifier(g.Entry) {
		return fmt.Errorf("[generate].entry %q is not a Go identifier", g.Entry)
	}
	if !token.IsIdentifier(g.Marker) {
		return fmt.Errorf("[generate].marker %q is not a Go identifier", g.Marker)
	}
	if !token.IsIdentifier(g.BuildTag) {
		return fmt.Errorf("[generate].build_tag %q is not a valid build tag", g.BuildTag)
	}
	if !strings.HasSuffix(g.Suffix, ".go") || strings.HasSuffix(g.Suffix, "_test.go") {
		return fmt.Errorf("[generate].suffix %q must end in .go and not _test.go", g.Suffix)
	}
	if _, err := layout.TargetByName(c.Target.Name); err != nil {
		return fmt.Errorf("[target].name: %w", err)
	}
	if c.Limits.MaxArgsWarning < 0 {
		return fmt.Errorf("[limits].max_args_warning must be >= 0, got %d", c.Limits.MaxArgsWarning)
	}
	if c.Jobs < 0 {
		return fmt.Errorf("%s must be >= 0, got %d", EnvJobs, c.Jobs)
	}
	return nil
}

// LayoutTarget resolves Target.Name.
func (c Config) LayoutTarget() (layout.Target, error) {
	return layout.TargetByName(c.Target.Name)
}

// Fingerprint identifies every setting that changes generated output.
func (c Config) Fingerprint() string {
	g := c.Generate
	return strings.Join([]string{
		g.RuntimeImport, g.Entry, g.Marker, g.BuildTag, g.Suffix,
		c.Target.Name, fmt.Sprint(c.Limits.MaxArgsWarning),
	}, "\x1f")
}

// RuntimeName is the default file-local name of the runtime package: the
// last element of its import path.
func (c Config) RuntimeName() string {
	p := strings.TrimSuffix(c.Generate.RuntimeImport, "/")
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}
