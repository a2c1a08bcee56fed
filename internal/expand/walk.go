package expand

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Input is one file to expand.
type Input struct {
	Path string
	// Explicit is set for files named directly rather than found by a walk.
	Explicit bool
}

// OutputPath returns the generated file path for input: kern.go ->
// kern_vprintf.go.
func OutputPath(input, suffix string) string {
	return strings.TrimSuffix(input, ".go") + suffix
}

// Collect expands paths into a sorted, de-duplicated list of inputs.
// Directories are walked recursively, skipping testdata, vendor, hidden
// directories, tests and generated outputs.
func Collect(paths []string, suffix string) ([]Input, error) {
	seen := make(map[string]int)
	var inputs []Input
	add := func(path string, explicit bool) {
		path = filepath.ToSlash(filepath.Clean(path))
		if i, ok := seen[path]; ok {
			inputs[i].Explicit = inputs[i].Explicit || explicit
			return
		}
		seen[path] = len(inputs)
		inputs = append(inputs, Input{Path: path, Explicit: explicit})
	}

	for _, root := range paths {
		st, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !st.IsDir() {
			if !strings.HasSuffix(root, ".go") {
				return nil, fmt.Errorf("%s: not a Go file", root)
			}
			add(root, true)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && skipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if candidate(d.Name(), suffix) {
				add(path, false)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	// Сортируем для детерминированного порядка
	sort.Slice(inputs, func(i, j int) bool { return inputs[i].Path < inputs[j].Path })
	return inputs, nil
}

func skipDir(name string) bool {
	return name == "testdata" || name == "vendor" ||
		strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

func candidate(name, suffix string) bool {
	return strings.HasSuffix(name, ".go") &&
		!strings.HasSuffix(name, "_test.go") &&
		!strings.HasSuffix(name, suffix) &&
		!strings.HasPrefix(name, ".")
}
