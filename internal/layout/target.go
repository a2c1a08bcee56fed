package layout

import (
	"runtime"
	"sort"
	"strings"
	"unsafe"
)

// Target describes the ABI target triple and its pointer properties.
type Target struct {
	Triple   string // e.g. "nvptx64-nvidia-cuda"
	PtrSize  int    // bytes
	PtrAlign int    // bytes
	// Int64Align is the in-record alignment of 8-byte scalars (int64,
	// uint64, double). It is 4 on i386 System V.
	Int64Align int
}

// NVPTX64 is the device target the records are ultimately consumed by.
func NVPTX64() Target {
	return Target{
		Triple:     "nvptx64-nvidia-cuda",
		PtrSize:    8,
		PtrAlign:   8,
		Int64Align: 8,
	}
}

func X86_64LinuxGNU() Target {
	return Target{
		Triple:     "x86_64-linux-gnu",
		PtrSize:    8,
		PtrAlign:   8,
		Int64Align: 8,
	}
}

func AArch64() Target {
	return Target{
		Triple:     "aarch64-linux-gnu",
		PtrSize:    8,
		PtrAlign:   8,
		Int64Align: 8,
	}
}

func I386() Target {
	return Target{
		Triple:     "i386-linux-gnu",
		PtrSize:    4,
		PtrAlign:   4,
		Int64Align: 4,
	}
}

// Host describes the layout the Go compiler uses for structs in this
// process, which is what generated record structs get.
func Host() Target {
	var rec struct {
		_ byte
		v int64
	}
	return Target{
		Triple:     runtime.GOARCH + "-" + runtime.GOOS,
		PtrSize:    int(unsafe.Sizeof(uintptr(0))),
		PtrAlign:   int(unsafe.Alignof(uintptr(0))),
		Int64Align: int(unsafe.Offsetof(rec.v)),
	}
}

var targetsByName = map[string]func() Target{
	"nvptx64": NVPTX64,
	"x86_64":  X86_64LinuxGNU,
	"amd64":   X86_64LinuxGNU,
	"aarch64": AArch64,
	"arm64":   AArch64,
	"i386":    I386,
	"386":     I386,
	"host":    Host,
}

// TargetByName resolves a short target name or full triple.
func TargetByName(name string) (Target, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return NVPTX64(), nil
	}
	if mk, ok := targetsByName[key]; ok {
		return mk(), nil
	}
	for _, mk := range targetsByName {
		if t := mk(); t.Triple == key {
			return t, nil
		}
	}
	return Target{}, &LayoutError{Kind: LayoutErrUnknownTarget, Target: name}
}

// TargetNames lists accepted short names, sorted.
func TargetNames() []string {
	names := make([]string, 0, len(targetsByName))
	for name := range targetsByName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
