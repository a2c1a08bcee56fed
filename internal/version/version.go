package version

import (
	"strings"

	"github.com/fatih/color"
)

// Version information for the vprintf CLI, overridable at build time:
//
//	go build -ldflags "-X vprintf/internal/version.Version=1.2.3"
var (
	Version    = "0.1.0-dev"
	GitCommit  = ""
	GitMessage = ""
	BuildDate  = ""
)

var (
	versionMajorColor = color.New(color.FgYellow, color.Bold)
	versionMinorColor = color.New(color.FgGreen, color.Bold)
	versionPatchColor = color.New(color.FgBlue, color.Bold)
)

// Pretty colours the major, minor and patch components of v. Anything it
// does not recognise is returned unchanged.
func Pretty(v string) string {
	core, rest := v, ""
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		core, rest = v[:i], v[i:]
	}
	parts := strings.Split(core, ".")
	if len(parts) != 3 {
		return v
	}
	return versionMajorColor.Sprint(parts[0]) + "." +
		versionMinorColor.Sprint(parts[1]) + "." +
		versionPatchColor.Sprint(parts[2]) + rest
}
