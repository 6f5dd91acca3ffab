// Package version reports the staticsql build. The tag is recorded in the
// header of generated files.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Set with -ldflags "-X github.com/satishbabariya/staticsql/cli/internal/version.Version=...".
var (
	Version   = ""
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// fallback is used when neither ldflags nor module build info name a version.
const fallback = "0.1.0"

// Info holds version information
type Info struct {
	Version   string
	BuildDate string
	GitCommit string
	GoVersion string
	Platform  string
}

// Get returns version information, preferring ldflags over the module
// version stamped by go install.
func Get() Info {
	info := Info{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		fromBuildInfo(&info, bi)
	}
	if info.Version == "" {
		info.Version = fallback
	}
	return info
}

func fromBuildInfo(info *Info, bi *debug.BuildInfo) {
	if info.Version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "unknown" {
				info.GitCommit = s.Value
			}
		case "vcs.time":
			if info.BuildDate == "unknown" {
				info.BuildDate = s.Value
			}
		}
	}
}

// Tag returns the version with a leading v, e.g. v0.1.0.
func (i Info) Tag() string {
	return "v" + strings.TrimPrefix(i.Version, "v")
}

func (i Info) String() string {
	return fmt.Sprintf("staticsql %s (%s %s)", i.Tag(), i.Platform, i.GoVersion)
}

// FullString returns a detailed version string
func (i Info) FullString() string {
	return fmt.Sprintf(`staticsql %s
Build Date: %s
Git Commit: %s
Platform: %s
Go Version: %s`, i.Tag(), i.BuildDate, i.GitCommit, i.Platform, i.GoVersion)
}
