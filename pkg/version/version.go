// Package version provides build and version information for notelink.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Build information set via ldflags at build time:
//
//	-X github.com/Aman-CERP/notelink/pkg/version.Version=$(VERSION)
//	-X github.com/Aman-CERP/notelink/pkg/version.Commit=$(COMMIT)
//	-X github.com/Aman-CERP/notelink/pkg/version.Date=$(DATE)
//
// Binaries built with `go install` leave them unset; GetInfo then reads
// the module and VCS stamps embedded by the toolchain.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// BuildInfo is structured version information for JSON output.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetInfo returns structured version information.
func GetInfo() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info = withBuildInfo(info, bi)
	}
	return info
}

// withBuildInfo fills the fields ldflags left at their defaults.
func withBuildInfo(info BuildInfo, bi *debug.BuildInfo) BuildInfo {
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = strings.TrimPrefix(bi.Main.Version, "v")
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "unknown" && s.Value != "" {
				info.Commit = s.Value[:min(len(s.Value), 12)]
			}
		case "vcs.time":
			if info.Date == "unknown" && s.Value != "" {
				info.Date = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

// String returns a one-line version string with all build info.
func String() string {
	info := GetInfo()
	commit := info.Commit
	if info.Modified {
		commit += "-dirty"
	}
	return fmt.Sprintf("notelink %s (commit: %s, built: %s, go: %s)",
		info.Version, commit, info.Date, info.GoVersion)
}

// Short returns just the version.
func Short() string {
	return GetInfo().Version
}
