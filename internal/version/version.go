// Package version provides build-time version information for the quill
// binaries.
//
// Variables in this package are set at build time using ldflags:
//
//	go build -ldflags "-X github.com/jmylchreest/quill/internal/version.Version=1.0.0 ..."
//
// Builds without ldflags fall back to the VCS settings the Go toolchain
// embeds in the binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Build-time variables set via ldflags
var (
	// Version is the semantic version (e.g., "1.0.0" or "1.0.0-dev.5+abc123")
	Version = "dev"

	// Commit is the git commit SHA
	Commit = "unknown"

	// Dirty indicates if the working tree had uncommitted changes
	Dirty = "false"

	// BuildDate is the UTC build timestamp in RFC3339 format
	BuildDate = "unknown"
)

// Info contains structured version information
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	Dirty     bool   `json:"dirty" yaml:"dirty"`
	BuildDate string `json:"build_date" yaml:"build_date"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

// Get returns the current version information
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		Dirty:     Dirty == "true",
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info.fromBuildInfo(bi)
	}
	return info
}

// fromBuildInfo fills fields left at their ldflags defaults.
func (i *Info) fromBuildInfo(bi *debug.BuildInfo) {
	if i.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		i.Version = strings.TrimPrefix(bi.Main.Version, "v")
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if i.Commit == "unknown" {
				i.Commit = s.Value
			}
		case "vcs.time":
			if i.BuildDate == "unknown" {
				i.BuildDate = s.Value
			}
		case "vcs.modified":
			if s.Value == "true" {
				i.Dirty = true
			}
		}
	}
}

// String returns a single-line version string
func (i Info) String() string {
	v := i.Version
	if i.Dirty {
		v += "-dirty"
	}
	return v
}

// String returns a single-line version string
func String() string {
	return Get().String()
}

// age renders the build date relative to now, or "" when it is not a
// timestamp.
func age(buildDate string, now time.Time) string {
	t, err := time.Parse(time.RFC3339, buildDate)
	if err != nil {
		return ""
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// Full returns a multi-line version string with all details
func Full(name string) string {
	info := Get()
	commit := info.Commit
	if len(commit) > 12 {
		commit = commit[:12]
	}

	built := info.BuildDate
	if rel := age(info.BuildDate, time.Now()); rel != "" {
		built += " (" + rel + ")"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", name, info.String())
	fmt.Fprintf(&sb, "  Commit:     %s\n", commit)
	fmt.Fprintf(&sb, "  Built:      %s\n", built)
	fmt.Fprintf(&sb, "  Go version: %s\n", info.GoVersion)
	fmt.Fprintf(&sb, "  OS/Arch:    %s", info.Platform)
	return sb.String()
}
