// Package version exposes build metadata stamped at link time via -ldflags,
// falling back to the build info Go embeds in module-built binaries.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// These variables are set at build time using -ldflags
var (
	// Version is the semantic version of the application
	Version = "dev"

	// GitCommit is the git commit hash when the binary was built
	GitCommit = "unknown"

	// BuildTime is the time when the binary was built (RFC3339 format)
	BuildTime = "unknown"
)

// vcsSetting returns the named build setting from the binary's embedded build
// info, or "" when the binary carries none.
func vcsSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}

// GetVersion returns the application version. An ldflags-stamped version wins;
// otherwise the module version or the VCS revision stands in.
func GetVersion() string {
	if Version != "" && Version != "dev" {
		return Version
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}

	if rev := vcsSetting("vcs.revision"); len(rev) >= 7 {
		return "dev-" + rev[:7]
	}

	return "dev"
}

// GetGitCommit returns the git commit hash
func GetGitCommit() string {
	if GitCommit != "" && GitCommit != "unknown" {
		return GitCommit
	}

	if rev := vcsSetting("vcs.revision"); rev != "" {
		return rev
	}

	return "unknown"
}

// GetShortVersion returns a short version string suitable for display
func GetShortVersion() string {
	version := GetVersion()
	commit := GetGitCommit()

	if commit == "unknown" || len(commit) < 7 {
		return version
	}
	if version == "dev" {
		return "dev-" + commit[:7]
	}
	return fmt.Sprintf("%s (%s)", version, commit[:7])
}

// GetDetailedVersion returns a multi-line version string with build details
func GetDetailedVersion() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("Version: %s", GetVersion()))

	if commit := GetGitCommit(); commit != "unknown" {
		line := fmt.Sprintf("Commit: %s", commit)
		if IsDirty() {
			line += " (dirty)"
		}
		parts = append(parts, line)
	}

	if built := buildTime(); !built.IsZero() {
		parts = append(parts, fmt.Sprintf("Built: %s", built.Format(time.RFC3339)))
	}

	parts = append(parts, fmt.Sprintf("Go: %s", runtime.Version()))
	parts = append(parts, fmt.Sprintf("Platform: %s/%s", runtime.GOOS, runtime.GOARCH))

	return strings.Join(parts, "\n")
}

// IsDirty returns true if the working directory was dirty when built
func IsDirty() bool {
	return vcsSetting("vcs.modified") == "true"
}

func buildTime() time.Time {
	if BuildTime == "" || BuildTime == "unknown" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, BuildTime); err == nil {
		return t
	}
	return time.Time{}
}
