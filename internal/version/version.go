// Package version reports build information for the riotts binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// compilerModule is the module whose version is reported as the compiler.
const compilerModule = "github.com/evanw/esbuild"

// BuildInfo contains version and build information
type BuildInfo struct {
	Version         string    `json:"version" yaml:"version"`
	GitCommit       string    `json:"git_commit" yaml:"git_commit"`
	BuildTime       time.Time `json:"build_time" yaml:"build_time"`
	GoVersion       string    `json:"go_version" yaml:"go_version"`
	Platform        string    `json:"platform" yaml:"platform"`
	CompilerVersion string    `json:"compiler_version" yaml:"compiler_version"`
}

// These variables are set at build time using -ldflags
var (
	// Version is the semantic version of the application
	Version = "dev"

	// GitCommit is the git commit hash when the binary was built
	GitCommit = "unknown"

	// BuildTime is the time when the binary was built (RFC3339 format)
	BuildTime = "unknown"
)

// GetBuildInfo returns comprehensive build information
func GetBuildInfo() *BuildInfo {
	return &BuildInfo{
		Version:         GetVersion(),
		GitCommit:       GetGitCommit(),
		BuildTime:       parseISOTime(BuildTime),
		GoVersion:       runtime.Version(),
		Platform:        fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		CompilerVersion: GetCompilerVersion(),
	}
}

// GetVersion returns the application version
func GetVersion() string {
	if Version != "" && Version != "dev" {
		return Version
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			return info.Main.Version
		}
		if rev := setting(info, "vcs.revision"); len(rev) >= 7 {
			return fmt.Sprintf("dev-%s", rev[:7])
		}
	}

	return "dev"
}

// GetGitCommit returns the git commit hash
func GetGitCommit() string {
	if GitCommit != "" && GitCommit != "unknown" {
		return GitCommit
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		if rev := setting(info, "vcs.revision"); rev != "" {
			return rev
		}
	}

	return "unknown"
}

// GetCompilerVersion returns the version of the linked TypeScript compiler.
func GetCompilerVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, dep := range info.Deps {
			if dep.Path == compilerModule {
				if dep.Replace != nil {
					return dep.Replace.Version
				}
				return dep.Version
			}
		}
	}
	return "unknown"
}

// GetShortVersion returns a short version string suitable for display
func GetShortVersion() string {
	version := GetVersion()
	commit := GetGitCommit()

	if commit != "unknown" && len(commit) >= 7 {
		shortCommit := commit[:7]
		if version != "dev" && !strings.HasPrefix(version, "dev-") {
			return fmt.Sprintf("%s (%s)", version, shortCommit)
		}
		return fmt.Sprintf("dev-%s", shortCommit)
	}

	return version
}

// GetDetailedVersion returns a detailed version string with all build info
func GetDetailedVersion() string {
	info := GetBuildInfo()

	var parts []string
	parts = append(parts, fmt.Sprintf("Version: %s", info.Version))

	if info.GitCommit != "unknown" {
		parts = append(parts, fmt.Sprintf("Commit: %s", info.GitCommit))
	}
	if !info.BuildTime.IsZero() {
		parts = append(parts, fmt.Sprintf("Built: %s", info.BuildTime.Format(time.RFC3339)))
	}

	parts = append(parts, fmt.Sprintf("Go: %s", info.GoVersion))
	parts = append(parts, fmt.Sprintf("Platform: %s", info.Platform))
	parts = append(parts, fmt.Sprintf("esbuild: %s", info.CompilerVersion))

	return strings.Join(parts, "\n")
}

// IsDirty returns true if the working directory was dirty when built
func IsDirty() bool {
	if info, ok := debug.ReadBuildInfo(); ok {
		return setting(info, "vcs.modified") == "true"
	}
	return false
}

func setting(info *debug.BuildInfo, key string) string {
	for _, s := range info.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}

// parseISOTime parses an ISO 8601 time string, returns zero time on error
func parseISOTime(timeStr string) time.Time {
	if timeStr == "" || timeStr == "unknown" {
		return time.Time{}
	}

	for _, format := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(format, timeStr); err == nil {
			return t
		}
	}

	return time.Time{}
}
