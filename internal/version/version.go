// Package version exposes build metadata injected via ldflags.
package version

import (
	"fmt"
	"runtime"
)

// Set via -ldflags "-X github.com/certwatch-app/cw-certshow/internal/version.Version=..."
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info describes the running binary
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetInfo returns the build metadata of the running binary
func GetInfo() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// GetVersion returns just the version string
func GetVersion() string {
	return Version
}
