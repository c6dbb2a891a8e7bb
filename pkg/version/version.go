// Package version reports the build version of the ic-reactor binary.
package version

import (
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

// Set at build time with -ldflags "-X".
var (
	GITVERSION = "v0.0.0-dev"
	GITCOMMIT  = ""
	BUILDDATE  = ""
)

// BuildVersionInfo is the version of an ic-reactor binary.
type BuildVersionInfo struct {
	Major      string    `json:"Major,omitempty"`
	Minor      string    `json:"Minor,omitempty"`
	GitVersion string    `json:"GitVersion"`
	GitCommit  string    `json:"GitCommit"`
	BuildDate  time.Time `json:"BuildDate"`
	GOOS       string    `json:"GOOS"`
	GOARCH     string    `json:"GOARCH"`
}

// Get returns the version of the running binary.
func Get() *BuildVersionInfo {
	info := &BuildVersionInfo{
		GitVersion: GITVERSION,
		GitCommit:  GITCOMMIT,
		GOOS:       runtime.GOOS,
		GOARCH:     runtime.GOARCH,
	}
	if t, err := time.Parse(time.RFC3339, BUILDDATE); err == nil {
		info.BuildDate = t
	}
	if info.GitCommit == "" {
		info.GitCommit = vcsRevision()
	}
	if semver.IsValid(info.GitVersion) {
		parts := strings.SplitN(strings.TrimPrefix(semver.MajorMinor(info.GitVersion), "v"), ".", 2)
		info.Major = parts[0]
		if len(parts) > 1 {
			info.Minor = parts[1]
		}
	}
	return info
}

func vcsRevision() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return ""
}
