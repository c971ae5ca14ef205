// Package version reports build information for the running binary
package version

import "runtime/debug"

// BuildInfo holds version information about the service build
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go"`
}

// Info returns the build information
func Info() BuildInfo {
	// Set via -ldflags "-X 'sentimentd/internal/core/version.version=v0.1.0'
	// -X 'sentimentd/internal/core/version.commit=abcd' -X 'sentimentd/internal/core/version.date=2026-10-01'"
	return BuildInfo{
		Service: service,
		Version: version,
		Commit:  commit,
		Date:    date,
		Go:      goVersion(),
	}
}

// Named returns Info with the service name replaced, for the non api binaries
func Named(name string) BuildInfo {
	bi := Info()
	bi.Service = name
	return bi
}

func goVersion() string {
	if bi, ok := debug.ReadBuildInfo(); ok {
		return bi.GoVersion
	}
	return "unknown"
}

var (
	service = "sentimentd-api"
	version = "dev"
	commit  = "none"
	date    = "unknown"
)
