package buildinfo

import "strings"

// Set via -ldflags at build time, for example:
//
//	-X 'github.com/m3rciful/stockbot/core/buildinfo.Version=v1.2.3'
//	-X 'github.com/m3rciful/stockbot/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/m3rciful/stockbot/core/buildinfo.Date=2026-10-14T12:00:00Z'
var (
	// Version reports the semantic version or tag of the build.
	Version = "dev"
	// Commit reports the source control commit used for the build.
	Commit = "local"
	// Date reports the build timestamp in RFC3339 format.
	Date = ""
)

// Summary renders version and commit as a single human readable token.
func Summary() string {
	parts := []string{Version}
	if Commit != "" {
		parts = append(parts, Commit)
	}
	return strings.Join(parts, "@")
}
