// Package version exposes build metadata injected with -ldflags.
package version

// Set at build time, e.g.
//
//	go build -ldflags "-X github.com/benvon/smart-schedule/internal/version.Version=1.2.0"
var (
	Version = "dev"
	Commit  = "unknown"
)

// Info is the build metadata reported by the CLI and the HTTP API
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

// Get returns the current build metadata
func Get() Info {
	return Info{Version: Version, Commit: Commit}
}
