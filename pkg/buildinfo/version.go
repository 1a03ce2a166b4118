// Package buildinfo exposes the version metadata stamped into the binary.
//
// Release builds inject the values below through -ldflags; a plain source
// build reports the dev defaults.
package buildinfo

import "fmt"

// Set at link time, e.g.:
//
//	go build -ldflags "\
//	  -X github.com/kaltenberg/overmark/pkg/buildinfo.Version=v0.3.0 \
//	  -X github.com/kaltenberg/overmark/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	  -X github.com/kaltenberg/overmark/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String renders the full build information block.
func String() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", Version, Commit, Date)
}

// Template is the cobra version template matching String's layout.
func Template() string {
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}
