// Package version holds build information stamped in with -ldflags, for
// example:
//
//	go build -ldflags "-X particle-annotator/internal/version.Version=1.2.0"
package version

import "fmt"

var (
	Version   = "0.3.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String formats the build information on one line.
func String() string {
	return fmt.Sprintf("%s (built %s, commit %s)", Version, BuildTime, GitCommit)
}

// ServerName is sent in the Server header of the HTTP API.
func ServerName() string {
	return "annotserve/" + Version
}
