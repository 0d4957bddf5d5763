// Package version contains build version information.
package version

import "fmt"

// Name is the human-readable service name.
const Name = "Employee Management System"

// Version is the current application version.
// This value is set at build time via ldflags.
var Version = "1.0.0"

// GitCommit is the git commit hash.
// This value is set at build time via ldflags.
var GitCommit = "unknown"

// BuildDate is the build date.
// This value is set at build time via ldflags.
var BuildDate = "unknown"

// String returns a one-line description of the build.
func String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", Name, Version, GitCommit, BuildDate)
}
