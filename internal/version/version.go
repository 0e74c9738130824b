// Package version reports the build of the chore binary.
//
// Release builds set the variables with
//
//	-ldflags "-X github.com/example/chore/internal/version.Version=v0.3.0 \
//	          -X github.com/example/chore/internal/version.Commit=$(git rev-parse HEAD) \
//	          -X github.com/example/chore/internal/version.BuildDate=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package version

import (
	"fmt"
	"runtime"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// String returns the one-line version shown by `chore version` and --version.
func String() string {
	return fmt.Sprintf("chore %s (commit: %s, built: %s, %s)", Version, shortCommit(), BuildDate, runtime.Version())
}

func shortCommit() string {
	if len(Commit) > 7 {
		return Commit[:7]
	}
	return Commit
}
