// Package version holds build information, set at link time with
// -ldflags "-X github.com/banshee-data/racing-line/internal/version.Version=...".
package version

import "fmt"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String returns a one-line summary for -version output.
func String() string {
	sha := GitSHA
	if len(sha) > 7 {
		sha = sha[:7]
	}
	return fmt.Sprintf("racingline %s (%s, built %s)", Version, sha, BuildTime)
}
