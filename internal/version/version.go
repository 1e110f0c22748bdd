package version

import "fmt"

// Name is the product name shown by both binaries.
const Name = "errcoach"

var (
	// Version is overridden via -ldflags "-X".
	Version = "0.1.0"
	// Commit is the git commit hash injected at build time.
	Commit = "dev"
	// BuildDate is the build timestamp injected at build time.
	BuildDate = "unknown"
)

// Full returns the version with build metadata.
func Full() string {
	return fmt.Sprintf("%s %s (commit:%s, built:%s)", Name, Version, Commit, BuildDate)
}
