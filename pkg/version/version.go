package version

import "fmt"

// Version, GitCommit, and BuildDate are set at build time via ldflags:
//
//	go build -ldflags "-X github.com/jaspy-nexus/jaspy-nexus/pkg/version.Version=v1.0.0 \
//	  -X github.com/jaspy-nexus/jaspy-nexus/pkg/version.GitCommit=abc1234 \
//	  -X github.com/jaspy-nexus/jaspy-nexus/pkg/version.BuildDate=2026-01-01"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns a one-line human-readable version summary.
func Info() string {
	if Version == "dev" {
		return "dev build"
	}
	return fmt.Sprintf("%s (%s, built %s)", Version, GitCommit, BuildDate)
}
