// Package buildinfo holds build-time metadata injected with -ldflags.
package buildinfo

import "fmt"

// Set at build time:
//
//	go build -ldflags "-X github.com/dawnstudy/attendance/internal/buildinfo.Version=v1.2.0"
var (
	Version   = "dev"
	BuildDate = "unknown"
)

// Release is the release identifier reported to error telemetry.
func Release() string {
	return fmt.Sprintf("attendance@%s", Version)
}

// String describes the build for the version command.
func String() string {
	return fmt.Sprintf("attendance %s (built %s)", Version, BuildDate)
}
