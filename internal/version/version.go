// Package version holds the build version, set at link time with
// -ldflags "-X github.com/ndewijer/wealth-tracker/internal/version.Version=...".
package version

var Version = "dev"
