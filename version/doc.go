// Package version carries build information for wskit binaries.
//
// Values are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/wskit/version.Version=1.2.0" ./cmd/wsget
//
// The engine uses UserAgent for its default User-Agent header and wsget
// prints GetFullVersion for --version.
package version
