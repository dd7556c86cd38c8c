// Rescale Browse - streaming file lists for local folders, object stores and
// Rescale cloud storage
package main

import (
	"os"

	"github.com/rescale/rescale-browse/internal/cli"
	"github.com/rescale/rescale-browse/internal/version"
)

// Version information, overridden with -ldflags "-X main.Version=..."
var (
	Version   = "v0.3.0-dev"
	BuildTime = "unknown"
)

func main() {
	// Set version in version package (canonical source for all packages)
	version.Version = Version
	version.BuildTime = BuildTime

	// cobra has already printed the error
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
