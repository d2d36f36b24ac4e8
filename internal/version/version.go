// Package version holds build metadata stamped in with -ldflags.
package version

import "fmt"

// Name identifies the binary, including to MCP servers during initialization.
const Name = "splunkchat"

// Version is set at build time using -ldflags.
var Version = "dev"

// BuildTime is set at build time using -ldflags.
var BuildTime = "unknown"

// String returns the formatted version information.
func String() string {
	return fmt.Sprintf("%s version %s (built %s)", Name, Version, BuildTime)
}
