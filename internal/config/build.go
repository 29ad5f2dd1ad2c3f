package config

import (
	"fmt"
	"runtime"
)

// ModuleName is the CLI and metrics namespace name
const ModuleName = "go-rollup"

// Set via -ldflags at build time
var (
	BuildVersion = "dev"
	BuildCommit  = "unknown"
	BuildDate    = "unknown"
)

// GetFormattedBuildArgs renders the version line printed by --version
func GetFormattedBuildArgs() string {
	return fmt.Sprintf("%v @ %v (%v) %v/%v %v", BuildVersion, BuildCommit, BuildDate, runtime.GOOS, runtime.GOARCH, runtime.Version())
}
