// Package constants provides application-wide constant values for fslock.
//
// # Core Components
//
// - AppName: binary name and XDG directory name
// - EnvPrefix: prefix of configuration environment variables
// - ConfigFileName: base name of the optional config file
// - Tagline: one-line description shown by the version command
//
// # Usage
//
//	import "github.com/bashhack/fslock/internal/constants"
//
//	v.SetEnvPrefix(constants.EnvPrefix)
package constants
