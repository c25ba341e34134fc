package constants

// AppName is the binary name and the directory name used under the XDG
// config and data homes.
const AppName = "fslock"

// EnvPrefix is prepended, with an underscore, to every configuration key
// read from the environment, e.g. FSLOCK_WAIT_MAX.
const EnvPrefix = "FSLOCK"

// ConfigFileName is the base name, without extension, of the optional
// YAML config file.
const ConfigFileName = "config"

// Tagline is printed by the version command.
const Tagline = "advisory file locks for processes that share only a filesystem"
