// Package config provides configuration handling for fslock.
//
// Settings are read through spf13/viper from four sources and validated
// before use.
//
// # Core Components
//
// - Config: holds all fslock settings
// - VersionInfo: version, commit, and build date information
// - BindFlags: defines the global command-line flags and binds them to viper keys
// - Load: merges every source into a finalized Config
//
// # Configuration Sources
//
// Configuration values are loaded with the following precedence:
//
// 1. Command-line flags (highest priority)
// 2. Environment variables
// 3. Config file
// 4. Default values (lowest priority)
//
// # Environment Variables
//
//	FSLOCK_WAIT_MAX      Wait budget on an unrefreshed lock, duration or seconds (default: 10s)
//	FSLOCK_STRICT        Fail on a read-only lock directory (default: false)
//	FSLOCK_SINGLE        Use single exclusive lock files (default: false)
//	FSLOCK_OWNER         Owner token for read lock names (default: process id)
//	FSLOCK_QUIET         Hide informational messages (default: false)
//	FSLOCK_DEBUG         Enable debug logging (default: false)
//	FSLOCK_LOG_FILE      Path to log file (default: ~/.local/share/fslock/logs/fslock.log)
//	FSLOCK_METRICS_FILE  Write Prometheus metrics here on exit
//	FSLOCK_CONFIG        Config file path
//
// # Config File
//
// The default config file is $XDG_CONFIG_HOME/fslock/config.yaml and may
// be absent. Keys match the environment variables without the prefix:
//
//	wait_max: 30s
//	strict: true
//	owner: buildhost
//
// # Usage
//
//	v := viper.New()
//	if err := config.BindFlags(cmd.PersistentFlags(), v); err != nil {
//	    // Handle error
//	}
//	// after flag parsing
//	cfg, err := config.Load(v)
//	if err != nil {
//	    // Handle error
//	}
//	locker, err := lock.NewMultiLocker(path, cfg.Options(log, log.Progress())...)
//
// # Thread Safety
//
// The Config type is not designed to be thread-safe. Configuration is loaded
// once at startup and then used in a read-only fashion by the application.
package config
