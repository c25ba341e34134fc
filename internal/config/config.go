package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/bashhack/fslock/internal/common"
	"github.com/bashhack/fslock/internal/constants"
	"github.com/bashhack/fslock/internal/errors"
	"github.com/bashhack/fslock/internal/lock"
)

// Configuration keys, shared by the config file, the environment
// (FSLOCK_<KEY>) and the command-line flags.
const (
	KeyWaitMax     = "wait_max"
	KeyStrict      = "strict"
	KeySingle      = "single"
	KeyOwner       = "owner"
	KeyDebug       = "debug"
	KeyLogFile     = "log_file"
	KeyQuiet       = "quiet"
	KeyMetricsFile = "metrics_file"
	KeyConfig      = "config"
)

// Config holds all fslock settings
type Config struct {
	// Locking
	WaitMax time.Duration
	Strict  bool
	Single  bool // SingleLocker instead of MultiLocker
	Owner   string

	// User experience
	Verbose bool

	// Debugging
	Debug       bool
	LogFile     string
	MetricsFile string

	// ConfigFile is the file the settings were read from, if any
	ConfigFile string

	// Build metadata
	VersionInfo VersionInfo
}

// VersionInfo contains build-time version metadata
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// New creates a new Config with default values
func New() *Config {
	return &Config{
		WaitMax: lock.DefaultWaitMax,
		Verbose: true,

		// Default version info, will be overridden if provided
		VersionInfo: VersionInfo{
			Version: "dev",
			Commit:  "unknown",
			Date:    "unknown",
		},
	}
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	defaults := New()
	v.SetDefault(KeyWaitMax, defaults.WaitMax.String())
	v.SetDefault(KeyStrict, defaults.Strict)
	v.SetDefault(KeySingle, defaults.Single)
	v.SetDefault(KeyOwner, "")
	v.SetDefault(KeyDebug, defaults.Debug)
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyQuiet, !defaults.Verbose)
	v.SetDefault(KeyMetricsFile, "")
}

// BindFlags defines the global flags on fs and binds each one to its key
// on v, so a flag given on the command line wins over every other source.
func BindFlags(fs *pflag.FlagSet, v *viper.Viper) error {
	defaults := New()

	fs.Duration("wait-max", defaults.WaitMax, "How long to wait on a lock file that is not being refreshed")
	fs.Bool("strict", defaults.Strict, "Fail instead of proceeding unlocked when the lock directory is read-only")
	fs.Bool("single", defaults.Single, "Use a single exclusive lock file instead of read/write locks")
	fs.String("owner", "", "Owner token for read lock file names (default: process id)")
	fs.Bool("debug", defaults.Debug, "Enable debug logging")
	fs.String("log-file", "", "Path to log file (default: ~/.local/share/fslock/logs/fslock.log)")
	fs.BoolP("quiet", "q", !defaults.Verbose, "Hide informational messages and wait progress")
	fs.String("metrics-file", "", "Write lock metrics in Prometheus text format to this file on exit")
	fs.StringP("config", "c", "", "Config file (default is $XDG_CONFIG_HOME/fslock/config.yaml)")

	bindings := map[string]string{
		KeyWaitMax:     "wait-max",
		KeyStrict:      "strict",
		KeySingle:      "single",
		KeyOwner:       "owner",
		KeyDebug:       "debug",
		KeyLogFile:     "log-file",
		KeyQuiet:       "quiet",
		KeyMetricsFile: "metrics-file",
		KeyConfig:      "config",
	}
	for key, name := range bindings {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return errors.NewConfigError(name, nil, errors.Wrap(errors.ErrInvalidConfiguration, err.Error()))
		}
	}
	return nil
}

// Load reads the config file and environment into v and returns the
// resulting, finalized Config. Flags must already be bound and parsed.
//
// An explicitly named config file must exist; the default one is optional.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if cfgFile := v.GetString(KeyConfig); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config", cfgFile, errors.Wrap(errors.ErrInvalidConfiguration, err.Error()))
		}
	} else {
		v.SetConfigName(constants.ConfigFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.NewConfigError("config", v.ConfigFileUsed(), errors.Wrap(errors.ErrInvalidConfiguration, err.Error()))
			}
		}
	}

	waitMax, err := waitMaxValue(v.Get(KeyWaitMax))
	if err != nil {
		return nil, err
	}

	c := New()
	c.WaitMax = waitMax
	c.Strict = v.GetBool(KeyStrict)
	c.Single = v.GetBool(KeySingle)
	c.Owner = v.GetString(KeyOwner)
	c.Debug = v.GetBool(KeyDebug)
	c.LogFile = v.GetString(KeyLogFile)
	c.Verbose = !v.GetBool(KeyQuiet)
	c.MetricsFile = v.GetString(KeyMetricsFile)
	c.ConfigFile = v.ConfigFileUsed()

	if err := c.Finalize(); err != nil {
		return nil, err
	}
	return c, nil
}

// waitMaxValue converts the wait_max setting from whichever source won:
// a duration from the flag, a number of seconds from YAML, or a string.
func waitMaxValue(raw interface{}) (time.Duration, error) {
	switch val := raw.(type) {
	case time.Duration:
		return val, nil
	case int:
		return time.Duration(val) * time.Second, nil
	case int64:
		return time.Duration(val) * time.Second, nil
	case float64:
		return time.Duration(val * float64(time.Second)), nil
	case string:
		return parseWaitMax(val)
	case nil:
		return lock.DefaultWaitMax, nil
	}
	return parseWaitMax(fmt.Sprint(raw))
}

// parseWaitMax accepts a Go duration ("30s", "1m30s") or a bare number of
// seconds ("30", "2.5").
func parseWaitMax(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, errors.NewConfigError("wait-max", raw, errors.Wrap(errors.ErrInvalidConfiguration, fmt.Sprintf("invalid duration: %v", err)))
	}
	return d, nil
}

// Finalize validates and finalizes the configuration
func (c *Config) Finalize() error {
	if c.WaitMax <= 0 {
		err := fmt.Errorf("invalid wait-max: %s (must be positive)", c.WaitMax)
		return errors.NewConfigError("wait-max", c.WaitMax, errors.Wrap(errors.ErrInvalidConfiguration, err.Error()))
	}

	if c.Owner != "" {
		if err := lock.ValidateOwner(c.Owner); err != nil {
			return err
		}
	}

	if c.LogFile == "" {
		c.LogFile = filepath.Join(dataHome(), constants.AppName, "logs", constants.AppName+".log")
	}

	return nil
}

// Options converts the locking settings into lock options, routing lock
// messages to log and wait progress to progress.
func (c *Config) Options(log common.Logger, progress io.Writer) []lock.Option {
	opts := []lock.Option{
		lock.WithWaitMax(c.WaitMax),
		lock.WithStrict(c.Strict),
		lock.WithLogger(log),
		lock.WithProgress(progress),
	}
	if c.Owner != "" {
		opts = append(opts, lock.WithOwner(c.Owner))
	}
	return opts
}

// ConfigDir returns the directory searched for the default config file,
// following the XDG Base Directory Specification.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, constants.AppName)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", constants.AppName)
	}
	return filepath.Join(os.TempDir(), constants.AppName)
}

// dataHome returns the XDG data home, falling back to the temp directory
// if the home directory can't be determined.
func dataHome() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share")
	}
	return os.TempDir()
}
