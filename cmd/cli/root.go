// Package cli provides the command-line interface for portprobe.
// This package implements the Cobra-based CLI structure with the scan and
// config commands, layering flags, environment and config file through viper.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/anstrom/portprobe/internal/config"
	"github.com/anstrom/portprobe/internal/errors"
	"github.com/anstrom/portprobe/internal/logging"
)

const (
	defaultConfigName = "portprobe"
	defaultConfigFile = "portprobe.yaml"
	envPrefix         = "PORTPROBE"
)

var (
	cfgFile string
	verbose bool

	// configReadErr holds a failure to read an explicitly named config file.
	// It is reported by the first command that needs the configuration.
	configReadErr error
)

// Build information - these will be set by ldflags during build.
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "portprobe",
	Short: "Concurrent TCP connect port scanner",
	Long: `portprobe checks which TCP ports in a range accept connections on a
single host. Every port gets exactly one bounded connect attempt; results are
reported per port as open, or failed with the reason the OS gave.`,
	Version:       getVersion(),
	SilenceErrors: true,
}

// Execute runs the root command and returns the process exit status.
// This is called by main.main().
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return errors.ExitOK
	}
	printError(rootCmd.ErrOrStderr(), err)
	return errors.ExitCode(err)
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		fmt.Sprintf("config file (default is ./%s)", defaultConfigFile))
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")

	// Bind flags to viper
	if err := viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose")); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to bind verbose flag: %v\n", err)
	}

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.WrapConfigError(errors.CodeValidation, "invalid flags", err)
	})
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	configReadErr = nil

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(defaultConfigName)
	}

	// PORTPROBE_SCANNING_TIMEOUT overrides scanning.timeout, and so on.
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setConfigDefaults()

	if err := viper.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if cfgFile != "" || !notFound {
			configReadErr = err
		}
	} else if verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	initLogging()
}

// setConfigDefaults registers every configuration key with viper so that
// environment variables are picked up by Unmarshal.
func setConfigDefaults() {
	d := config.Default()

	// Scanning configuration
	viper.SetDefault("scanning.concurrency", d.Scanning.Concurrency)
	viper.SetDefault("scanning.timeout", d.Scanning.Timeout)
	viper.SetDefault("scanning.nameserver", d.Scanning.Nameserver)
	viper.SetDefault("scanning.dns_timeout", d.Scanning.DNSTimeout)

	// Logging configuration
	viper.SetDefault("logging.level", d.Logging.Level)
	viper.SetDefault("logging.format", d.Logging.Format)
	viper.SetDefault("logging.output", d.Logging.Output)

	// Metrics configuration
	viper.SetDefault("metrics.enabled", d.Metrics.Enabled)
	viper.SetDefault("metrics.listen_addr", d.Metrics.ListenAddr)
}

// loadConfig builds the effective configuration from defaults, config file,
// environment and bound flags, in increasing order of precedence.
func loadConfig() (*config.Config, error) {
	if configReadErr != nil {
		return nil, errors.WrapConfigError(errors.CodeConfiguration, "failed to read config file", configReadErr)
	}

	cfg := config.Default()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, errors.WrapConfigError(errors.CodeConfiguration, "failed to decode configuration", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bindFlag binds a command flag to a configuration key.
func bindFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to bind %s flag: %v\n", flag.Name, err)
	}
}

// getVersion returns the version string.
func getVersion() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime)
}

// SetVersion sets the version information (called from main).
func SetVersion(v, c, bt string) {
	version = v
	commit = c
	buildTime = bt
	rootCmd.Version = getVersion()
}

// initLogging initializes structured logging based on configuration.
func initLogging() {
	cfg, err := loadConfig()
	if err != nil {
		// The command reports the error itself; keep default logging until then.
		logging.SetDefault(logging.NewDefault())
		return
	}

	logConfig := cfg.LogConfig()
	if verbose {
		logConfig.Level = logging.LevelDebug
	}

	logger, err := logging.New(logConfig)
	if err != nil {
		logger = logging.NewDefault()
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}
	logging.SetDefault(logger)

	if verbose {
		logging.Debug("Structured logging initialized", "level", logConfig.Level, "format", logConfig.Format)
	}
}

func printError(w io.Writer, err error) {
	_, _ = color.New(color.FgRed).Fprintf(w, "Error: %v\n", err)
}
