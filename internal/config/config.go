// Package config holds the portprobe configuration file format: scan
// defaults, logging and the optional metrics endpoint.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/anstrom/portprobe/internal/errors"
	"github.com/anstrom/portprobe/internal/logging"
	"github.com/anstrom/portprobe/internal/scanning"
)

// File permission and default constants.
const (
	configDirPermissions  = 0750
	configFilePermissions = 0600

	DefaultTimeout           = time.Second
	DefaultDNSTimeout        = 2 * time.Second
	DefaultMetricsListenAddr = "127.0.0.1:9273"
)

// Config represents the complete portprobe configuration.
type Config struct {
	// Scanning configuration
	Scanning ScanningConfig `yaml:"scanning" json:"scanning" mapstructure:"scanning"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging" mapstructure:"logging"`

	// Metrics configuration
	Metrics MetricsConfig `yaml:"metrics" json:"metrics" mapstructure:"metrics"`
}

// ScanningConfig holds scan defaults. Command-line flags override them.
type ScanningConfig struct {
	// Maximum probes in flight; 0 selects the engine default
	Concurrency int `yaml:"concurrency" json:"concurrency" mapstructure:"concurrency" validate:"min=0,max=10000"`

	// Per-probe connect timeout
	Timeout time.Duration `yaml:"timeout" json:"timeout" mapstructure:"timeout" validate:"gt=0"`

	// Optional DNS server (host or host:port). Empty means the system resolver.
	Nameserver string `yaml:"nameserver" json:"nameserver" mapstructure:"nameserver" validate:"omitempty,hostname_port|ip|hostname_rfc1123"`

	// Timeout for a single DNS exchange with Nameserver
	DNSTimeout time.Duration `yaml:"dns_timeout" json:"dns_timeout" mapstructure:"dns_timeout" validate:"gt=0"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" json:"format" mapstructure:"format" validate:"oneof=text json"`
	// stdout, stderr or a file path
	Output string `yaml:"output" json:"output" mapstructure:"output"`
}

// MetricsConfig controls the Prometheus endpoint served during a scan.
type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	ListenAddr string `yaml:"listen_addr" json:"listen_addr" mapstructure:"listen_addr" validate:"omitempty,hostname_port"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Scanning: ScanningConfig{
			Concurrency: scanning.DefaultConcurrency,
			Timeout:     DefaultTimeout,
			Nameserver:  "",
			DNSTimeout:  DefaultDNSTimeout,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled:    false,
			ListenAddr: DefaultMetricsListenAddr,
		},
	}
}

// Load loads configuration from a file. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	config := Default()

	if path == "" {
		return config, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, errors.WrapConfigError(errors.CodeFilePermission, "failed to read config file", err)
		}
		return nil, errors.WrapConfigError(errors.CodeConfiguration, "failed to read config file", err)
	}

	// JSON is a subset of YAML, so one decoder serves both extensions.
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml", ".json":
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, errors.WrapConfigError(errors.CodeConfiguration,
				fmt.Sprintf("failed to parse %s config", strings.TrimPrefix(ext, ".")), err)
		}
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, errors.WrapConfigError(errors.CodeConfiguration, "failed to parse config (assumed YAML)", err)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, configDirPermissions); err != nil {
		return errors.WrapConfigError(errors.CodeDirectoryCreate, "failed to create config directory", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.WrapConfigError(errors.CodeConfiguration, "failed to marshal config", err)
	}

	if err := os.WriteFile(path, data, configFilePermissions); err != nil {
		return errors.WrapConfigError(errors.CodeFilePermission, "failed to write config file", err)
	}

	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks every field. The first failure is returned as a
// *errors.ConfigError naming the offending key, e.g. "scanning.timeout".
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok || len(verrs) == 0 {
			return errors.WrapConfigError(errors.CodeConfiguration, "invalid configuration", err)
		}
		fe := verrs[0]
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		return errors.NewConfigFieldError(errors.CodeConfiguration,
			fmt.Sprintf("invalid value for %s (%s)", field, fe.Tag()), field, fe.Value())
	}

	if c.Metrics.Enabled && c.Metrics.ListenAddr == "" {
		return errors.ErrConfigMissing("metrics.listen_addr")
	}

	return nil
}

// LogConfig converts the logging section for logging.New.
func (c *Config) LogConfig() logging.Config {
	return logging.Config{
		Level:     logging.LogLevel(c.Logging.Level),
		Format:    logging.LogFormat(c.Logging.Format),
		Output:    c.Logging.Output,
		AddSource: c.Logging.Level == "debug",
	}
}

// Resolver returns the resolver selected by the scanning section.
func (c *Config) Resolver() scanning.Resolver {
	if c.Scanning.Nameserver == "" {
		return &scanning.SystemResolver{}
	}
	return scanning.NewDNSResolver(c.Scanning.Nameserver, c.Scanning.DNSTimeout)
}

// IsMetricsEnabled returns true if the metrics endpoint should be served.
func (c *Config) IsMetricsEnabled() bool {
	return c.Metrics.Enabled
}
