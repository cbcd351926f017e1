package config

import (
	"os"
	"strings"
	"time"

	"codeberg.org/mutker/rnboctl/internal/actuator"
	"codeberg.org/mutker/rnboctl/internal/control"
	"codeberg.org/mutker/rnboctl/internal/discovery"
	"codeberg.org/mutker/rnboctl/internal/errors"
	"codeberg.org/mutker/rnboctl/internal/metrics"
	"codeberg.org/mutker/rnboctl/internal/oscquery"
	"codeberg.org/mutker/rnboctl/internal/resolve"
	"codeberg.org/mutker/rnboctl/internal/telemetry"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel   = "info"
	DefaultConfigFile = "/etc/rnboctl.toml"
	DefaultEnvPrefix  = "RNBOCTL"
	DefaultPort       = 5678
)

type Config struct {
	LogLevel  string           `mapstructure:"log_level"`
	Device    resolve.Config   `mapstructure:"device"`
	Query     QueryConfig      `mapstructure:"query"`
	Discovery discovery.Config `mapstructure:"discovery"`
	Control   control.Config   `mapstructure:"control"`
	Actuator  actuator.Config  `mapstructure:"actuator"`
	Metrics   metrics.Config   `mapstructure:"metrics"`
	Telemetry telemetry.Config `mapstructure:"telemetry"`
}

type QueryConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// flagKeys maps command line flags onto configuration keys.
var flagKeys = map[string]string{
	"log-level":         "log_level",
	"name":              "device.name",
	"port":              "device.port",
	"address":           "device.address",
	"resolver":          "device.resolver",
	"interval":          "control.interval",
	"timeout":           "query.timeout",
	"discovery-timeout": "discovery.timeout",
	"instances":         "discovery.instances",
	"driver":            "actuator.driver",
	"metrics-listen":    "metrics.listen",
	"telemetry":         "telemetry.enabled",
}

// Load builds the configuration from defaults, the TOML file, RNBOCTL_*
// environment variables and args, in increasing priority. args excludes
// the program name.
func Load(args []string, opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := &options{envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		opt(o)
	}

	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for name, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, errFactory.Wrap(errors.ErrBindFlags, err)
		}
	}

	if err := readConfigFile(v, fs, o); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if cfg.Device.Name == "" {
		cfg.Device.Name = defaultDeviceName()
	}
	cfg.Control.StartupDelay = cfg.Discovery.StartupDelay

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("rnboctl", pflag.ContinueOnError)

	fs.String("config", "", "Path to the TOML configuration file")
	fs.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	fs.String("name", "", "Device name to resolve (default <hostname>.local)")
	fs.Int("port", DefaultPort, "OSCQuery port")
	fs.String("address", "", "Explicit host:port, skips name resolution")
	fs.String("resolver", resolve.KindDNS, "Name resolver (dns, mdns)")
	fs.Duration("interval", control.DefaultInterval, "Polling interval")
	fs.Duration("timeout", oscquery.DefaultTimeout, "Per-request timeout")
	fs.Duration("discovery-timeout", 0, "Give up discovery after this long (0 waits forever)")
	fs.Int("instances", discovery.DefaultInstances, "Number of RNBO instances to probe")
	fs.String("driver", actuator.DriverSysfs, "Actuator driver (sysfs, serial, memory)")
	fs.String("metrics-listen", "", "Prometheus listen address (empty disables)")
	fs.Bool("telemetry", false, "Record cycle history to sqlite")

	return fs
}

func setDefaults(v *viper.Viper) {
	act := actuator.DefaultConfig()
	disc := discovery.DefaultConfig()
	tel := telemetry.DefaultConfig()

	v.SetDefault("log_level", DefaultLogLevel)

	v.SetDefault("device.name", "")
	v.SetDefault("device.port", DefaultPort)
	v.SetDefault("device.address", "")
	v.SetDefault("device.resolver", resolve.KindDNS)
	v.SetDefault("device.mdns_timeout", resolve.DefaultMDNSTimeout)

	v.SetDefault("query.timeout", oscquery.DefaultTimeout)

	v.SetDefault("discovery.template", disc.Template)
	v.SetDefault("discovery.instances", disc.Instances)
	v.SetDefault("discovery.suffix", disc.Suffix)
	v.SetDefault("discovery.timeout", disc.Timeout)
	v.SetDefault("discovery.blink_period", disc.BlinkPeriod)
	v.SetDefault("discovery.startup_delay", disc.StartupDelay)

	v.SetDefault("control.interval", control.DefaultInterval)

	v.SetDefault("actuator.driver", act.Driver)
	v.SetDefault("actuator.motor", act.Motor)
	v.SetDefault("actuator.leds", act.LEDs)
	v.SetDefault("actuator.sysfs.root", act.Sysfs.Root)
	v.SetDefault("actuator.sysfs.chip", act.Sysfs.Chip)
	v.SetDefault("actuator.sysfs.period", act.Sysfs.Period)
	v.SetDefault("actuator.serial.port", act.Serial.Port)
	v.SetDefault("actuator.serial.baud", act.Serial.Baud)

	v.SetDefault("metrics.listen", "")

	v.SetDefault("telemetry.enabled", tel.Enabled)
	v.SetDefault("telemetry.db_path", tel.DBPath)
	v.SetDefault("telemetry.backup_dir", "")
	v.SetDefault("telemetry.batch_size", tel.BatchSize)
	v.SetDefault("telemetry.batch_timeout", tel.BatchTimeout)
}

// readConfigFile loads the file named by --config, the option, or
// <PREFIX>_CONFIG, falling back to DefaultConfigFile. Only the fallback
// may be missing.
func readConfigFile(v *viper.Viper, fs *pflag.FlagSet, o *options) error {
	errFactory := errors.New()

	path, _ := fs.GetString("config")
	if path == "" {
		path = o.configPath
	}
	if path == "" {
		path = os.Getenv(o.envPrefix + "_CONFIG")
	}

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil
		}
	}

	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return errFactory.Wrap(errors.ErrReadConfig, err)
	}

	return nil
}

func defaultDeviceName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "localhost"
	}

	return host + ".local"
}

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if !LogLevel(c.LogLevel).IsValid() {
		return errFactory.Wrap(errors.ErrInvalidLogLevel, &validationError{
			field:  "log_level",
			value:  c.LogLevel,
			reason: "must be one of debug, info, warning, error",
		})
	}
	if c.Control.Interval <= 0 {
		return errFactory.Wrap(errors.ErrInvalidInterval, &validationError{
			field:  "control.interval",
			value:  c.Control.Interval,
			reason: "must be positive",
		})
	}
	if c.Query.Timeout <= 0 {
		return invalid("query.timeout", c.Query.Timeout, "must be positive")
	}
	if c.Device.Address == "" && (c.Device.Port <= 0 || c.Device.Port > 65535) {
		return invalid("device.port", c.Device.Port, "must be a TCP port")
	}

	sections := []struct {
		name     string
		validate func() error
	}{
		{"discovery", c.Discovery.Validate},
		{"actuator", c.Actuator.Validate},
		{"metrics", c.Metrics.Validate},
		{"telemetry", c.Telemetry.Validate},
	}
	for _, s := range sections {
		if err := s.validate(); err != nil {
			return invalid(s.name, nil, err.Error())
		}
	}

	return nil
}

func invalid(field string, value any, reason string) error {
	return errors.New().Wrap(errors.ErrInvalidConfig, &validationError{
		field:  field,
		value:  value,
		reason: reason,
	})
}
