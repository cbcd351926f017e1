package discovery

import (
	"strings"
	"time"

	"codeberg.org/mutker/rnboctl/internal/errors"
	"codeberg.org/mutker/rnboctl/internal/oscquery"
)

const (
	DefaultTemplate     = "/rnbo/inst/%d/messages/out/output1"
	DefaultInstances    = 4
	DefaultSuffix       = "/messages/out/output1"
	DefaultBlinkPeriod  = 500 * time.Millisecond
	DefaultStartupDelay = 5 * time.Second
)

type Config struct {
	Template     string        `mapstructure:"template"`
	Instances    int           `mapstructure:"instances"`
	Suffix       string        `mapstructure:"suffix"`
	Timeout      time.Duration `mapstructure:"timeout"`
	BlinkPeriod  time.Duration `mapstructure:"blink_period"`
	StartupDelay time.Duration `mapstructure:"startup_delay"`
}

func DefaultConfig() Config {
	return Config{
		Template:     DefaultTemplate,
		Instances:    DefaultInstances,
		Suffix:       DefaultSuffix,
		BlinkPeriod:  DefaultBlinkPeriod,
		StartupDelay: DefaultStartupDelay,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if c.Template != "" && strings.Count(c.Template, "%d") != 1 {
		return errFactory.WithData(ErrInvalidConfig, "discovery.template must contain exactly one %d")
	}
	if c.Template != "" && c.Instances <= 0 {
		return errFactory.WithData(ErrInvalidConfig, "discovery.instances must be positive")
	}
	if c.Template == "" && c.Suffix == "" {
		return errFactory.WithData(ErrInvalidConfig, "discovery needs a template or a suffix")
	}
	if c.Timeout < 0 {
		return errFactory.WithData(ErrInvalidConfig, "discovery.timeout must not be negative")
	}
	if c.BlinkPeriod <= 0 {
		return errFactory.WithData(ErrInvalidConfig, "discovery.blink_period must be positive")
	}
	if c.StartupDelay < 0 {
		return errFactory.WithData(ErrInvalidConfig, "discovery.startup_delay must not be negative")
	}

	return nil
}

// Candidates returns the exact paths probed on each attempt, lowest index
// first. It is empty when no template is configured.
func (c Config) Candidates() []string {
	if c.Template == "" {
		return nil
	}

	return oscquery.Candidates(c.Template, c.Instances)
}
