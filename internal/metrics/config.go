package metrics

import (
	"net"

	"codeberg.org/mutker/rnboctl/internal/errors"
)

type Config struct {
	// Listen is the host:port of the /metrics endpoint. Empty disables it.
	Listen string `mapstructure:"listen"`
}

func DefaultConfig() Config {
	return Config{}
}

func (c Config) Enabled() bool {
	return c.Listen != ""
}

func (c Config) Validate() error {
	if !c.Enabled() {
		return nil
	}

	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return errors.New().Wrap(ErrInvalidConfig, err)
	}

	return nil
}
