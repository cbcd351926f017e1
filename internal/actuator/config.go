package actuator

import (
	"fmt"
	"time"

	"codeberg.org/mutker/rnboctl/internal/errors"
)

const (
	defaultSysfsRoot   = "/sys/class/pwm"
	defaultSysfsPeriod = time.Millisecond
	defaultSerialPort  = "/dev/ttyACM0"
	defaultSerialBaud  = 115200
)

type Config struct {
	Driver string       `mapstructure:"driver"`
	Motor  int          `mapstructure:"motor"`
	LEDs   []int        `mapstructure:"leds"`
	Sysfs  SysfsConfig  `mapstructure:"sysfs"`
	Serial SerialConfig `mapstructure:"serial"`
}

type SysfsConfig struct {
	Root   string        `mapstructure:"root"`
	Chip   int           `mapstructure:"chip"`
	Period time.Duration `mapstructure:"period"`
}

type SerialConfig struct {
	Port string `mapstructure:"port"`
	Baud int    `mapstructure:"baud"`
}

func DefaultConfig() Config {
	return Config{
		Driver: DriverSysfs,
		Motor:  0,
		LEDs:   []int{1},
		Sysfs: SysfsConfig{
			Root:   defaultSysfsRoot,
			Chip:   0,
			Period: defaultSysfsPeriod,
		},
		Serial: SerialConfig{
			Port: defaultSerialPort,
			Baud: defaultSerialBaud,
		},
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	switch c.Driver {
	case DriverSysfs:
		if c.Sysfs.Root == "" {
			return errFactory.WithData(ErrInvalidConfig, "actuator.sysfs.root is empty")
		}
		if c.Sysfs.Period <= 0 {
			return errFactory.WithData(ErrInvalidConfig, "actuator.sysfs.period must be positive")
		}
	case DriverSerial:
		if c.Serial.Port == "" {
			return errFactory.WithData(ErrInvalidConfig, "actuator.serial.port is empty")
		}
		if c.Serial.Baud <= 0 {
			return errFactory.WithData(ErrInvalidConfig, "actuator.serial.baud must be positive")
		}
	case DriverMemory:
	default:
		return errFactory.WithData(ErrUnknownDriver, c.Driver)
	}

	seen := map[int]bool{}
	for _, ch := range append([]int{c.Motor}, c.LEDs...) {
		if ch < 0 {
			return errFactory.WithData(ErrInvalidChannel, fmt.Sprintf("negative channel %d", ch))
		}
		if seen[ch] {
			return errFactory.WithData(ErrInvalidChannel, fmt.Sprintf("channel %d assigned twice", ch))
		}
		seen[ch] = true
	}

	return nil
}
