package actuator

import (
	"fmt"
	"io"

	"codeberg.org/mutker/rnboctl/internal/errors"
	"codeberg.org/mutker/rnboctl/internal/logger"
)

// Bank holds the hardware handles: one motor channel and the indicator
// channels that mirror it.
type Bank struct {
	Motor   Channel
	LEDs    []Channel
	closers []io.Closer
}

// NewBank groups already opened channels.
func NewBank(motor Channel, leds ...Channel) *Bank {
	return &Bank{Motor: motor, LEDs: leds}
}

// Open acquires the channels named by cfg with the configured driver.
func Open(cfg Config, log logger.Logger) (*Bank, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		bank = &Bank{}
		open func(index int) (Channel, error)
	)

	switch cfg.Driver {
	case DriverMemory:
		open = func(index int) (Channel, error) {
			return NewMemoryChannel(fmt.Sprintf("memory/%d", index)), nil
		}
	case DriverSysfs:
		open = func(index int) (Channel, error) {
			return openSysfsChannel(cfg.Sysfs, index)
		}
	case DriverSerial:
		bridge, err := openSerialBridge(cfg.Serial)
		if err != nil {
			return nil, err
		}
		bank.closers = append(bank.closers, bridge)
		open = func(index int) (Channel, error) {
			return bridge.channel(index), nil
		}
	default:
		return nil, errFactory.WithData(ErrUnknownDriver, cfg.Driver)
	}

	motor, err := open(cfg.Motor)
	if err != nil {
		bank.Close()
		return nil, err
	}
	bank.Motor = motor

	for _, index := range cfg.LEDs {
		led, err := open(index)
		if err != nil {
			bank.Close()
			return nil, err
		}
		bank.LEDs = append(bank.LEDs, led)
	}

	log.Info().
		Str("driver", cfg.Driver).
		Str("motor", motor.Name()).
		Int("leds", len(bank.LEDs)).
		Msg("Actuator channels acquired")

	return bank, nil
}

// Channels returns the motor followed by the indicators.
func (b *Bank) Channels() []Channel {
	channels := make([]Channel, 0, len(b.LEDs)+1)
	if b.Motor != nil {
		channels = append(channels, b.Motor)
	}

	return append(channels, b.LEDs...)
}

// Close releases driver resources. It does not switch channels off; that
// is the controller's job.
func (b *Bank) Close() error {
	errFactory := errors.New()

	var firstErr error
	for _, ch := range b.Channels() {
		if err := ch.Close(); err != nil && firstErr == nil {
			firstErr = errFactory.Wrap(errors.ErrShutdownFailed, err)
		}
	}
	for _, c := range b.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = errFactory.Wrap(errors.ErrShutdownFailed, err)
		}
	}

	return firstErr
}
