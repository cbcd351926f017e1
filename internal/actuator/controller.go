package actuator

import (
	"fmt"
	"math"
	"sync"

	"codeberg.org/mutker/rnboctl/internal/errors"
	"codeberg.org/mutker/rnboctl/internal/logger"
)

const (
	MinPercent = 0.0
	MaxPercent = 100.0
)

// Controller mirrors one drive ratio onto the motor and every indicator.
// It owns the bank's channels until Release.
type Controller struct {
	motor      Channel
	indicators []Channel
	current    float64
	last       float64
	released   bool
	mu         sync.Mutex
	logger     logger.Logger
}

func NewController(bank *Bank, log logger.Logger) *Controller {
	return &Controller{
		motor:      bank.Motor,
		indicators: bank.LEDs,
		logger:     log,
	}
}

// Clamp saturates a percentage into [0, 100]. NaN maps to 0.
func Clamp(percent float64) float64 {
	if math.IsNaN(percent) {
		return MinPercent
	}

	return min(max(percent, MinPercent), MaxPercent)
}

// RatioOf maps a percentage to a drive ratio in [0, 1].
func RatioOf(percent float64) float64 {
	return Clamp(percent) / MaxPercent
}

// Actuate writes the ratio for percent to the motor and all indicators and
// returns it. Every channel is written even if an earlier one fails.
func (c *Controller) Actuate(percent float64) (float64, error) {
	errFactory := errors.New()
	ratio := RatioOf(percent)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.released {
		return 0, errFactory.New(ErrReleased)
	}

	var firstErr error
	for _, ch := range c.channels() {
		if err := ch.SetRatio(ratio); err != nil {
			c.logger.Debug().Err(err).Str("channel", ch.Name()).Msg("Failed to set ratio")
			if firstErr == nil {
				firstErr = errFactory.Wrap(ErrWriteFailed, fmt.Errorf("%s: %w", ch.Name(), err))
			}
		}
	}

	c.last = c.current
	c.current = ratio

	return ratio, firstErr
}

// SetIndicators drives only the indicator channels, leaving the motor alone.
func (c *Controller) SetIndicators(ratio float64) error {
	errFactory := errors.New()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.released {
		return errFactory.New(ErrReleased)
	}

	ratio = RatioOf(ratio * MaxPercent)
	var firstErr error
	for _, ch := range c.indicators {
		if err := ch.SetRatio(ratio); err != nil && firstErr == nil {
			firstErr = errFactory.Wrap(ErrWriteFailed, fmt.Errorf("%s: %w", ch.Name(), err))
		}
	}

	return firstErr
}

// IndicatorsOff switches every indicator channel off.
func (c *Controller) IndicatorsOff() error {
	errFactory := errors.New()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.released {
		return nil
	}

	var firstErr error
	for _, ch := range c.indicators {
		if err := ch.Off(); err != nil && firstErr == nil {
			firstErr = errFactory.Wrap(ErrWriteFailed, fmt.Errorf("%s: %w", ch.Name(), err))
		}
	}

	return firstErr
}

// Release forces every channel to neutral. Only the first call writes;
// later calls return nil.
func (c *Controller) Release() error {
	errFactory := errors.New()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.released {
		return nil
	}
	c.released = true

	var firstErr error
	for _, ch := range c.channels() {
		if err := ch.Off(); err != nil {
			c.logger.Error().Err(err).Str("channel", ch.Name()).Msg("Failed to switch channel off")
			if firstErr == nil {
				firstErr = errFactory.Wrap(ErrWriteFailed, fmt.Errorf("%s: %w", ch.Name(), err))
			}
		}
	}

	c.last = c.current
	c.current = 0
	c.logger.Debug().Int("channels", len(c.indicators)+1).Msg("Actuator released to neutral")

	return firstErr
}

// Ratio returns the ratio most recently written.
func (c *Controller) Ratio() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// LastRatio returns the ratio in effect before the most recent write.
func (c *Controller) LastRatio() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Released reports whether Release has run.
func (c *Controller) Released() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.released
}

func (c *Controller) channels() []Channel {
	return append([]Channel{c.motor}, c.indicators...)
}
