package actuator_test

import (
	stderrors "errors"
	"math"
	"testing"

	"codeberg.org/mutker/rnboctl/internal/actuator"
	"codeberg.org/mutker/rnboctl/internal/errors"
	"codeberg.org/mutker/rnboctl/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingChannel struct {
	*actuator.MemoryChannel
}

func (f failingChannel) SetRatio(float64) error {
	return stderrors.New("bus error")
}

func newTestController(t *testing.T, leds int) (*actuator.Controller, *actuator.MemoryChannel, []*actuator.MemoryChannel) {
	t.Helper()

	motor := actuator.NewMemoryChannel("motor")
	indicators := make([]*actuator.MemoryChannel, leds)
	channels := make([]actuator.Channel, leds)
	for i := range indicators {
		indicators[i] = actuator.NewMemoryChannel("led")
		channels[i] = indicators[i]
	}

	bank := actuator.NewBank(motor, channels...)

	return actuator.NewController(bank, logger.Nop()), motor, indicators
}

func TestClamp(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{-10, 0},
		{0, 0},
		{42.5, 42.5},
		{100, 100},
		{150, 100},
		{math.Inf(1), 100},
		{math.Inf(-1), 0},
		{math.NaN(), 0},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, actuator.Clamp(tt.in), 1e-9, "Clamp(%v)", tt.in)
	}
}

func TestActuateMirrorsRatio(t *testing.T) {
	tests := []struct {
		percent float64
		want    float64
	}{
		{0, 0},
		{100, 1},
		{-5, 0},
		{200, 1},
		{42.5, 0.425},
	}

	for _, tt := range tests {
		ctrl, motor, leds := newTestController(t, 2)

		got, err := ctrl.Actuate(tt.percent)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-9)
		assert.InDelta(t, tt.want, motor.Ratio(), 1e-9)
		for _, led := range leds {
			assert.InDelta(t, motor.Ratio(), led.Ratio(), 1e-9)
		}
		assert.InDelta(t, tt.want, ctrl.Ratio(), 1e-9)
	}
}

func TestActuateTracksLastRatio(t *testing.T) {
	ctrl, _, _ := newTestController(t, 1)

	_, err := ctrl.Actuate(20)
	require.NoError(t, err)
	_, err = ctrl.Actuate(60)
	require.NoError(t, err)

	assert.InDelta(t, 0.2, ctrl.LastRatio(), 1e-9)
	assert.InDelta(t, 0.6, ctrl.Ratio(), 1e-9)
}

func TestActuateWritesAllChannelsOnFailure(t *testing.T) {
	motor := failingChannel{actuator.NewMemoryChannel("motor")}
	led := actuator.NewMemoryChannel("led")
	ctrl := actuator.NewController(actuator.NewBank(motor, led), logger.Nop())

	_, err := ctrl.Actuate(50)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, actuator.ErrWriteFailed))
	assert.InDelta(t, 0.5, led.Ratio(), 1e-9)
}

func TestReleaseOnce(t *testing.T) {
	ctrl, motor, leds := newTestController(t, 2)

	_, err := ctrl.Actuate(80)
	require.NoError(t, err)

	require.NoError(t, ctrl.Release())
	require.NoError(t, ctrl.Release())

	assert.True(t, ctrl.Released())
	assert.Zero(t, motor.Ratio())
	assert.Equal(t, 1, motor.OffCount())
	for _, led := range leds {
		assert.Zero(t, led.Ratio())
		assert.Equal(t, 1, led.OffCount())
	}
	assert.Zero(t, ctrl.Ratio())
}

func TestActuateAfterRelease(t *testing.T) {
	ctrl, motor, _ := newTestController(t, 1)
	require.NoError(t, ctrl.Release())

	_, err := ctrl.Actuate(50)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, actuator.ErrReleased))
	assert.Empty(t, motor.Writes())

	assert.NoError(t, ctrl.IndicatorsOff())
}

func TestIndicatorsLeaveMotorAlone(t *testing.T) {
	ctrl, motor, leds := newTestController(t, 2)

	require.NoError(t, ctrl.SetIndicators(1))
	for _, led := range leds {
		assert.InDelta(t, 1.0, led.Ratio(), 1e-9)
	}
	assert.Empty(t, motor.Writes())

	require.NoError(t, ctrl.IndicatorsOff())
	for _, led := range leds {
		assert.Zero(t, led.Ratio())
	}
	assert.Zero(t, motor.OffCount())
}

func TestOpenMemoryBank(t *testing.T) {
	cfg := actuator.DefaultConfig()
	cfg.Driver = actuator.DriverMemory
	cfg.LEDs = []int{1, 2}

	bank, err := actuator.Open(cfg, logger.Nop())
	require.NoError(t, err)
	defer bank.Close()

	assert.Equal(t, "memory/0", bank.Motor.Name())
	assert.Len(t, bank.LEDs, 2)
	assert.Len(t, bank.Channels(), 3)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*actuator.Config)
		code   errors.ErrorCode
	}{
		{"default", func(*actuator.Config) {}, ""},
		{"unknown driver", func(c *actuator.Config) { c.Driver = "gpio" }, actuator.ErrUnknownDriver},
		{"duplicate channel", func(c *actuator.Config) { c.LEDs = []int{0} }, actuator.ErrInvalidChannel},
		{"negative channel", func(c *actuator.Config) { c.Motor = -1 }, actuator.ErrInvalidChannel},
		{"zero period", func(c *actuator.Config) { c.Sysfs.Period = 0 }, actuator.ErrInvalidConfig},
		{"serial without port", func(c *actuator.Config) {
			c.Driver = actuator.DriverSerial
			c.Serial.Port = ""
		}, actuator.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := actuator.DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.CodeOf(err))
		})
	}
}
