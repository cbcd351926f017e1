package actuator

import (
	"fmt"
	"io"
	"sync"

	"codeberg.org/mutker/rnboctl/internal/errors"
	"go.bug.st/serial"
)

// serialBridge talks to a microcontroller that owns the PWM pins. All
// channels share one port; commands are single lines:
//
//	pwm <channel> <ratio>
//	off <channel>
type serialBridge struct {
	port io.WriteCloser
	mu   sync.Mutex
}

func openSerialBridge(cfg SerialConfig) (*serialBridge, error) {
	errFactory := errors.New()

	mode := &serial.Mode{
		BaudRate: cfg.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, errFactory.Wrap(ErrOpenFailed, fmt.Errorf("%s: %w", cfg.Port, err))
	}

	return newSerialBridge(port), nil
}

func newSerialBridge(port io.WriteCloser) *serialBridge {
	return &serialBridge{port: port}
}

func (b *serialBridge) send(format string, args ...any) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := fmt.Fprintf(b.port, format, args...); err != nil {
		return fmt.Errorf("serial write: %w", err)
	}

	return nil
}

func (b *serialBridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.port.Close()
}

func (b *serialBridge) channel(index int) *serialChannel {
	return &serialChannel{bridge: b, index: index}
}

type serialChannel struct {
	bridge *serialBridge
	index  int
}

func (s *serialChannel) Name() string {
	return fmt.Sprintf("serial/%d", s.index)
}

func (s *serialChannel) SetRatio(ratio float64) error {
	return s.bridge.send("pwm %d %.4f\n", s.index, ratio)
}

func (s *serialChannel) Off() error {
	return s.bridge.send("off %d\n", s.index)
}

// Close is a no-op; the bank closes the shared port.
func (s *serialChannel) Close() error {
	return nil
}
