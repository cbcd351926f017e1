package actuator

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"codeberg.org/mutker/rnboctl/internal/errors"
)

const sysfsFilePerm = 0o644

// exportWait bounds how long to wait for udev to create an exported
// channel directory.
var exportWait = time.Second

// sysfsChannel drives one channel of a Linux PWM chip through
// /sys/class/pwm.
type sysfsChannel struct {
	name     string
	chipDir  string
	dir      string
	index    int
	period   time.Duration
	enabled  bool
	exported bool
}

func openSysfsChannel(cfg SysfsConfig, index int) (*sysfsChannel, error) {
	errFactory := errors.New()

	chipDir := filepath.Join(cfg.Root, fmt.Sprintf("pwmchip%d", cfg.Chip))
	ch := &sysfsChannel{
		name:    fmt.Sprintf("pwmchip%d/pwm%d", cfg.Chip, index),
		chipDir: chipDir,
		dir:     filepath.Join(chipDir, fmt.Sprintf("pwm%d", index)),
		index:   index,
		period:  cfg.Period,
	}

	if _, err := os.Stat(ch.dir); os.IsNotExist(err) {
		if err := writeAttr(filepath.Join(chipDir, "export"), strconv.Itoa(index)); err != nil {
			return nil, errFactory.Wrap(ErrOpenFailed, err)
		}
		ch.exported = true

		if err := waitForDir(ch.dir, exportWait); err != nil {
			return nil, errFactory.Wrap(ErrExportTimeout, err)
		}
	}

	// duty_cycle may not exceed period, so zero it before changing period.
	if err := ch.write("duty_cycle", "0"); err != nil {
		return nil, errFactory.Wrap(ErrOpenFailed, err)
	}
	if err := ch.write("period", strconv.FormatInt(ch.period.Nanoseconds(), 10)); err != nil {
		return nil, errFactory.Wrap(ErrOpenFailed, err)
	}

	return ch, nil
}

func (s *sysfsChannel) Name() string {
	return s.name
}

func (s *sysfsChannel) SetRatio(ratio float64) error {
	duty := int64(ratio * float64(s.period.Nanoseconds()))
	if err := s.write("duty_cycle", strconv.FormatInt(duty, 10)); err != nil {
		return err
	}

	if !s.enabled {
		if err := s.write("enable", "1"); err != nil {
			return err
		}
		s.enabled = true
	}

	return nil
}

func (s *sysfsChannel) Off() error {
	if err := s.write("duty_cycle", "0"); err != nil {
		return err
	}
	if err := s.write("enable", "0"); err != nil {
		return err
	}
	s.enabled = false

	return nil
}

func (s *sysfsChannel) Close() error {
	if !s.exported {
		return nil
	}

	return writeAttr(filepath.Join(s.chipDir, "unexport"), strconv.Itoa(s.index))
}

func (s *sysfsChannel) write(attr, value string) error {
	return writeAttr(filepath.Join(s.dir, attr), value)
}

func writeAttr(path, value string) error {
	if err := os.WriteFile(path, []byte(value), sysfsFilePerm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}

func waitForDir(dir string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if _, err := os.Stat(dir); err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%s did not appear within %s", dir, timeout)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
