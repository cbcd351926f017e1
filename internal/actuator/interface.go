// Package actuator drives the motor and indicator PWM channels.
package actuator

// Channel is one PWM-capable output. Ratios are in [0, 1]. Writes are
// idempotent and Off always leaves the output at zero drive.
type Channel interface {
	Name() string
	SetRatio(ratio float64) error
	Off() error
	Close() error
}

// Driver names accepted in configuration.
const (
	DriverSysfs  = "sysfs"
	DriverSerial = "serial"
	DriverMemory = "memory"
)
