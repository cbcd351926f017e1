package actuator

import "codeberg.org/mutker/rnboctl/internal/errors"

const (
	ErrInvalidConfig  = errors.ErrInvalidConfig
	ErrOpenFailed     = errors.ErrActuatorOpen
	ErrWriteFailed    = errors.ErrActuatorWrite
	ErrUnknownDriver  = errors.ErrorCode("actuator_unknown_driver")
	ErrReleased       = errors.ErrorCode("actuator_released")
	ErrExportTimeout  = errors.ErrorCode("actuator_export_timeout")
	ErrInvalidChannel = errors.ErrorCode("actuator_invalid_channel")
)
