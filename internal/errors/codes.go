package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrAlreadyRunning  ErrorCode = "already_running"

	// Configuration errors
	ErrInvalidConfig   ErrorCode = "invalid_configuration"
	ErrReadConfig      ErrorCode = "read_config_failed"
	ErrBindFlags       ErrorCode = "bind_flags_failed"
	ErrInvalidInterval ErrorCode = "invalid_interval"
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Initialization errors
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"

	// Remote query errors, recovered inside the loop
	ErrUnreachable  ErrorCode = "oscquery_unreachable"
	ErrMalformed    ErrorCode = "oscquery_malformed"
	ErrPathAbsent   ErrorCode = "oscquery_path_absent"
	ErrInvalidValue ErrorCode = "oscquery_invalid_value"

	// Fatal startup and discovery errors
	ErrDiscoveryTimeout ErrorCode = "discovery_timeout"
	ErrResolveFailed    ErrorCode = "resolve_failed"

	// Hardware errors
	ErrActuatorOpen  ErrorCode = "actuator_open_failed"
	ErrActuatorWrite ErrorCode = "actuator_write_failed"

	// Application errors
	ErrMainLoop ErrorCode = "main_loop_failed"

	// Operation errors
	ErrTimeout ErrorCode = "operation_timeout"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:         "Internal error occurred",
	ErrInvalidArgument:  "Invalid argument provided",
	ErrAlreadyRunning:   "Another instance is already running",
	ErrInvalidConfig:    "Invalid configuration",
	ErrReadConfig:       "Failed to read config file",
	ErrBindFlags:        "Failed to bind flags",
	ErrInvalidInterval:  "Invalid interval value",
	ErrInvalidLogLevel:  "Invalid log level",
	ErrInitFailed:       "Initialization failed",
	ErrShutdownFailed:   "Shutdown failed",
	ErrUnreachable:      "Remote tree unreachable",
	ErrMalformed:        "Remote tree malformed",
	ErrPathAbsent:       "Path has no value",
	ErrInvalidValue:     "Invalid value",
	ErrDiscoveryTimeout: "Discovery timed out",
	ErrResolveFailed:    "Could not resolve device address",
	ErrActuatorOpen:     "Failed to open actuator",
	ErrActuatorWrite:    "Failed to write actuator",
	ErrMainLoop:         "Error in main loop",
	ErrTimeout:          "Operation timed out",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
