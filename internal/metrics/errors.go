package metrics

import "codeberg.org/mutker/rnboctl/internal/errors"

const (
	ErrInvalidConfig = errors.ErrInvalidConfig
	ErrServe         = errors.ErrorCode("metrics_serve_failed")
	ErrShutdown      = errors.ErrShutdownFailed
)
