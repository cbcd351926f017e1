package discovery

import "codeberg.org/mutker/rnboctl/internal/errors"

const (
	ErrTimeout       = errors.ErrDiscoveryTimeout
	ErrInvalidConfig = errors.ErrInvalidConfig
)
