package oscquery

import "codeberg.org/mutker/rnboctl/internal/errors"

const (
	ErrUnreachable  = errors.ErrUnreachable
	ErrMalformed    = errors.ErrMalformed
	ErrPathAbsent   = errors.ErrPathAbsent
	ErrInvalidValue = errors.ErrInvalidValue
)
