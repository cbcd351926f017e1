package resolve

import "codeberg.org/mutker/rnboctl/internal/errors"

const (
	ErrResolveFailed = errors.ErrResolveFailed
	ErrUnknownKind   = errors.ErrorCode("resolve_unknown_kind")
)
