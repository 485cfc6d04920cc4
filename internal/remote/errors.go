package remote

import "codeberg.org/mutker/envmon/internal/errors"

const (
	ErrUpstream       = errors.ErrorCode("upstream_unavailable")
	ErrInvalidPayload = errors.ErrorCode("invalid_payload")
)
