package session

import "codeberg.org/mutker/envmon/internal/errors"

const (
	ErrNotConnected      = errors.ErrorCode("not_connected")
	ErrPartialRead       = errors.ErrorCode("partial_read_failure")
	ErrRefreshInProgress = errors.ErrorCode("refresh_in_progress")
)
