package device

import "codeberg.org/mutker/envmon/internal/errors"

const (
	// Lifecycle errors
	ErrLinkNotReady  = errors.ErrorCode("link_not_ready")
	ErrLinkBusy      = errors.ErrorCode("link_busy")
	ErrConnectFailed = errors.ErrorCode("link_connect_failed")

	// Channel read errors
	ErrChannelTimeout     = errors.ErrorCode("channel_read_timeout")
	ErrChannelUnavailable = errors.ErrorCode("channel_unavailable")
	ErrUnknownChannel     = errors.ErrorCode("unknown_channel")
)
