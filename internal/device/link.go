package device

import (
	"context"
	"sync"

	"codeberg.org/mutker/envmon/internal/errors"
	"codeberg.org/mutker/envmon/internal/logger"
)

// Link manages the connection lifecycle to a single peripheral and exposes
// the per-channel request/response primitive. State transitions happen only
// through Connect and Disconnect.
type Link struct {
	transport Transport

	mu    sync.Mutex
	state State
	conn  Conn
	epoch uint64
}

func NewLink(transport Transport) *Link {
	return &Link{transport: transport}
}

// Connect performs the pairing/negotiation handshake. A call while a
// negotiation is already in flight is rejected immediately rather than
// queued; a call while connected is a no-op. On failure the link returns
// to disconnected.
func (l *Link) Connect(ctx context.Context) error {
	errFactory := errors.New()

	l.mu.Lock()
	switch l.state {
	case StateConnecting:
		l.mu.Unlock()
		return errFactory.New(ErrLinkBusy)
	case StateConnected:
		l.mu.Unlock()
		return nil
	case StateDisconnected:
	}
	l.state = StateConnecting
	epoch := l.epoch
	l.mu.Unlock()

	conn, err := l.transport.Dial(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.epoch != epoch || l.state != StateConnecting {
		// Disconnect won the race; discard the late dial result.
		if conn != nil {
			closeConn(conn)
		}
		return errFactory.WithMessage(ErrConnectFailed, "link torn down during negotiation")
	}

	if err != nil {
		l.state = StateDisconnected
		return errFactory.Wrap(ErrConnectFailed, err)
	}

	l.conn = conn
	l.state = StateConnected

	return nil
}

// Disconnect tears down the link. It is idempotent and always leaves the
// state machine disconnected; teardown failures are logged, never returned.
func (l *Link) Disconnect() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == StateDisconnected {
		return
	}

	l.epoch++
	if l.conn != nil {
		closeConn(l.conn)
		l.conn = nil
	}
	l.state = StateDisconnected
}

// IsConnected reports whether the link is connected. Pure state query.
func (l *Link) IsConnected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.state == StateConnected
}

// State returns the current connection state.
func (l *Link) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.state
}

// Read performs a single request/response exchange against the named
// channel. A failed read does not change connection state: one lost
// exchange is not evidence the whole link is down.
func (l *Link) Read(ctx context.Context, ch Channel) (float64, error) {
	errFactory := errors.New()

	l.mu.Lock()
	if l.state != StateConnected {
		l.mu.Unlock()
		return 0, errFactory.New(ErrLinkNotReady)
	}
	conn := l.conn
	l.mu.Unlock()

	value, err := conn.Read(ctx, ch)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return 0, errFactory.Wrap(ErrChannelTimeout, err).WithData(string(ch))
		}
		if errors.HasCode(err, ErrUnknownChannel) {
			return 0, err
		}
		return 0, errFactory.Wrap(ErrChannelUnavailable, err).WithData(string(ch))
	}

	return value, nil
}

func closeConn(conn Conn) {
	if err := conn.Close(); err != nil {
		logger.Warn().Err(err).Msg("Link teardown failed")
	}
}
