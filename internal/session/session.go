// Package session orchestrates full multi-channel read cycles against the
// device link and owns the current sensor snapshot.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"codeberg.org/mutker/envmon/internal/device"
	"codeberg.org/mutker/envmon/internal/errors"
)

// Link is the slice of the device link the session depends on.
type Link interface {
	IsConnected() bool
	Read(ctx context.Context, ch device.Channel) (float64, error)
}

// Snapshot holds one value per sensor channel. It is only ever replaced
// wholesale after a full successful read cycle.
type Snapshot struct {
	Temperature     float64
	Humidity        float64
	Pressure        float64
	AirQualityIndex float64
	CO2             float64
	GasResistance   float64
	Timestamp       time.Time
}

// Session performs on-demand refresh cycles. The underlying channel
// protocol is not safe for concurrent outstanding requests, so at most one
// refresh may be in flight.
type Session struct {
	link Link

	mu        sync.RWMutex
	snapshot  Snapshot
	published bool

	inFlight atomic.Bool
}

func New(link Link) *Session {
	return &Session{link: link}
}

// Refresh reads all channels in canonical order and publishes a new
// snapshot only if every read succeeds. On any failure the previously
// published snapshot is left untouched.
func (s *Session) Refresh(ctx context.Context) (Snapshot, error) {
	errFactory := errors.New()

	if !s.inFlight.CompareAndSwap(false, true) {
		return Snapshot{}, errFactory.New(ErrRefreshInProgress)
	}
	defer s.inFlight.Store(false)

	if !s.link.IsConnected() {
		return Snapshot{}, errFactory.New(ErrNotConnected)
	}

	values := make(map[device.Channel]float64, len(device.Channels()))
	for _, ch := range device.Channels() {
		value, err := s.link.Read(ctx, ch)
		if err != nil {
			return Snapshot{}, errFactory.Wrap(ErrPartialRead, err).WithData(string(ch))
		}
		values[ch] = value
	}

	// A disconnect racing the cycle must fail it rather than publish.
	if !s.link.IsConnected() {
		return Snapshot{}, errFactory.New(ErrNotConnected)
	}

	snapshot := Snapshot{
		Temperature:     values[device.ChannelTemperature],
		Humidity:        values[device.ChannelHumidity],
		Pressure:        values[device.ChannelPressure],
		AirQualityIndex: values[device.ChannelAirQuality],
		CO2:             values[device.ChannelCO2],
		GasResistance:   values[device.ChannelGasResistance],
		Timestamp:       time.Now(),
	}

	s.mu.Lock()
	s.snapshot = snapshot
	s.published = true
	s.mu.Unlock()

	return snapshot, nil
}

// Current returns a copy of the latest published snapshot and whether a
// cycle has ever completed.
func (s *Session) Current() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshot, s.published
}

// Restore seeds the session with a previously persisted snapshot so
// consumers see last-known data before the first cycle. It never overwrites
// a snapshot produced by a live refresh.
func (s *Session) Restore(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.published {
		return
	}
	s.snapshot = snapshot
	s.published = true
}
