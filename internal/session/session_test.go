package session_test

import (
	"context"
	"testing"
	"time"

	"codeberg.org/mutker/envmon/internal/device"
	"codeberg.org/mutker/envmon/internal/errors"
	"codeberg.org/mutker/envmon/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLink struct {
	connected bool
	values    map[device.Channel]float64
	failOn    device.Channel
	failErr   error

	// blockOn, when set, parks the read of that channel until released.
	blockOn  device.Channel
	release  chan struct{}
	blocking chan struct{}

	// disconnectAfter drops connectivity once the named channel was read.
	disconnectAfter device.Channel
}

func (l *fakeLink) IsConnected() bool {
	return l.connected
}

func (l *fakeLink) Read(_ context.Context, ch device.Channel) (float64, error) {
	if l.blockOn == ch && l.release != nil {
		l.blocking <- struct{}{}
		<-l.release
	}
	if l.failOn == ch {
		if l.failErr != nil {
			return 0, l.failErr
		}
		return 0, errors.New().New(device.ErrChannelUnavailable)
	}
	if l.disconnectAfter == ch {
		l.connected = false
	}

	return l.values[ch], nil
}

func sixValues() map[device.Channel]float64 {
	return map[device.Channel]float64{
		device.ChannelTemperature:   21.5,
		device.ChannelHumidity:      45.2,
		device.ChannelPressure:      1013.1,
		device.ChannelAirQuality:    75.0,
		device.ChannelCO2:           410,
		device.ChannelGasResistance: 12000,
	}
}

func TestRefreshNotConnected(t *testing.T) {
	s := session.New(&fakeLink{connected: false})

	_, err := s.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, session.ErrNotConnected))

	_, published := s.Current()
	assert.False(t, published, "failed refresh must not publish a snapshot")
}

func TestRefreshPublishesAllChannels(t *testing.T) {
	s := session.New(&fakeLink{connected: true, values: sixValues()})

	snapshot, err := s.Refresh(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 21.5, snapshot.Temperature, 0.001)
	assert.InDelta(t, 45.2, snapshot.Humidity, 0.001)
	assert.InDelta(t, 1013.1, snapshot.Pressure, 0.001)
	assert.InDelta(t, 75.0, snapshot.AirQualityIndex, 0.001)
	assert.InDelta(t, 410, snapshot.CO2, 0.001)
	assert.InDelta(t, 12000, snapshot.GasResistance, 0.001)
	assert.False(t, snapshot.Timestamp.IsZero())

	current, published := s.Current()
	assert.True(t, published)
	assert.Equal(t, snapshot, current)
}

func TestRefreshIsAllOrNothing(t *testing.T) {
	link := &fakeLink{connected: true, values: sixValues()}
	s := session.New(link)

	before, err := s.Refresh(context.Background())
	require.NoError(t, err)

	link.failOn = device.ChannelCO2
	_, err = s.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, session.ErrPartialRead))

	var appErr errors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, string(device.ChannelCO2), appErr.GetData(), "failure must carry the failed channel")

	after, published := s.Current()
	assert.True(t, published)
	assert.Equal(t, before, after, "previous snapshot must be untouched")
}

func TestRefreshFailsWhenDisconnectedMidCycle(t *testing.T) {
	link := &fakeLink{
		connected:       true,
		values:          sixValues(),
		disconnectAfter: device.ChannelPressure,
	}
	s := session.New(link)

	_, err := s.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, session.ErrNotConnected))

	_, published := s.Current()
	assert.False(t, published)
}

func TestConcurrentRefreshIsRejected(t *testing.T) {
	link := &fakeLink{
		connected: true,
		values:    sixValues(),
		blockOn:   device.ChannelHumidity,
		release:   make(chan struct{}),
		blocking:  make(chan struct{}),
	}
	s := session.New(link)

	done := make(chan error, 1)
	go func() {
		_, err := s.Refresh(context.Background())
		done <- err
	}()

	select {
	case <-link.blocking:
	case <-time.After(time.Second):
		t.Fatal("first refresh never started reading")
	}

	_, err := s.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, session.ErrRefreshInProgress))

	close(link.release)
	require.NoError(t, <-done)
}

func TestRestoreNeverOverwritesLiveSnapshot(t *testing.T) {
	s := session.New(&fakeLink{connected: true, values: sixValues()})

	seed := session.Snapshot{Temperature: 19.0, Timestamp: time.Now().Add(-time.Hour)}
	s.Restore(seed)
	current, published := s.Current()
	assert.True(t, published)
	assert.Equal(t, seed, current)

	live, err := s.Refresh(context.Background())
	require.NoError(t, err)

	s.Restore(seed)
	current, _ = s.Current()
	assert.Equal(t, live, current)
}
