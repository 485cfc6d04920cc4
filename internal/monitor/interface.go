package monitor

import (
	"context"

	"codeberg.org/mutker/envmon/internal/device"
	"codeberg.org/mutker/envmon/internal/remote"
	"codeberg.org/mutker/envmon/internal/session"
)

// DeviceLink is the slice of the device link the monitor drives.
type DeviceLink interface {
	Connect(ctx context.Context) error
	Disconnect()
	IsConnected() bool
	State() device.State
}

// TelemetrySession performs refresh cycles and owns the sensor snapshot.
type TelemetrySession interface {
	Refresh(ctx context.Context) (session.Snapshot, error)
	Current() (session.Snapshot, bool)
	Restore(snapshot session.Snapshot)
}

// RemoteClient fetches the two provider snapshots.
type RemoteClient interface {
	FetchWeather(ctx context.Context, location string) (remote.WeatherSnapshot, error)
	FetchAirQuality(ctx context.Context, lat, lon float64) (remote.AirQualitySnapshot, error)
}

// Config carries the location the remote fetches are keyed by.
type Config struct {
	Location  string
	Latitude  float64
	Longitude float64
}
