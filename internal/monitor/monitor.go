// Package monitor exposes the read-only view and imperative operations the
// presentation layer consumes. Consumers receive snapshot copies; failures
// never blank previously published data.
package monitor

import (
	"context"
	"sync"

	"codeberg.org/mutker/envmon/internal/device"
	"codeberg.org/mutker/envmon/internal/logger"
	"codeberg.org/mutker/envmon/internal/remote"
	"codeberg.org/mutker/envmon/internal/session"
	"codeberg.org/mutker/envmon/internal/store"
)

type Monitor struct {
	cfg     Config
	link    DeviceLink
	session TelemetrySession
	remote  RemoteClient
	store   store.Store

	mu      sync.RWMutex
	weather *remote.WeatherSnapshot
	air     *remote.AirQualitySnapshot
}

func New(cfg Config, link DeviceLink, sess TelemetrySession, client RemoteClient, st store.Store) *Monitor {
	return &Monitor{
		cfg:     cfg,
		link:    link,
		session: sess,
		remote:  client,
		store:   st,
	}
}

// RequestConnect connects the device link and, on success, runs one full
// refresh cycle so the first snapshot appears right after connecting.
func (m *Monitor) RequestConnect(ctx context.Context) error {
	if err := m.link.Connect(ctx); err != nil {
		return err
	}

	if _, err := m.RequestRefresh(ctx); err != nil {
		return err
	}

	return nil
}

// RequestDisconnect tears down the device link.
func (m *Monitor) RequestDisconnect() {
	m.link.Disconnect()
}

// RequestRefresh runs one refresh cycle and caches the result on success.
func (m *Monitor) RequestRefresh(ctx context.Context) (session.Snapshot, error) {
	snapshot, err := m.session.Refresh(ctx)
	if err != nil {
		return session.Snapshot{}, err
	}

	if err := m.store.Save(ctx, store.SourceSensor, snapshot); err != nil {
		logger.Warn().Err(err).Msg("Failed to cache sensor snapshot")
	}

	return snapshot, nil
}

// FetchWeather replaces the weather snapshot on success; on failure the
// prior snapshot stays in place and the error is surfaced to the caller.
func (m *Monitor) FetchWeather(ctx context.Context) error {
	snapshot, err := m.remote.FetchWeather(ctx, m.cfg.Location)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.weather = &snapshot
	m.mu.Unlock()

	if err := m.store.Save(ctx, store.SourceWeather, snapshot); err != nil {
		logger.Warn().Err(err).Msg("Failed to cache weather snapshot")
	}

	return nil
}

// FetchAirQuality replaces the air quality snapshot on success.
func (m *Monitor) FetchAirQuality(ctx context.Context) error {
	snapshot, err := m.remote.FetchAirQuality(ctx, m.cfg.Latitude, m.cfg.Longitude)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.air = &snapshot
	m.mu.Unlock()

	if err := m.store.Save(ctx, store.SourceAirQuality, snapshot); err != nil {
		logger.Warn().Err(err).Msg("Failed to cache air quality snapshot")
	}

	return nil
}

// Weather returns the latest weather snapshot; false means no data yet.
func (m *Monitor) Weather() (remote.WeatherSnapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.weather == nil {
		return remote.WeatherSnapshot{}, false
	}

	return *m.weather, true
}

// AirQuality returns the latest air quality snapshot; false means no data yet.
func (m *Monitor) AirQuality() (remote.AirQualitySnapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.air == nil {
		return remote.AirQualitySnapshot{}, false
	}

	return *m.air, true
}

// Sensor returns the latest sensor snapshot; false means no cycle has
// completed yet.
func (m *Monitor) Sensor() (session.Snapshot, bool) {
	return m.session.Current()
}

// State returns the device link state.
func (m *Monitor) State() device.State {
	return m.link.State()
}

// Restore seeds all three snapshots from the last-known cache. Missing or
// unreadable entries are skipped; live data always takes precedence.
func (m *Monitor) Restore(ctx context.Context) {
	var sensor session.Snapshot
	if found, err := m.store.Load(ctx, store.SourceSensor, &sensor); err != nil {
		logger.Warn().Err(err).Msg("Failed to restore sensor snapshot")
	} else if found {
		m.session.Restore(sensor)
	}

	var weather remote.WeatherSnapshot
	if found, err := m.store.Load(ctx, store.SourceWeather, &weather); err != nil {
		logger.Warn().Err(err).Msg("Failed to restore weather snapshot")
	} else if found {
		m.mu.Lock()
		if m.weather == nil {
			m.weather = &weather
		}
		m.mu.Unlock()
	}

	var air remote.AirQualitySnapshot
	if found, err := m.store.Load(ctx, store.SourceAirQuality, &air); err != nil {
		logger.Warn().Err(err).Msg("Failed to restore air quality snapshot")
	} else if found {
		m.mu.Lock()
		if m.air == nil {
			m.air = &air
		}
		m.mu.Unlock()
	}
}

// Close releases the snapshot cache.
func (m *Monitor) Close() error {
	return m.store.Close()
}
