package remote_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"codeberg.org/mutker/envmon/internal/errors"
	"codeberg.org/mutker/envmon/internal/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(weatherURL, airQualityURL string) *remote.Client {
	return remote.NewClient(remote.Config{
		WeatherURL:    weatherURL,
		AirQualityURL: airQualityURL,
		APIKey:        "test-key",
		Units:         "metric",
	})
}

func TestFetchWeatherRoundsTemperatures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bergen", r.URL.Query().Get("q"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		assert.Equal(t, "test-key", r.URL.Query().Get("appid"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"weather": [{"description": "light rain", "icon": "10d"}],
			"main": {"temp": 21.6, "temp_min": 18.2, "temp_max": 24.5}
		}`))
	}))
	defer srv.Close()

	c := newClient(srv.URL, "")
	snapshot, err := c.FetchWeather(context.Background(), "Bergen")
	require.NoError(t, err)

	assert.Equal(t, 22, snapshot.Temperature)
	assert.Equal(t, "light rain", snapshot.Description)
	assert.Equal(t, "10d", snapshot.Icon)
	assert.Equal(t, 25, snapshot.High)
	assert.Equal(t, 18, snapshot.Low)
}

func TestFetchWeatherUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newClient(srv.URL, "")
	_, err := c.FetchWeather(context.Background(), "Bergen")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, remote.ErrUpstream))
}

func TestFetchWeatherMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"weather": []}`))
	}))
	defer srv.Close()

	c := newClient(srv.URL, "")
	_, err := c.FetchWeather(context.Background(), "Bergen")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, remote.ErrUpstream))
}

func TestFetchAirQualityNormalizesSeverity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "60.3900", r.URL.Query().Get("lat"))
		assert.Equal(t, "5.3200", r.URL.Query().Get("lon"))

		_, _ = w.Write([]byte(`{"list": [{"level": 3, "pm25": 12.4, "pm10": 20.1}]}`))
	}))
	defer srv.Close()

	c := newClient("", srv.URL)
	snapshot, err := c.FetchAirQuality(context.Background(), 60.39, 5.32)
	require.NoError(t, err)

	assert.Equal(t, 150, snapshot.Index)
	assert.InDelta(t, 12.4, snapshot.PM25, 0.001)
	assert.InDelta(t, 20.1, snapshot.PM10, 0.001)
	assert.Zero(t, snapshot.Humidity, "missing humidity defaults to 0")
}

func TestFetchAirQualityKeepsHumidityWhenPresent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"list": [{"level": 1, "pm25": 4.1, "pm10": 8.8, "humidity": 41.5}]}`))
	}))
	defer srv.Close()

	c := newClient("", srv.URL)
	snapshot, err := c.FetchAirQuality(context.Background(), 60.39, 5.32)
	require.NoError(t, err)

	assert.Equal(t, 50, snapshot.Index)
	assert.InDelta(t, 41.5, snapshot.Humidity, 0.001)
}

func TestFetchAirQualityEmptyListIsInvalid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"list": []}`))
	}))
	defer srv.Close()

	c := newClient("", srv.URL)
	_, err := c.FetchAirQuality(context.Background(), 60.39, 5.32)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, remote.ErrInvalidPayload))
}

func TestFetchAirQualityUnknownSeverityDegradesToZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"list": [{"level": 9, "pm25": 1.0, "pm10": 2.0}]}`))
	}))
	defer srv.Close()

	c := newClient("", srv.URL)
	snapshot, err := c.FetchAirQuality(context.Background(), 60.39, 5.32)
	require.NoError(t, err)
	assert.Zero(t, snapshot.Index, "out-of-range severity maps to 0, not an error")
}
