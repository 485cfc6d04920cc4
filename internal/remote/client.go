// Package remote fetches weather and air quality snapshots from two
// independent upstream providers and normalizes them into local units.
package remote

import (
	"net/http"
	"time"
)

const defaultHTTPTimeout = 10 * time.Second

type Config struct {
	WeatherURL    string
	AirQualityURL string
	APIKey        string
	Units         string
}

// Client talks to both providers. The two fetches share no mutable state
// and may run concurrently.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: defaultHTTPTimeout,
		},
	}
}
