package store

import (
	"context"

	"codeberg.org/mutker/envmon/internal/errors"
)

// Known snapshot sources.
const (
	SourceSensor     = "sensor"
	SourceWeather    = "weather"
	SourceAirQuality = "air_quality"
)

// Store keeps the single last-known snapshot per source so a restart can
// show last-known data before the first fetch. One row per source; this is
// deliberately not a history.
type Store interface {
	Save(ctx context.Context, source string, snapshot any) error
	Load(ctx context.Context, source string, snapshot any) (bool, error)
	Close() error
}

type Config struct {
	DBPath string
}

func (c Config) Validate() error {
	if c.DBPath == "" {
		return errors.New().New(ErrInvalidDBPath)
	}
	return nil
}
