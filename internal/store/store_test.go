package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"codeberg.org/mutker/envmon/internal/session"
	"codeberg.org/mutker/envmon/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	s, err := store.NewStore(store.Config{
		DBPath: filepath.Join(t.TempDir(), "snapshots.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })

	return s
}

func TestSaveAndLoad(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	saved := session.Snapshot{
		Temperature:     21.5,
		Humidity:        45.2,
		Pressure:        1013.1,
		AirQualityIndex: 75.0,
		CO2:             410,
		GasResistance:   12000,
	}
	require.NoError(t, s.Save(ctx, store.SourceSensor, saved))

	var loaded session.Snapshot
	found, err := s.Load(ctx, store.SourceSensor, &loaded)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, saved, loaded)
}

func TestLoadMissingSource(t *testing.T) {
	s := newTestStore(t)

	var loaded session.Snapshot
	found, err := s.Load(context.Background(), store.SourceWeather, &loaded)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSaveOverwritesPreviousSnapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, store.SourceSensor, session.Snapshot{CO2: 400}))
	require.NoError(t, s.Save(ctx, store.SourceSensor, session.Snapshot{CO2: 650}))

	var loaded session.Snapshot
	found, err := s.Load(ctx, store.SourceSensor, &loaded)
	require.NoError(t, err)
	require.True(t, found)
	assert.InDelta(t, 650, loaded.CO2, 0.001, "last write wins, one row per source")
}

func TestInvalidDBPath(t *testing.T) {
	_, err := store.NewStore(store.Config{})
	require.Error(t, err)
}

func TestNoopStore(t *testing.T) {
	s := store.NewNoop()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, store.SourceSensor, session.Snapshot{}))

	var loaded session.Snapshot
	found, err := s.Load(ctx, store.SourceSensor, &loaded)
	require.NoError(t, err)
	assert.False(t, found)
	require.NoError(t, s.Close())
}
