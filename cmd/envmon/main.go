package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/mutker/envmon/internal/config"
	"codeberg.org/mutker/envmon/internal/device"
	"codeberg.org/mutker/envmon/internal/errors"
	"codeberg.org/mutker/envmon/internal/logger"
	"codeberg.org/mutker/envmon/internal/monitor"
	"codeberg.org/mutker/envmon/internal/pid"
	"codeberg.org/mutker/envmon/internal/remote"
	"codeberg.org/mutker/envmon/internal/session"
	"codeberg.org/mutker/envmon/internal/store"
	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
)

var (
	cfg *config.Config
	mon *monitor.Monitor
)

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Debug, cfg.Verbose, logger.IsService())
	applyLogLevel(cfg.LogLevel)
	logger.Debug().Msg("Config loaded")
}

func main() {
	errFactory := errors.New()

	if err := pid.Write(); err != nil {
		logger.Fatal().Err(err).Msg("failed to write PID file")
	}
	defer func() {
		if err := pid.Remove(); err != nil {
			logger.Error().Err(err).Msg("failed to remove PID file")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	var err error
	mon, err = initMonitor()
	if err != nil {
		logger.FatalWithCode(errFactory.Wrap(errors.ErrInitApp, err)).Msg("failed to initialize application")
	}

	mon.Restore(ctx)

	if err := loop(ctx); err != nil {
		logger.Error().Err(err).Msg("error in main loop")
	}
	cleanup()
}

func initMonitor() (*monitor.Monitor, error) {
	errFactory := errors.New()

	snapshots := store.NewNoop()
	if cfg.Cache {
		var err error
		snapshots, err = store.NewStore(store.Config{DBPath: cfg.CacheDB})
		if err != nil {
			return nil, errFactory.Wrap(errors.ErrInitStore, err)
		}
	}

	if cfg.DeviceAddr != "" {
		dev, err := linux.NewDevice()
		if err != nil {
			return nil, errFactory.Wrap(errors.ErrInitDevice, err)
		}
		ble.SetDefaultDevice(dev)
	} else {
		logger.Warn().Msg("No peripheral address configured; running without sensor link")
	}

	transport := &device.BLETransport{
		Addr:        cfg.DeviceAddr,
		DialTimeout: time.Duration(cfg.ConnectTimeout) * time.Second,
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Second,
	}
	link := device.NewLink(transport)
	sess := session.New(link)

	client := remote.NewClient(remote.Config{
		WeatherURL:    cfg.WeatherURL,
		AirQualityURL: cfg.AirQualityURL,
		APIKey:        cfg.APIKey,
		Units:         cfg.Units,
	})

	return monitor.New(monitor.Config{
		Location:  cfg.Location,
		Latitude:  cfg.Latitude,
		Longitude: cfg.Longitude,
	}, link, sess, client, snapshots), nil
}

func loop(ctx context.Context) error {
	if cfg.Interval <= 0 {
		return errors.New().New(errors.ErrInvalidInterval)
	}

	refreshTicker := time.NewTicker(time.Duration(cfg.Interval) * time.Second)
	defer refreshTicker.Stop()
	remoteTicker := time.NewTicker(time.Duration(cfg.RemoteInterval) * time.Second)
	defer remoteTicker.Stop()

	// Populate both surfaces before the first tick.
	fetchRemote(ctx)
	refreshSensor(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-refreshTicker.C:
			refreshSensor(ctx)
			logState()
		case <-remoteTicker.C:
			fetchRemote(ctx)
		}
	}
}

func refreshSensor(ctx context.Context) {
	if cfg.DeviceAddr == "" {
		return
	}

	if mon.State() != device.StateConnected {
		if err := mon.RequestConnect(ctx); err != nil {
			logger.Warn().Err(err).Msg("Sensor connect failed; keeping last known snapshot")
		}
		return
	}

	if _, err := mon.RequestRefresh(ctx); err != nil {
		logger.Warn().Err(err).Msg("Sensor refresh failed; keeping last known snapshot")
	}
}

func fetchRemote(ctx context.Context) {
	if cfg.WeatherURL != "" && cfg.Location != "" {
		if err := mon.FetchWeather(ctx); err != nil {
			logger.Warn().Err(err).Msg("Weather fetch failed; keeping last known snapshot")
		}
	}

	if cfg.AirQualityURL != "" {
		if err := mon.FetchAirQuality(ctx); err != nil {
			logger.Warn().Err(err).Msg("Air quality fetch failed; keeping last known snapshot")
		}
	}
}

func logState() {
	sensor, hasSensor := mon.Sensor()
	weather, hasWeather := mon.Weather()
	air, hasAir := mon.AirQuality()

	event := logger.Info().Event.Str("link_state", mon.State().String())
	if hasSensor {
		event = event.
			Float64("temperature", sensor.Temperature).
			Float64("humidity", sensor.Humidity).
			Float64("pressure", sensor.Pressure).
			Float64("air_quality_index", sensor.AirQualityIndex).
			Float64("co2", sensor.CO2).
			Float64("gas_resistance", sensor.GasResistance)
	}
	if hasWeather {
		event = event.
			Int("outdoor_temperature", weather.Temperature).
			Str("conditions", weather.Description)
	}
	if hasAir {
		event = event.
			Int("outdoor_aqi", air.Index).
			Float64("pm25", air.PM25).
			Float64("pm10", air.PM10)
	}
	event.Msg("")
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func cleanup() {
	mon.RequestDisconnect()
	if cfg.DeviceAddr != "" {
		if err := ble.Stop(); err != nil {
			logger.Error().Err(err).Msg("failed to stop BLE device")
		}
	}
	if err := mon.Close(); err != nil {
		logger.Error().Err(err).Msg("failed to close snapshot cache")
	}
	logger.Info().Msg("Exiting...")
}

func applyLogLevel(level string) {
	switch level {
	case "debug":
		logger.SetLogLevel(logger.DebugLevel)
	case "info":
		logger.SetLogLevel(logger.InfoLevel)
	case "warning":
		logger.SetLogLevel(logger.WarnLevel)
	case "error":
		logger.SetLogLevel(logger.ErrorLevel)
	}
}
