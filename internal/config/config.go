package config

import (
	"os"
	"strings"

	"codeberg.org/mutker/envmon/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel       = "info"
	defaultInterval       = 30
	defaultRemoteInterval = 600
	defaultConnectTimeout = 10
	defaultReadTimeout    = 5
	defaultUnits          = "metric"
	defaultCacheDB        = "/var/lib/envmon/snapshots.db"
)

type Config struct {
	// Device link
	DeviceAddr     string `mapstructure:"device_addr"`
	Interval       int    `mapstructure:"interval"`
	ConnectTimeout int    `mapstructure:"connect_timeout"`
	ReadTimeout    int    `mapstructure:"read_timeout"`

	// Remote providers
	RemoteInterval int     `mapstructure:"remote_interval"`
	Location       string  `mapstructure:"location"`
	Latitude       float64 `mapstructure:"latitude"`
	Longitude      float64 `mapstructure:"longitude"`
	Units          string  `mapstructure:"units"`
	WeatherURL     string  `mapstructure:"weather_url"`
	AirQualityURL  string  `mapstructure:"air_quality_url"`
	APIKey         string  `mapstructure:"api_key"`

	// Snapshot cache
	Cache   bool   `mapstructure:"cache"`
	CacheDB string `mapstructure:"cache_db"`

	// Logging
	LogLevel string `mapstructure:"log_level"`
	Debug    bool   `mapstructure:"debug"`
	Verbose  bool   `mapstructure:"verbose"`
}

func Load() (*Config, error) {
	errFactory := errors.New()

	v := viper.New()
	setDefaults(v)

	flags := pflag.NewFlagSet("envmon", pflag.ContinueOnError)
	flags.String("device-addr", "", "Peripheral address (BLE MAC)")
	flags.Int("interval", defaultInterval, "Seconds between sensor refresh cycles")
	flags.Int("remote-interval", defaultRemoteInterval, "Seconds between remote provider fetches")
	flags.String("location", "", "Place name for the weather provider")
	flags.String("units", defaultUnits, "Unit system (metric or imperial)")
	flags.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	flags.Bool("debug", false, "Enable debugging mode")
	flags.Bool("verbose", false, "Enable verbose logging")
	flags.Bool("cache", false, "Cache last-known snapshots to disk")

	if err := flags.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	// Flags use dashes, config keys use underscores
	flags.Visit(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		switch f.Value.Type() {
		case "int":
			n, _ := flags.GetInt(f.Name)
			v.Set(key, n)
		case "bool":
			b, _ := flags.GetBool(f.Name)
			v.Set(key, b)
		default:
			v.Set(key, f.Value.String())
		}
	})

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	v.SetEnvPrefix("ENVMON")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("interval", defaultInterval)
	v.SetDefault("remote_interval", defaultRemoteInterval)
	v.SetDefault("connect_timeout", defaultConnectTimeout)
	v.SetDefault("read_timeout", defaultReadTimeout)
	v.SetDefault("units", defaultUnits)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("cache", false)
	v.SetDefault("cache_db", defaultCacheDB)
}

func readConfigFile(v *viper.Viper) error {
	errFactory := errors.New()

	if path := os.Getenv("ENVMON_CONFIG"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return errFactory.Wrap(errors.ErrReadConfig, err)
		}

		return nil
	}

	v.SetConfigName("envmon")
	v.SetConfigType("toml")
	v.AddConfigPath("/etc")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	return nil
}

func validate(cfg *Config) error {
	errFactory := errors.New()

	if cfg.Interval <= 0 || cfg.RemoteInterval <= 0 {
		return errFactory.New(errors.ErrInvalidInterval)
	}

	if cfg.ConnectTimeout <= 0 || cfg.ReadTimeout <= 0 {
		return errFactory.New(errors.ErrInvalidInterval)
	}

	switch cfg.Units {
	case "metric", "imperial":
	default:
		return errFactory.WithData(errors.ErrInvalidConfig, cfg.Units)
	}

	switch cfg.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return errFactory.WithData(errors.ErrInvalidLogLevel, cfg.LogLevel)
	}

	if cfg.Cache && cfg.CacheDB == "" {
		return errFactory.New(errors.ErrMissingConfig)
	}

	return nil
}
