// Package config loads observerloop settings from defaults, an optional
// config file, the environment and bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// EnvPrefix prefixes every environment variable, e.g. OBSERVERLOOP_INTERVAL.
const EnvPrefix = "OBSERVERLOOP"

// ErrInvalid marks validation failures.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is the complete observerloop configuration.
type Config struct {
	// ProducedSubscribers is how many produced-interest subscribers to create.
	ProducedSubscribers int `mapstructure:"produced"`
	// ConsumedSubscribers is how many consumed-interest subscribers to create.
	ConsumedSubscribers int `mapstructure:"consumed"`
	// Interval is the producer's pause before each value.
	Interval time.Duration `mapstructure:"interval"`
	Log      LogConfig     `mapstructure:"log"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level"`
	// File receives log lines instead of stderr when set.
	File string `mapstructure:"file"`
	// Development switches to zap's development encoder settings.
	Development bool `mapstructure:"development"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		ProducedSubscribers: 1,
		ConsumedSubscribers: 1,
		Interval:            time.Second,
		Log: LogConfig{
			Level: "info",
		},
	}
}

// New returns a viper instance carrying the defaults and reading
// OBSERVERLOOP_* environment variables.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults registers Default() on v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("produced", d.ProducedSubscribers)
	v.SetDefault("consumed", d.ConsumedSubscribers)
	v.SetDefault("interval", d.Interval)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.development", d.Log.Development)
}

// Load reads file (if not empty) into v and decodes the result.
func Load(v *viper.Viper, file string) (Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var err error
	if c.ProducedSubscribers < 0 {
		err = multierr.Append(err, fmt.Errorf("produced must not be negative, got %d", c.ProducedSubscribers))
	}
	if c.ConsumedSubscribers < 0 {
		err = multierr.Append(err, fmt.Errorf("consumed must not be negative, got %d", c.ConsumedSubscribers))
	}
	if c.Interval < 0 {
		err = multierr.Append(err, fmt.Errorf("interval must not be negative, got %s", c.Interval))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		err = multierr.Append(err, fmt.Errorf("unknown log level %q", c.Log.Level))
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}
