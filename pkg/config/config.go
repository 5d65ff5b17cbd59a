// Package config loads the gowindow command configuration from an optional
// config file and GOWINDOW_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the environment variable prefix, e.g. GOWINDOW_LOG_LEVEL.
const EnvPrefix = "GOWINDOW"

// Config holds the command configuration.
type Config struct {
	Log LogConfig `mapstructure:"log"`
	// Debug enables debug logging of window boundaries.
	Debug bool `mapstructure:"debug"`
	// CacheSize is the capacity of the compiled predicate cache.
	CacheSize int `mapstructure:"cache_size"`
	// Workers is the number of input files evaluated in parallel.
	Workers int `mapstructure:"workers"`
	// MetricsFile, when set, receives the Prometheus metrics in text format
	// after a run.
	MetricsFile string `mapstructure:"metrics_file"`
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level     string `mapstructure:"level"`  // debug, info, warn, error
	Format    string `mapstructure:"format"` // json, text
	AddSource bool   `mapstructure:"add_source"`
}

// Load reads the configuration. When path is empty, gowindow.{yaml,json,toml}
// is looked up in the working directory and is optional.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("gowindow")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.add_source", false)
	v.SetDefault("debug", false)
	v.SetDefault("cache_size", 512)
	v.SetDefault("workers", runtime.GOMAXPROCS(0))
	v.SetDefault("metrics_file", "")
}

// NewLogger builds a slog logger writing to w.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: c.AddSource,
	}

	var handler slog.Handler
	if strings.ToLower(c.Format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
