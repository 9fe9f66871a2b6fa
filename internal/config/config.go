package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvPrefix      = "KC"
	configDirName  = ".kol-credits"
	configFileName = "config.toml"

	DriverTOML   = "toml"
	DriverSQLite = "sqlite"
)

var (
	ErrUnknownDriver    = errors.New("unknown store driver")
	ErrUnknownLogFormat = errors.New("unknown log format")
)

type Config struct {
	Store    StoreConfig
	Location *time.Location
	Server   ServerConfig
	Log      LogConfig
}

type StoreConfig struct {
	Driver     string
	SQLitePath string
}

type ServerConfig struct {
	Addr            string
	RateLimit       float64
	Burst           int
	SweepInterval   time.Duration
	AllowedOrigins  []string
	MetricsUser     string
	MetricsPassword string
}

type LogConfig struct {
	Level  slog.Level
	Format string
}

// New returns a viper instance carrying defaults, KC_* environment overrides and, when
// present, ~/.kol-credits/config.toml. The TOML stores read accounts.path and
// contacts.path from the same instance.
func New() (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := v.GetString("config")
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(homeDir, configDirName, configFileName)
	}

	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, os.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("config", "")
	v.SetDefault("store.driver", DriverTOML)
	v.SetDefault("accounts.path", "")
	v.SetDefault("contacts.path", "")
	v.SetDefault("sqlite.path", "")
	v.SetDefault("clock.timezone", "")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.rate_limit.rps", 5.0)
	v.SetDefault("server.rate_limit.burst", 30)
	v.SetDefault("server.sweep_interval", "24h")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.metrics.user", "")
	v.SetDefault("server.metrics.password", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

func Decode(v *viper.Viper) (Config, error) {
	cfg := Config{
		Store: StoreConfig{
			Driver:     strings.ToLower(strings.TrimSpace(v.GetString("store.driver"))),
			SQLitePath: v.GetString("sqlite.path"),
		},
		Server: ServerConfig{
			Addr:            v.GetString("server.addr"),
			RateLimit:       v.GetFloat64("server.rate_limit.rps"),
			Burst:           v.GetInt("server.rate_limit.burst"),
			SweepInterval:   v.GetDuration("server.sweep_interval"),
			AllowedOrigins:  v.GetStringSlice("server.allowed_origins"),
			MetricsUser:     v.GetString("server.metrics.user"),
			MetricsPassword: v.GetString("server.metrics.password"),
		},
		Log: LogConfig{Format: strings.ToLower(strings.TrimSpace(v.GetString("log.format")))},
	}

	switch cfg.Store.Driver {
	case DriverTOML:
	case DriverSQLite:
		if cfg.Store.SQLitePath == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return Config{}, fmt.Errorf("resolve home directory: %w", err)
			}
			cfg.Store.SQLitePath = filepath.Join(homeDir, configDirName, "credits.db")
		}
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Store.Driver)
	}

	location, err := loadLocation(v.GetString("clock.timezone"))
	if err != nil {
		return Config{}, err
	}
	cfg.Location = location

	if err := cfg.Log.Level.UnmarshalText([]byte(v.GetString("log.level"))); err != nil {
		return Config{}, fmt.Errorf("parse log.level: %w", err)
	}
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownLogFormat, cfg.Log.Format)
	}

	return cfg, nil
}

func loadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}

	location, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load clock.timezone %q: %w", name, err)
	}
	return location, nil
}
