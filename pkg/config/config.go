package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/airsync/pkg/db"
	"github.com/urmzd/airsync/pkg/engine"
	"github.com/urmzd/airsync/pkg/mqttbridge"
	"github.com/urmzd/airsync/pkg/remote"
)

// Environment keys.
const (
	EnvBackendURL      = "AIRSYNC_BACKEND_URL"
	EnvDeviceInterval  = "AIRSYNC_DEVICE_INTERVAL"
	EnvReadingInterval = "AIRSYNC_READING_INTERVAL"
	EnvMessageTTL      = "AIRSYNC_MESSAGE_TTL"
	EnvReadingLimit    = "AIRSYNC_READING_LIMIT"
	EnvHTTPTimeout     = "AIRSYNC_HTTP_TIMEOUT"
	EnvBreakerFailures = "AIRSYNC_BREAKER_FAILURES"
	EnvBreakerOpenFor  = "AIRSYNC_BREAKER_OPEN_FOR"
	EnvLogLevel        = "AIRSYNC_LOG_LEVEL"
	EnvMQTTBroker      = "AIRSYNC_MQTT_BROKER"
	EnvMQTTClientID    = "AIRSYNC_MQTT_CLIENT_ID"
	EnvMQTTUser        = "AIRSYNC_MQTT_USER"
	EnvMQTTPassword    = "AIRSYNC_MQTT_PASSWORD"
	EnvMQTTPrefix      = "AIRSYNC_MQTT_PREFIX"
)

// OfflineBackend as the backend URL runs the engine against the null gateway.
const OfflineBackend = "off"

var ErrInvalid = errors.New("invalid configuration value")

// Source supplies persisted settings. *db.DB implements it.
type Source interface {
	ActiveConfig(ctx context.Context) (*db.Config, error)
}

// Config is the resolved runtime configuration.
type Config struct {
	BackendURL string
	APIAddress string
	LogLevel   zerolog.Level
	Engine     engine.Config
	Remote     remote.Config
	MQTT       mqttbridge.Config
}

// Offline reports whether no backend should be contacted.
func (c *Config) Offline() bool {
	return strings.EqualFold(c.BackendURL, OfflineBackend)
}

// Load resolves the configuration. Values come from the environment (after
// loading envFiles, default ".env", without overriding variables already
// set), then the active profile in src, then defaults. src may be nil.
func Load(ctx context.Context, src Source, envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
		log.Debug().Msg("No .env file found, relying on process environment")
	}

	var persisted *db.Config
	if src != nil {
		var err error
		persisted, err = src.ActiveConfig(ctx)
		if err != nil && !errors.Is(err, db.ErrNoActiveProfile) {
			return nil, err
		}
	}

	defaults := engine.DefaultConfig()
	cfg := &Config{
		BackendURL: firstNonEmpty(os.Getenv(EnvBackendURL), persisted.BackendURL(), db.DefaultBackendURL),
		APIAddress: persisted.APIAddress(),
		MQTT: mqttbridge.Config{
			Broker:   os.Getenv(EnvMQTTBroker),
			ClientID: os.Getenv(EnvMQTTClientID),
			Username: os.Getenv(EnvMQTTUser),
			Password: os.Getenv(EnvMQTTPassword),
			Prefix:   firstNonEmpty(os.Getenv(EnvMQTTPrefix), mqttbridge.DefaultPrefix),
		},
	}

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	var err error
	cfg.LogLevel, err = levelEnv(EnvLogLevel, zerolog.InfoLevel)
	collect(err)

	cfg.Engine.DeviceInterval, err = durationEnv(EnvDeviceInterval, defaults.DeviceInterval)
	collect(err)
	cfg.Engine.ReadingInterval, err = durationEnv(EnvReadingInterval, defaults.ReadingInterval)
	collect(err)
	cfg.Engine.MessageTTL, err = durationEnv(EnvMessageTTL, defaults.MessageTTL)
	collect(err)
	cfg.Engine.ReadingLimit, err = intEnv(EnvReadingLimit, defaults.ReadingLimit)
	collect(err)

	cfg.Remote.BaseURL = cfg.BackendURL
	cfg.Remote.Timeout, err = durationEnv(EnvHTTPTimeout, 10*time.Second)
	collect(err)
	cfg.Remote.BreakerFailures, err = intEnv(EnvBreakerFailures, 5)
	collect(err)
	cfg.Remote.BreakerOpenFor, err = durationEnv(EnvBreakerOpenFor, 30*time.Second)
	collect(err)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: %s=%q is not a positive duration", ErrInvalid, key, raw)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %s=%q is not a positive integer", ErrInvalid, key, raw)
	}
	return n, nil
}

func levelEnv(key string, def zerolog.Level) (zerolog.Level, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return def, fmt.Errorf("%w: %s=%q", ErrInvalid, key, raw)
	}
	return lvl, nil
}
