package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urmzd/airsync/pkg/db"
	"github.com/urmzd/airsync/pkg/mqttbridge"
)

var allKeys = []string{
	EnvBackendURL, EnvDeviceInterval, EnvReadingInterval, EnvMessageTTL, EnvReadingLimit,
	EnvHTTPTimeout, EnvBreakerFailures, EnvBreakerOpenFor, EnvLogLevel,
	EnvMQTTBroker, EnvMQTTClientID, EnvMQTTUser, EnvMQTTPassword, EnvMQTTPrefix,
}

// clearEnv unsets every key for the test, restoring them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

type fakeSource struct {
	cfg *db.Config
	err error
}

func (f fakeSource) ActiveConfig(context.Context) (*db.Config, error) {
	return f.cfg, f.err
}

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(context.Background(), nil, missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.BackendURL)
	assert.Equal(t, cfg.BackendURL, cfg.Remote.BaseURL)
	assert.Equal(t, "0.0.0.0:8080", cfg.APIAddress)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.Engine.DeviceInterval)
	assert.Equal(t, 5*time.Second, cfg.Engine.ReadingInterval)
	assert.Equal(t, 4*time.Second, cfg.Engine.MessageTTL)
	assert.Equal(t, 100, cfg.Engine.ReadingLimit)
	assert.Equal(t, 10*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, 5, cfg.Remote.BreakerFailures)
	assert.Equal(t, 30*time.Second, cfg.Remote.BreakerOpenFor)
	assert.Equal(t, mqttbridge.DefaultPrefix, cfg.MQTT.Prefix)
	assert.False(t, cfg.MQTT.Enabled())
	assert.False(t, cfg.Offline())
}

func TestLoad_ProfileThenEnv(t *testing.T) {
	clearEnv(t)
	src := fakeSource{cfg: &db.Config{
		Profile:   &db.Profile{Name: "lab", BackendURL: "http://lab:8000"},
		APIServer: &db.APIServer{Host: "127.0.0.1", Port: 9000},
	}}

	cfg, err := Load(context.Background(), src, missingEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, "http://lab:8000", cfg.BackendURL)
	assert.Equal(t, "127.0.0.1:9000", cfg.APIAddress)

	t.Setenv(EnvBackendURL, "http://env:8000")
	t.Setenv(EnvReadingInterval, "250ms")
	t.Setenv(EnvLogLevel, "DEBUG")
	t.Setenv(EnvMQTTBroker, "tcp://broker:1883")

	cfg, err = Load(context.Background(), src, missingEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, "http://env:8000", cfg.BackendURL)
	assert.Equal(t, 250*time.Millisecond, cfg.Engine.ReadingInterval)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
	assert.True(t, cfg.MQTT.Enabled())
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("AIRSYNC_READING_LIMIT=7\nAIRSYNC_BACKEND_URL=off\n"), 0o600))

	cfg, err := Load(context.Background(), nil, path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Engine.ReadingLimit)
	assert.True(t, cfg.Offline())
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDeviceInterval, "soon")
	t.Setenv(EnvReadingLimit, "-1")
	t.Setenv(EnvLogLevel, "loud")

	_, err := Load(context.Background(), nil, missingEnvFile(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), EnvDeviceInterval)
	assert.Contains(t, err.Error(), EnvReadingLimit)
	assert.Contains(t, err.Error(), EnvLogLevel)
}

func TestLoad_SourceErrors(t *testing.T) {
	clearEnv(t)

	_, err := Load(context.Background(), fakeSource{err: db.ErrNoActiveProfile}, missingEnvFile(t))
	assert.NoError(t, err)

	boom := errors.New("boom")
	_, err = Load(context.Background(), fakeSource{err: boom}, missingEnvFile(t))
	assert.ErrorIs(t, err, boom)
}
