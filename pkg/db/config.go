package db

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
)

var ErrNoActiveProfile = errors.New("no active profile found")

// Config is the persisted configuration of the active profile.
type Config struct {
	Profile   *Profile
	APIServer *APIServer
}

// APIAddress returns the API listen address.
func (c *Config) APIAddress() string {
	if c == nil || c.APIServer == nil {
		return net.JoinHostPort(DefaultAPIHost, strconv.Itoa(DefaultAPIPort))
	}
	return c.APIServer.Address()
}

// BackendURL returns the profile's telemetry service URL, or "" if unset.
func (c *Config) BackendURL() string {
	if c == nil || c.Profile == nil {
		return ""
	}
	return c.Profile.BackendURL
}

// ActiveConfig loads the configuration of the active profile.
func (db *DB) ActiveConfig(ctx context.Context) (*Config, error) {
	profile, err := db.Profiles().GetActive(ctx)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return nil, ErrNoActiveProfile
		}
		return nil, fmt.Errorf("failed to get active profile: %w", err)
	}

	apiServer, err := db.APIServers().Get(ctx, profile.ID)
	if err != nil && !errors.Is(err, ErrAPIServerNotFound) {
		return nil, fmt.Errorf("failed to get API server config: %w", err)
	}

	return &Config{Profile: profile, APIServer: apiServer}, nil
}
