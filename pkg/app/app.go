package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/airsync/pkg/config"
	"github.com/urmzd/airsync/pkg/db"
	"github.com/urmzd/airsync/pkg/device"
	"github.com/urmzd/airsync/pkg/device/schema"
	"github.com/urmzd/airsync/pkg/engine"
	"github.com/urmzd/airsync/pkg/metrics"
	"github.com/urmzd/airsync/pkg/remote"
)

// Options are the command-line settings shared by every binary.
type Options struct {
	DBPath        string
	Profile       string // activate this profile before loading config
	CreateProfile bool   // create Profile if it does not exist
	DeleteProfile string // delete this inactive profile
	Backend       string // persist this backend URL on the active profile
	Listen        string // persist this host:port as the active profile's API address
	EnvFile       string
}

// ErrActiveProfile is returned when deleting the active profile.
var ErrActiveProfile = errors.New("cannot delete the active profile")

// App is the wired sync engine with its settings store.
type App struct {
	DB      *db.DB
	Config  *config.Config
	Metrics *metrics.Metrics
	Engine  *engine.Engine
}

// SetupLogging configures the global zerolog logger. Output goes to w, which
// must not be stdout for the MCP binary.
func SetupLogging(w io.Writer) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w})
}

// Setup opens the database, resolves configuration and builds the engine.
// The engine is not started.
func Setup(ctx context.Context, opts Options) (*App, error) {
	database, err := db.Open(opts.DBPath)
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", database.Path()).Msg("Database opened")

	a := &App{DB: database}
	if err := a.init(ctx, opts); err != nil {
		_ = database.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context, opts Options) error {
	if err := a.DB.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	needsBootstrap, err := a.DB.NeedsBootstrap(ctx)
	if err != nil {
		return fmt.Errorf("failed to check bootstrap status: %w", err)
	}
	if needsBootstrap {
		log.Info().Msg("First run detected, bootstrapping database...")
		if err := a.DB.Bootstrap(ctx); err != nil {
			return fmt.Errorf("failed to bootstrap database: %w", err)
		}
	}

	if err := applyProfileOptions(ctx, a.DB, opts); err != nil {
		return err
	}

	var envFiles []string
	if opts.EnvFile != "" {
		envFiles = append(envFiles, opts.EnvFile)
	}
	cfg, err := config.Load(ctx, a.DB, envFiles...)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	a.Config = cfg
	zerolog.SetGlobalLevel(cfg.LogLevel)

	a.Metrics = metrics.New()
	a.Engine = engine.New(a.gateway(), cfg.Engine, a.Metrics)

	log.Info().
		Str("backend", cfg.BackendURL).
		Str("api_address", cfg.APIAddress).
		Bool("mqtt", cfg.MQTT.Enabled()).
		Msg("Configuration loaded")
	return nil
}

func (a *App) gateway() device.Gateway {
	if a.Config.Offline() {
		log.Warn().Msg("Backend disabled, using null gateway")
		return device.NewNullGateway()
	}

	validator, err := schema.NewCommandValidator()
	if err != nil {
		// The schema is embedded; commands go out unvalidated if it ever fails.
		log.Error().Err(err).Msg("Failed to compile command schema")
	}
	return remote.New(a.Config.Remote, validator, a.Metrics)
}

// Backend returns the backend URL, or "" when running offline.
func (a *App) Backend() string {
	if a.Config.Offline() {
		return ""
	}
	return a.Config.BackendURL
}

// Close stops the engine and closes the database.
func (a *App) Close() {
	if a.Engine != nil {
		a.Engine.Close()
	}
	if err := a.DB.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close database")
	}
}

func applyProfileOptions(ctx context.Context, database *db.DB, opts Options) error {
	profiles := database.Profiles()

	if name := strings.TrimSpace(opts.Profile); name != "" {
		if err := activateProfile(ctx, profiles, name, opts.CreateProfile); err != nil {
			return err
		}
	}

	if name := strings.TrimSpace(opts.DeleteProfile); name != "" {
		if err := deleteProfile(ctx, profiles, name); err != nil {
			return err
		}
	}

	if backend := strings.TrimSpace(opts.Backend); backend != "" {
		p, err := profiles.GetActive(ctx)
		if err != nil {
			return fmt.Errorf("failed to load active profile: %w", err)
		}
		p.BackendURL = backend
		if err := profiles.Update(ctx, p); err != nil {
			return fmt.Errorf("failed to save backend URL: %w", err)
		}
		log.Info().Str("profile", p.Name).Str("backend", backend).Msg("Backend URL saved")
	}

	if listen := strings.TrimSpace(opts.Listen); listen != "" {
		if err := saveListenAddress(ctx, database, listen); err != nil {
			return err
		}
	}
	return nil
}

func activateProfile(ctx context.Context, profiles db.ProfileStore, name string, create bool) error {
	p, err := profiles.GetByName(ctx, name)
	if errors.Is(err, db.ErrProfileNotFound) && create {
		p = &db.Profile{Name: name, BackendURL: db.DefaultBackendURL}
		if err := profiles.Create(ctx, p); err != nil {
			return err
		}
		log.Info().Str("profile", name).Msg("Profile created")
	} else if err != nil {
		return fmt.Errorf("profile %q (known: %s): %w", name, profileNames(ctx, profiles), err)
	}

	if err := profiles.SetActive(ctx, p.ID); err != nil {
		return fmt.Errorf("failed to activate profile %q: %w", name, err)
	}
	log.Info().Str("profile", name).Msg("Profile activated")
	return nil
}

func deleteProfile(ctx context.Context, profiles db.ProfileStore, name string) error {
	p, err := profiles.GetByName(ctx, name)
	if err != nil {
		return fmt.Errorf("profile %q: %w", name, err)
	}
	if p.IsActive {
		return fmt.Errorf("%w: profile %q is active", ErrActiveProfile, name)
	}
	if err := profiles.Delete(ctx, p.ID); err != nil {
		return fmt.Errorf("failed to delete profile %q: %w", name, err)
	}
	log.Info().Str("profile", name).Msg("Profile deleted")
	return nil
}

func profileNames(ctx context.Context, profiles db.ProfileStore) string {
	list, err := profiles.List(ctx)
	if err != nil || len(list) == 0 {
		return "none"
	}
	names := make([]string, len(list))
	for i, p := range list {
		names[i] = p.Name
	}
	return strings.Join(names, ", ")
}

// saveListenAddress stores host:port as the active profile's API address.
func saveListenAddress(ctx context.Context, database *db.DB, listen string) error {
	host, rawPort, err := net.SplitHostPort(listen)
	if err != nil {
		return fmt.Errorf("%w: listen address %q: %v", config.ErrInvalid, listen, err)
	}
	port, err := strconv.Atoi(rawPort)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%w: listen port %q", config.ErrInvalid, rawPort)
	}
	if host == "" {
		host = db.DefaultAPIHost
	}

	p, err := database.Profiles().GetActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to load active profile: %w", err)
	}
	if err := database.APIServers().Update(ctx, &db.APIServer{ProfileID: p.ID, Host: host, Port: port}); err != nil {
		return err
	}
	log.Info().Str("profile", p.Name).Str("address", net.JoinHostPort(host, rawPort)).Msg("API address saved")
	return nil
}
