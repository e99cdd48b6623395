package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/airsync/pkg/api"
	"github.com/urmzd/airsync/pkg/app"
	"github.com/urmzd/airsync/pkg/mqttbridge"

	_ "github.com/urmzd/airsync/docs"
)

// @title           Airsync API
// @version         1.0
// @description     Sync state and fan control for air-quality monitors

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http https

func main() {
	app.SetupLogging(os.Stderr)

	// Parse flags
	dbPath := flag.String("db", "", "Path to database file (default: ~/.config/airsync/airsync.db)")
	profile := flag.String("profile", "", "Activate the named profile")
	createProfile := flag.Bool("create-profile", false, "Create the -profile profile if it does not exist")
	deleteProfile := flag.String("delete-profile", "", "Delete the named inactive profile")
	backend := flag.String("backend", "", "Save this backend URL on the active profile (\"off\" disables the backend)")
	listen := flag.String("listen", "", "Save this host:port as the active profile's API address")
	envFile := flag.String("env", "", "Path to a .env file (default: ./.env)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Setup(ctx, app.Options{
		DBPath:        *dbPath,
		Profile:       *profile,
		CreateProfile: *createProfile,
		DeleteProfile: *deleteProfile,
		Backend:       *backend,
		Listen:        *listen,
		EnvFile:       *envFile,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start")
	}
	defer a.Close()

	if err := a.Engine.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start sync engine")
	}

	var wg sync.WaitGroup
	if a.Config.MQTT.Enabled() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runBridge(ctx, a)
		}()
	}

	router := api.NewRouter(a.Engine, a.Backend(), a.Metrics.Handler())
	srv := &http.Server{
		Addr:              a.Config.APIAddress,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info().Msg("Shutting down...")

		// Close the engine first so event streams end.
		a.Engine.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown failed")
		}
	}()

	log.Info().Str("address", srv.Addr).Msg("Starting API server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("Server failed")
	}

	stop()
	wg.Wait()
}

func runBridge(ctx context.Context, a *app.App) {
	client, err := mqttbridge.Connect(ctx, a.Config.MQTT)
	if err != nil {
		log.Error().Err(err).Msg("MQTT bridge disabled")
		return
	}

	bridge := mqttbridge.New(client, a.Engine, a.Config.MQTT.Prefix)
	if err := bridge.Run(ctx); err != nil {
		log.Error().Err(err).Msg("MQTT bridge failed")
	}
}
