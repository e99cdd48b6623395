package main

import (
	"context"
	"flag"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/airsync/pkg/app"
	airsyncmcp "github.com/urmzd/airsync/pkg/mcp"
)

func main() {
	// Logging must go to stderr; stdout is the MCP transport
	app.SetupLogging(os.Stderr)

	dbPath := flag.String("db", "", "Path to database file (default: ~/.config/airsync/airsync.db)")
	profile := flag.String("profile", "", "Activate the named profile")
	createProfile := flag.Bool("create-profile", false, "Create the -profile profile if it does not exist")
	deleteProfile := flag.String("delete-profile", "", "Delete the named inactive profile")
	backend := flag.String("backend", "", "Save this backend URL on the active profile (\"off\" disables the backend)")
	envFile := flag.String("env", "", "Path to a .env file (default: ./.env)")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.Setup(ctx, app.Options{
		DBPath:        *dbPath,
		Profile:       *profile,
		CreateProfile: *createProfile,
		DeleteProfile: *deleteProfile,
		Backend:       *backend,
		EnvFile:       *envFile,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start")
	}
	defer a.Close()

	if err := a.Engine.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start sync engine")
	}

	mcpServer := airsyncmcp.NewServer(a.Engine, a.Backend())

	log.Info().Msg("Starting MCP server on stdio")

	if err := mcpServer.ServeStdio(); err != nil {
		log.Error().Err(err).Msg("MCP server failed")
	}
}
