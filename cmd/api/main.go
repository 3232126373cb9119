package main

import (
	"os"

	"github.com/hydrashare/backend/internal/pkg/logger"
	"github.com/hydrashare/backend/internal/server"
)

func main() {
	srv, err := server.NewServer()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
