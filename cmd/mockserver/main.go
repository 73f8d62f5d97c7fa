package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/expenzeus/expenzeus/internal/logger"
	"github.com/expenzeus/expenzeus/internal/mockapi"
)

func main() {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	addr := os.Getenv("MOCKAPI_ADDR")
	if addr == "" {
		addr = ":3000"
	}

	// In-memory by default; set MOCKAPI_DB to a file path to keep data
	// across restarts.
	dbURL := os.Getenv("MOCKAPI_DB")
	if dbURL == "" {
		dbURL = ":memory:"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "console"
	}

	logger.Init(logLevel, logFormat)
	log := logger.GetLogger()

	srv, err := mockapi.New(dbURL, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create mock API server: %v\n", err)
		os.Exit(1)
	}

	log.Info().Str("db", dbURL).Msg("Starting Expenzeus mock API...")

	// Start HTTP server (this blocks)
	if err := srv.Start(addr); err != nil {
		log.Fatal().Err(err).Msg("Server failed to start")
	}
}
