package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := loadConfig(os.Args[1:], os.LookupEnv)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	zerolog.SetGlobalLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := setupBackend(ctx, cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open roster backend")
	}

	services, err := setupServices(ctx, cfg, backend, clockwork.NewRealClock())
	if err != nil {
		backend.Close()
		log.Fatal().Err(err).Msg("failed to setup services")
	}

	// Heal or create the roster before serving
	roster, err := services.Store.Load(ctx)
	if err != nil {
		services.Close()
		log.Fatal().Err(err).Msg("failed to load roster")
	}

	log.Info().
		Int("port", cfg.Port).
		Int("total_seats", cfg.TotalSeats).
		Int("checked_in", roster.CheckedIn()).
		Str("backend", backend.Name()).
		Bool("nats_relay", services.Relay != nil).
		Msg("starting seatcheck")

	server := setupServer(cfg, services)

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Viewer sessions are hijacked connections that Shutdown does not track
	services.Connections.CloseAll()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	if err := services.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close services")
	}

	log.Info().Msg("seatcheck shutdown complete")
}
