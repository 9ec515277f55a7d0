package main

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/seatcheck/go/internal/gateway"
	"github.com/mcdev12/seatcheck/go/internal/seats"
	"github.com/mcdev12/seatcheck/go/internal/seats/store"
)

type Services struct {
	Store       *store.Store
	Connections *gateway.ConnectionManager
	Relay       *gateway.JetStreamRelay
	App         *seats.App
	Handler     *seats.Handler
	RPC         *seats.Service
	Realtime    *gateway.WebSocketHandler
}

func setupServices(ctx context.Context, cfg *Config, backend store.Backend, clock clockwork.Clock) (*Services, error) {
	// Wire up dependency injection chain
	// Backend → Store → App → REST handler / RPC service, with the gateway as publisher

	rosterStore := store.New(backend, cfg.TotalSeats)

	connections := gateway.NewConnectionManager(gateway.DefaultConnectionConfig(), clock)
	publishers := gateway.FanOut{connections}

	var relay *gateway.JetStreamRelay
	if cfg.NATS.URL != "" {
		relayCfg := gateway.DefaultJetStreamConfig()
		relayCfg.URL = cfg.NATS.URL
		relayCfg.SubjectPrefix = cfg.NATS.Subject

		var err error
		relay, err = gateway.NewJetStreamRelay(ctx, relayCfg, clock)
		if err != nil {
			return nil, fmt.Errorf("failed to start NATS relay: %w", err)
		}
		publishers = append(publishers, relay)
	}

	app := seats.NewApp(rosterStore, publishers)

	return &Services{
		Store:       rosterStore,
		Connections: connections,
		Relay:       relay,
		App:         app,
		Handler:     seats.NewHandler(app, connections),
		RPC:         seats.NewService(app),
		Realtime:    gateway.NewWebSocketHandler(connections),
	}, nil
}

// Close disconnects every viewer and releases the relay and backend
func (s *Services) Close() error {
	s.Connections.CloseAll()
	if s.Relay != nil {
		if err := s.Relay.Close(); err != nil {
			return err
		}
	}
	return s.Store.Backend().Close()
}
