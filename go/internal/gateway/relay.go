package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/seatcheck/go/internal/models"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// JetStreamConfig holds configuration for the NATS relay
type JetStreamConfig struct {
	URL            string
	StreamName     string
	SubjectPrefix  string
	MaxReconnects  int
	ReconnectWait  time.Duration
	MaxAge         time.Duration // How long to keep messages
	PublishTimeout time.Duration
}

// DefaultJetStreamConfig returns default relay configuration
func DefaultJetStreamConfig() JetStreamConfig {
	return JetStreamConfig{
		URL:            nats.DefaultURL,
		StreamName:     "SEATS_EVENTS",
		SubjectPrefix:  "seats.events",
		MaxReconnects:  -1, // Infinite
		ReconnectWait:  2 * time.Second,
		MaxAge:         24 * time.Hour,
		PublishTimeout: 2 * time.Second,
	}
}

// JetStreamRelay republishes every roster broadcast to a JetStream subject for
// consumers outside this process
type JetStreamRelay struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	config JetStreamConfig
	clock  clockwork.Clock
}

// NewJetStreamRelay connects to NATS and makes sure the stream exists
func NewJetStreamRelay(ctx context.Context, cfg JetStreamConfig, clock clockwork.Clock) (*JetStreamRelay, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	opts := []nats.Option{
		nats.Name("seatcheck"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	r := &JetStreamRelay{nc: nc, js: js, config: cfg, clock: clock}
	if err := r.ensureStream(ctx); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream: %w", err)
	}
	return r, nil
}

func (r *JetStreamRelay) ensureStream(ctx context.Context) error {
	_, err := r.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        r.config.StreamName,
		Description: "Seat roster updates",
		Subjects:    []string{r.config.SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      r.config.MaxAge,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
	})
	if err != nil {
		return err
	}
	log.Info().Str("stream", r.config.StreamName).Msg("JetStream stream ready")
	return nil
}

// Subject returns the subject roster updates are published on
func (r *JetStreamRelay) Subject() string {
	return r.config.SubjectPrefix + ".updated"
}

// PublishSeats publishes the roster snapshot. Failures are logged and otherwise ignored.
func (r *JetStreamRelay) PublishSeats(ctx context.Context, roster models.Roster) {
	event := NewSeatsUpdatedEvent(roster, r.clock.Now())
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal seats event for relay")
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.config.PublishTimeout)
	defer cancel()

	ack, err := r.js.Publish(pubCtx, r.Subject(), data, jetstream.WithMsgID(event.ID))
	if err != nil {
		log.Warn().
			Err(err).
			Str("subject", r.Subject()).
			Msg("failed to relay seats event")
		return
	}

	log.Debug().
		Str("subject", r.Subject()).
		Uint64("sequence", ack.Sequence).
		Msg("seats event relayed")
}

// Close drops the NATS connection
func (r *JetStreamRelay) Close() error {
	if r.nc != nil {
		r.nc.Close()
	}
	return nil
}
