package gateway

import (
	"context"

	"github.com/mcdev12/seatcheck/go/internal/models"
)

// SeatsPublisher is anything that can deliver a roster snapshot
type SeatsPublisher interface {
	PublishSeats(ctx context.Context, roster models.Roster)
}

// FanOut delivers each snapshot to every publisher, in order
type FanOut []SeatsPublisher

func (f FanOut) PublishSeats(ctx context.Context, roster models.Roster) {
	for _, p := range f {
		p.PublishSeats(ctx, roster)
	}
}

var (
	_ SeatsPublisher = (*ConnectionManager)(nil)
	_ SeatsPublisher = (*JetStreamRelay)(nil)
	_ SeatsPublisher = FanOut(nil)
)
