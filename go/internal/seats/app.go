package seats

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/mcdev12/seatcheck/go/internal/models"
	"github.com/rs/zerolog/log"
)

// RosterStore defines what the app layer needs from the state store
type RosterStore interface {
	Load(ctx context.Context) (models.Roster, error)
	Save(ctx context.Context, roster models.Roster) error
	Reset(ctx context.Context) (models.Roster, error)
}

// Publisher delivers a full roster snapshot to connected viewers.
// Delivery is best effort; implementations must not block on slow viewers.
type Publisher interface {
	PublishSeats(ctx context.Context, roster models.Roster)
}

type noopPublisher struct{}

func (noopPublisher) PublishSeats(context.Context, models.Roster) {}

// SetCheckinRequest is a check-in or check-out of one seat
type SetCheckinRequest struct {
	Number  int
	Name    string
	Checked bool
}

// App handles seat check-in business logic
type App struct {
	store     RosterStore
	publisher Publisher

	// mu wraps every load→modify→save→publish cycle so concurrent mutations never lose updates
	mu sync.Mutex
}

// NewApp creates a new seats App. A nil publisher disables broadcasting.
func NewApp(store RosterStore, publisher Publisher) *App {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &App{
		store:     store,
		publisher: publisher,
	}
}

// ParseSeatNumber converts a raw seat number into an int
func ParseSeatNumber(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSeatNumber, raw)
	}
	return n, nil
}

// GetAllSeats returns the roster as currently persisted. Reads do not take the mutation lock.
func (a *App) GetAllSeats(ctx context.Context) (models.Roster, error) {
	roster, err := a.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load seats: %w", err)
	}
	return roster, nil
}

// GetSeat returns a single seat by number
func (a *App) GetSeat(ctx context.Context, number int) (*models.Seat, error) {
	roster, err := a.GetAllSeats(ctx)
	if err != nil {
		return nil, err
	}
	idx := roster.Index(number)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %d", ErrSeatNotFound, number)
	}
	seat := roster[idx]
	return &seat, nil
}

// SetCheckin marks or unmarks one seat, persists the roster, then broadcasts it.
// Unchecking always clears the name.
func (a *App) SetCheckin(ctx context.Context, req SetCheckinRequest) (*models.Seat, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	roster, err := a.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load seats: %w", err)
	}

	idx := roster.Index(req.Number)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %d", ErrSeatNotFound, req.Number)
	}

	seat := &roster[idx]
	seat.Checked = req.Checked
	if req.Checked {
		seat.Name = strings.TrimSpace(req.Name)
	} else {
		seat.Name = ""
	}

	if err := a.store.Save(ctx, roster); err != nil {
		return nil, fmt.Errorf("failed to save seats: %w", err)
	}
	a.publisher.PublishSeats(ctx, roster.Clone())

	log.Info().
		Int("seat_number", seat.Number).
		Bool("checked", seat.Checked).
		Str("name", seat.Name).
		Msg("seat check-in updated")

	updated := *seat
	return &updated, nil
}

// ResetAll replaces the roster with an empty one, persists it, then broadcasts it
func (a *App) ResetAll(ctx context.Context) (models.Roster, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	roster, err := a.store.Reset(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reset seats: %w", err)
	}
	a.publisher.PublishSeats(ctx, roster.Clone())

	log.Info().Int("total_seats", len(roster)).Msg("roster reset")
	return roster, nil
}
