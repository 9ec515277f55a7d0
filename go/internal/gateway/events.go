package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/seatcheck/go/internal/models"
)

// EventType names a realtime event pushed to viewers
type EventType string

const (
	EventTypeSeatsUpdated EventType = "seatsUpdated"
)

// SeatsEvent is the envelope pushed to WebSocket viewers and the relay
type SeatsEvent struct {
	Event     EventType     `json:"event"`
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Data      models.Roster `json:"data"`
}

// outbound is one broadcast, encoded once and shared by every session.
// message is the full envelope; data is the bare roster used by SSE frames.
type outbound struct {
	event   EventType
	message []byte
	data    []byte
}

// NewSeatsUpdatedEvent wraps a roster snapshot in an event envelope
func NewSeatsUpdatedEvent(roster models.Roster, now time.Time) *SeatsEvent {
	if roster == nil {
		roster = models.Roster{}
	}
	return &SeatsEvent{
		Event:     EventTypeSeatsUpdated,
		ID:        uuid.New().String(),
		Timestamp: now.UTC(),
		Data:      roster,
	}
}

func encodeEvent(event *SeatsEvent) (outbound, error) {
	message, err := json.Marshal(event)
	if err != nil {
		return outbound{}, fmt.Errorf("marshal event: %w", err)
	}
	data, err := json.Marshal(event.Data)
	if err != nil {
		return outbound{}, fmt.Errorf("marshal event data: %w", err)
	}
	return outbound{event: event.Event, message: message, data: data}, nil
}
