package seats

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mcdev12/seatcheck/go/internal/models"
	"github.com/rs/zerolog/log"
)

// SeatsApp defines what the transport layers need from the seats application
type SeatsApp interface {
	GetAllSeats(ctx context.Context) (models.Roster, error)
	GetSeat(ctx context.Context, number int) (*models.Seat, error)
	SetCheckin(ctx context.Context, req SetCheckinRequest) (*models.Seat, error)
	ResetAll(ctx context.Context) (models.Roster, error)
}

// SessionCounter reports how many viewer sessions are connected
type SessionCounter interface {
	ConnectionCount() int
}

// ResetMessage is returned alongside the fresh roster after a reset
const ResetMessage = "roster reset"

// CheckinBody is the JSON body of POST /api/seats/{number}/check.
// Checked is kept raw so any JSON value can be coerced to a boolean.
type CheckinBody struct {
	Name    *string         `json:"name,omitempty"`
	Checked json.RawMessage `json:"checked"`
}

// ResetResponse is the body returned by POST /api/seats/reset
type ResetResponse struct {
	Message string        `json:"message"`
	Seats   models.Roster `json:"seats"`
}

// StatsResponse is the body returned by GET /api/stats
type StatsResponse struct {
	Sessions   int `json:"sessions"`
	TotalSeats int `json:"total_seats"`
	CheckedIn  int `json:"checked_in"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// Handler serves the seats REST API
type Handler struct {
	app      SeatsApp
	sessions SessionCounter
}

// NewHandler creates a new REST handler. sessions may be nil.
func NewHandler(app SeatsApp, sessions SessionCounter) *Handler {
	return &Handler{
		app:      app,
		sessions: sessions,
	}
}

// RegisterRoutes registers the seats API on r
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/seats", h.HandleGetAllSeats)
		r.Post("/seats/reset", h.HandleResetAll)
		r.Get("/seats/{number}", h.HandleGetSeat)
		r.Post("/seats/{number}/check", h.HandleSetCheckin)
		r.Get("/stats", h.HandleStats)
	})
}

// HandleGetAllSeats handles GET /api/seats
func (h *Handler) HandleGetAllSeats(w http.ResponseWriter, r *http.Request) {
	roster, err := h.app.GetAllSeats(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, roster)
}

// HandleGetSeat handles GET /api/seats/{number}
func (h *Handler) HandleGetSeat(w http.ResponseWriter, r *http.Request) {
	number, err := ParseSeatNumber(chi.URLParam(r, "number"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	seat, err := h.app.GetSeat(r.Context(), number)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, seat)
}

// HandleSetCheckin handles POST /api/seats/{number}/check
func (h *Handler) HandleSetCheckin(w http.ResponseWriter, r *http.Request) {
	number, err := ParseSeatNumber(chi.URLParam(r, "number"))
	if err != nil {
		writeAppError(w, err)
		return
	}

	var body CheckinBody
	// An empty body leaves checked unset, which unchecks the seat
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req := SetCheckinRequest{
		Number:  number,
		Checked: Truthy(body.Checked),
	}
	if body.Name != nil {
		req.Name = *body.Name
	}

	seat, err := h.app.SetCheckin(r.Context(), req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, seat)
}

// HandleResetAll handles POST /api/seats/reset
func (h *Handler) HandleResetAll(w http.ResponseWriter, r *http.Request) {
	roster, err := h.app.ResetAll(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ResetResponse{Message: ResetMessage, Seats: roster})
}

// HandleStats handles GET /api/stats
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	roster, err := h.app.GetAllSeats(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	stats := StatsResponse{
		TotalSeats: len(roster),
		CheckedIn:  roster.CheckedIn(),
	}
	if h.sessions != nil {
		stats.Sessions = h.sessions.ConnectionCount()
	}
	writeJSON(w, http.StatusOK, stats)
}

// Truthy coerces an arbitrary JSON value to a boolean: missing, null, false, 0 and "" are false
func Truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}

func writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidSeatNumber):
		writeError(w, http.StatusBadRequest, "invalid seat number")
	case errors.Is(err, ErrSeatNotFound):
		writeError(w, http.StatusNotFound, "seat not found")
	default:
		log.Error().Err(err).Msg("seats request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
