package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/mcdev12/seatcheck/go/internal/models"
	"github.com/rs/zerolog/log"
)

var (
	// ErrNoRoster is returned by a Backend that has nothing persisted yet
	ErrNoRoster = errors.New("no roster persisted")

	// ErrWriteFailed wraps any failure to persist a roster
	ErrWriteFailed = errors.New("roster write failed")
)

// Backend is the durable medium a Store reads and writes whole roster documents from.
// Write must be all-or-nothing: a concurrent Read sees either the old or the new document.
type Backend interface {
	Name() string
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close() error
}

// Store persists the roster through a Backend and repairs missing or corrupt state on load.
// Nothing is cached between calls; every Load goes to the backend.
type Store struct {
	backend Backend
	total   int

	// writeMu serialises saves with self-heal writes
	writeMu sync.Mutex
}

// New creates a Store for a roster of total seats
func New(backend Backend, total int) *Store {
	return &Store{
		backend: backend,
		total:   total,
	}
}

// TotalSeats returns the configured roster size
func (s *Store) TotalSeats() int {
	return s.total
}

// Backend returns the underlying backend
func (s *Store) Backend() Backend {
	return s.backend
}

// Load reads the persisted roster. Missing or unparseable state is replaced with a fresh
// empty roster, persisted, and returned; the caller never sees the corruption.
func (s *Store) Load(ctx context.Context) (models.Roster, error) {
	data, err := s.backend.Read(ctx)
	if err != nil && !errors.Is(err, ErrNoRoster) {
		return nil, fmt.Errorf("failed to read roster from %s: %w", s.backend.Name(), err)
	}
	if err == nil {
		roster, decodeErr := s.decode(data)
		if decodeErr == nil {
			return roster, nil
		}
		log.Warn().
			Err(decodeErr).
			Str("backend", s.backend.Name()).
			Msg("persisted roster is corrupt, resetting")
	}
	return s.heal(ctx)
}

// Save overwrites the persisted roster in full
func (s *Store) Save(ctx context.Context, roster models.Roster) error {
	if err := roster.Validate(s.total); err != nil {
		return fmt.Errorf("refusing to save invalid roster: %w", err)
	}
	data, err := encode(roster)
	if err != nil {
		return fmt.Errorf("failed to encode roster: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.backend.Write(ctx, data); err != nil {
		log.Error().Err(err).Str("backend", s.backend.Name()).Msg("failed to persist roster")
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}

// Reset replaces the persisted roster with an empty one and returns it
func (s *Store) Reset(ctx context.Context) (models.Roster, error) {
	roster := models.NewEmptyRoster(s.total)
	if err := s.Save(ctx, roster); err != nil {
		return nil, err
	}
	return roster, nil
}

// heal persists an empty roster unless a valid one appeared since the caller's read.
// The re-read under writeMu keeps a heal from clobbering a save that landed in between.
func (s *Store) heal(ctx context.Context) (models.Roster, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if data, err := s.backend.Read(ctx); err == nil {
		if roster, err := s.decode(data); err == nil {
			return roster, nil
		}
	}

	roster := models.NewEmptyRoster(s.total)
	data, err := encode(roster)
	if err != nil {
		return nil, fmt.Errorf("failed to encode roster: %w", err)
	}
	if err := s.backend.Write(ctx, data); err != nil {
		log.Error().Err(err).Str("backend", s.backend.Name()).Msg("failed to persist fresh roster")
		return nil, fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	log.Info().
		Str("backend", s.backend.Name()).
		Int("total_seats", s.total).
		Msg("created empty roster")
	return roster, nil
}

func (s *Store) decode(data []byte) (models.Roster, error) {
	var roster models.Roster
	if err := json.Unmarshal(data, &roster); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	if err := roster.Validate(s.total); err != nil {
		return nil, err
	}
	// An unchecked seat never keeps a name
	for i := range roster {
		if !roster[i].Checked {
			roster[i].Name = ""
		}
	}
	return roster, nil
}

func encode(roster models.Roster) ([]byte, error) {
	data, err := json.MarshalIndent(roster, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
