package models

import "fmt"

// Seat is one numbered check-in slot
type Seat struct {
	Number  int    `json:"number"`
	Name    string `json:"name"`
	Checked bool   `json:"checked"`
}

// Roster is the full, ordered set of seats. Seat i (0-based) always has Number i+1.
type Roster []Seat

// NewEmptyRoster builds a roster of total unchecked seats with no names
func NewEmptyRoster(total int) Roster {
	roster := make(Roster, total)
	for i := range roster {
		roster[i] = Seat{Number: i + 1}
	}
	return roster
}

// Validate checks that the roster holds exactly one seat per number in [1, total]
func (r Roster) Validate(total int) error {
	if len(r) != total {
		return fmt.Errorf("roster has %d seats, expected %d", len(r), total)
	}
	for i, seat := range r {
		if seat.Number != i+1 {
			return fmt.Errorf("seat at position %d has number %d", i+1, seat.Number)
		}
	}
	return nil
}

// Clone returns a copy that shares no memory with r
func (r Roster) Clone() Roster {
	if r == nil {
		return nil
	}
	out := make(Roster, len(r))
	copy(out, r)
	return out
}

// Index returns the slice position of the seat with the given number, or -1
func (r Roster) Index(number int) int {
	if number < 1 || number > len(r) {
		return -1
	}
	if r[number-1].Number == number {
		return number - 1
	}
	for i, seat := range r {
		if seat.Number == number {
			return i
		}
	}
	return -1
}

// CheckedIn counts seats with the checked flag set
func (r Roster) CheckedIn() int {
	n := 0
	for _, seat := range r {
		if seat.Checked {
			n++
		}
	}
	return n
}
