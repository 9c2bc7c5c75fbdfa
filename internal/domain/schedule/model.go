package schedule

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Window is one weekday's working window for a doctor. Start and End are
// clock times in "HH:MM" form; appointments are booked on a grid of
// SlotMinutes inside the window.
type Window struct {
	ID          uuid.UUID `db:"id" json:"id"`
	DoctorID    uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Weekday     int       `db:"weekday" json:"weekday"` // 0 = Sunday, per time.Weekday
	Start       string    `db:"start_time" json:"start"`
	End         string    `db:"end_time" json:"end"`
	SlotMinutes int       `db:"slot_minutes" json:"slot_minutes"`
	Enabled     bool      `db:"enabled" json:"enabled"`
}

// Slot is a bookable interval derived from a window for a concrete date.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// minuteOfDay parses an "HH:MM" clock time into minutes since midnight.
func minuteOfDay(clock string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(clock, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", clock)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q", clock)
	}
	return h*60 + m, nil
}

// Validate checks the window's fields.
func (w *Window) Validate() error {
	if w.Weekday < 0 || w.Weekday > 6 {
		return fmt.Errorf("weekday must be 0..6")
	}
	start, err := minuteOfDay(w.Start)
	if err != nil {
		return err
	}
	end, err := minuteOfDay(w.End)
	if err != nil {
		return err
	}
	if end <= start {
		return fmt.Errorf("end must be after start")
	}
	if w.SlotMinutes < 5 || w.SlotMinutes > 240 {
		return fmt.Errorf("slot_minutes must be between 5 and 240")
	}
	return nil
}

// Contains reports whether a clock minute interval fits entirely inside
// the window and begins on the slot grid.
func (w *Window) Contains(startMin, durMin int) bool {
	ws, err := minuteOfDay(w.Start)
	if err != nil {
		return false
	}
	we, err := minuteOfDay(w.End)
	if err != nil {
		return false
	}
	if startMin < ws || startMin+durMin > we {
		return false
	}
	return (startMin-ws)%w.SlotMinutes == 0
}
