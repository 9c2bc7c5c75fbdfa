package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BookingSource reports the start times of non-cancelled appointments so
// slot derivation can exclude them. Implemented by the appointment
// repository.
type BookingSource interface {
	BookedStarts(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]time.Time, error)
}

type Service struct {
	windows  Repository
	bookings BookingSource
}

func NewService(windows Repository, bookings BookingSource) *Service {
	return &Service{windows: windows, bookings: bookings}
}

// SetBookingSource breaks the schedule/appointment construction cycle;
// the appointment repository is attached after both services exist.
func (s *Service) SetBookingSource(b BookingSource) { s.bookings = b }

// Replace validates and stores the doctor's full weekly schedule. At most
// one window per weekday.
func (s *Service) Replace(ctx context.Context, doctorID uuid.UUID, windows []*Window) error {
	seen := make(map[int]bool)
	for _, w := range windows {
		if err := w.Validate(); err != nil {
			return err
		}
		if seen[w.Weekday] {
			return fmt.Errorf("duplicate window for weekday %d", w.Weekday)
		}
		seen[w.Weekday] = true
	}
	return s.windows.ReplaceForDoctor(ctx, doctorID, windows)
}

func (s *Service) ForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Window, error) {
	return s.windows.ListByDoctor(ctx, doctorID)
}

// WindowFor returns the enabled window covering the given weekday, or nil.
func (s *Service) WindowFor(ctx context.Context, doctorID uuid.UUID, weekday time.Weekday) (*Window, error) {
	windows, err := s.windows.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	for _, w := range windows {
		if w.Weekday == int(weekday) && w.Enabled {
			return w, nil
		}
	}
	return nil, nil
}

// SlotsFor derives the free slots of a doctor's day: the window's slot
// grid minus already-booked start times.
func (s *Service) SlotsFor(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Slot, error) {
	w, err := s.WindowFor(ctx, doctorID, date.Weekday())
	if err != nil {
		return nil, err
	}
	if w == nil {
		return []Slot{}, nil
	}

	startMin, err := minuteOfDay(w.Start)
	if err != nil {
		return nil, err
	}
	endMin, err := minuteOfDay(w.End)
	if err != nil {
		return nil, err
	}

	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayStart := midnight.Add(time.Duration(startMin) * time.Minute)
	dayEnd := midnight.Add(time.Duration(endMin) * time.Minute)

	booked := make(map[time.Time]bool)
	if s.bookings != nil {
		starts, err := s.bookings.BookedStarts(ctx, doctorID, dayStart, dayEnd)
		if err != nil {
			return nil, err
		}
		for _, t := range starts {
			booked[t.In(date.Location()).Truncate(time.Minute)] = true
		}
	}

	step := time.Duration(w.SlotMinutes) * time.Minute
	slots := []Slot{}
	for t := dayStart; !t.Add(step).After(dayEnd); t = t.Add(step) {
		if booked[t] {
			continue
		}
		slots = append(slots, Slot{Start: t, End: t.Add(step)})
	}
	return slots, nil
}
