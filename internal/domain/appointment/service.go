package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/caremarket/caremarket/internal/domain/schedule"
)

// Business-rule rejections.
var (
	ErrOutsideSchedule = errors.New("time is outside the doctor's schedule")
	ErrSlotTaken       = errors.New("the slot is already booked")
)

// EventSink receives appointment lifecycle events for notification
// fan-out.
type EventSink interface {
	AppointmentBooked(ctx context.Context, a *Appointment)
	AppointmentStatusChanged(ctx context.Context, a *Appointment, previous string)
}

type Service struct {
	appts     Repository
	schedules *schedule.Service
	events    EventSink
}

func NewService(appts Repository, schedules *schedule.Service, events EventSink) *Service {
	return &Service{appts: appts, schedules: schedules, events: events}
}

// Book creates a pending appointment at the given start time. The time
// must fall on the doctor's slot grid inside an enabled window, in the
// future, and not collide with another non-cancelled appointment.
func (s *Service) Book(ctx context.Context, patientID, doctorID uuid.UUID, start time.Time, reason *string) (*Appointment, error) {
	if !start.After(time.Now()) {
		return nil, fmt.Errorf("start_time must be in the future")
	}

	w, err := s.schedules.WindowFor(ctx, doctorID, start.Weekday())
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, ErrOutsideSchedule
	}
	startMin := start.Hour()*60 + start.Minute()
	if !w.Contains(startMin, w.SlotMinutes) {
		return nil, ErrOutsideSchedule
	}
	end := start.Add(time.Duration(w.SlotMinutes) * time.Minute)

	clashes, err := s.appts.ListActiveByDoctorBetween(ctx, doctorID, start, end)
	if err != nil {
		return nil, err
	}
	if len(clashes) > 0 {
		return nil, ErrSlotTaken
	}

	a := &Appointment{
		PatientID: patientID,
		DoctorID:  doctorID,
		StartTime: start,
		EndTime:   end,
		Status:    StatusPending,
		Reason:    reason,
	}
	if err := s.appts.Create(ctx, a); err != nil {
		return nil, err
	}
	if s.events != nil {
		s.events.AppointmentBooked(ctx, a)
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appts.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appts.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appts.ListByDoctor(ctx, doctorID, limit, offset)
}

// UpdateStatus moves the appointment along its lifecycle.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*Appointment, error) {
	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(a.Status, status) {
		return nil, fmt.Errorf("cannot move appointment from %s to %s", a.Status, status)
	}

	if err := s.appts.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	previous := a.Status
	a.Status = status

	if s.events != nil {
		s.events.AppointmentStatusChanged(ctx, a, previous)
	}
	return a, nil
}

// Cancel is the patient-facing delete; it is a status change so the
// history survives.
func (s *Service) Cancel(ctx context.Context, id, callerID uuid.UUID) (*Appointment, error) {
	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.PatientID != callerID && a.DoctorID != callerID {
		return nil, ErrNotFound
	}
	return s.UpdateStatus(ctx, id, StatusCancelled)
}
