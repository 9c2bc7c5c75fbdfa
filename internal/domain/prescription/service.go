package prescription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrExpired          = errors.New("prescription has expired")
	ErrAlreadyDispensed = errors.New("prescription already dispensed")
)

// EventSink receives prescription events for notification fan-out.
type EventSink interface {
	PrescriptionIssued(ctx context.Context, p *Prescription)
	PrescriptionDispensed(ctx context.Context, p *Prescription)
}

type Service struct {
	rx     Repository
	events EventSink
	now    func() time.Time
}

func NewService(rx Repository, events EventSink) *Service {
	return &Service{rx: rx, events: events, now: time.Now}
}

type IssueInput struct {
	PatientID uuid.UUID `json:"patient_id"`
	Notes     *string   `json:"notes,omitempty"`
	Items     []*Item   `json:"items"`
}

// Issue creates an active prescription from a doctor for a patient.
func (s *Service) Issue(ctx context.Context, doctorID uuid.UUID, in IssueInput) (*Prescription, error) {
	if in.PatientID == uuid.Nil {
		return nil, fmt.Errorf("patient_id is required")
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("at least one item is required")
	}
	for _, it := range in.Items {
		if it.Medication == "" {
			return nil, fmt.Errorf("medication is required on every item")
		}
		if it.Dosage == "" {
			return nil, fmt.Errorf("dosage is required on every item")
		}
		if it.DurationDays < 1 {
			return nil, fmt.Errorf("duration_days must be at least 1")
		}
	}

	p := &Prescription{
		DoctorID:  doctorID,
		PatientID: in.PatientID,
		Status:    StatusActive,
		Notes:     in.Notes,
		ExpiresAt: s.now().Add(DefaultValidity),
		Items:     in.Items,
	}
	if err := s.rx.Create(ctx, p); err != nil {
		return nil, err
	}
	if s.events != nil {
		s.events.PrescriptionIssued(ctx, p)
	}
	return p, nil
}

// Get lazily expires a stale prescription on read.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := s.rx.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status == StatusActive && p.Expired(s.now()) {
		if err := s.rx.SetStatus(ctx, id, StatusExpired, nil); err != nil {
			return nil, err
		}
		p.Status = StatusExpired
	}
	return p, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return s.rx.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return s.rx.ListByDoctor(ctx, doctorID, limit, offset)
}

// Dispense marks an active, unexpired prescription as dispensed by the
// given pharmacy.
func (s *Service) Dispense(ctx context.Context, id, pharmacyID uuid.UUID) (*Prescription, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch p.Status {
	case StatusDispensed:
		return nil, ErrAlreadyDispensed
	case StatusExpired:
		return nil, ErrExpired
	case StatusCancelled:
		return nil, fmt.Errorf("prescription is cancelled")
	}

	if err := s.rx.SetStatus(ctx, id, StatusDispensed, &pharmacyID); err != nil {
		return nil, err
	}
	p.Status = StatusDispensed
	p.DispensedBy = &pharmacyID
	now := s.now()
	p.DispensedAt = &now

	if s.events != nil {
		s.events.PrescriptionDispensed(ctx, p)
	}
	return p, nil
}

// Cancel voids an active prescription. Only the issuing doctor may do it.
func (s *Service) Cancel(ctx context.Context, id, doctorID uuid.UUID) (*Prescription, error) {
	p, err := s.rx.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.DoctorID != doctorID {
		return nil, ErrNotFound
	}
	if p.Status != StatusActive {
		return nil, fmt.Errorf("only active prescriptions can be cancelled")
	}

	if err := s.rx.SetStatus(ctx, id, StatusCancelled, nil); err != nil {
		return nil, err
	}
	p.Status = StatusCancelled
	return p, nil
}
