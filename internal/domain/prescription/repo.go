package prescription

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("prescription not found")

type Repository interface {
	// Create persists the prescription together with its items.
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Prescription, int, error)
	// SetStatus also records the dispensing pharmacy when one is given.
	SetStatus(ctx context.Context, id uuid.UUID, status string, dispensedBy *uuid.UUID) error
}
