package schedule

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// ReplaceForDoctor swaps the doctor's whole weekly schedule in one
	// shot. Partial edits are expressed as a full replacement.
	ReplaceForDoctor(ctx context.Context, doctorID uuid.UUID, windows []*Window) error
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Window, error)
}
