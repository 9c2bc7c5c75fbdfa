package prescription

import (
	"time"

	"github.com/google/uuid"
)

// Prescription statuses.
const (
	StatusActive    = "active"
	StatusDispensed = "dispensed"
	StatusExpired   = "expired"
	StatusCancelled = "cancelled"
)

// DefaultValidity is how long a prescription stays dispensable.
const DefaultValidity = 90 * 24 * time.Hour

type Prescription struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	DoctorID    uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	PatientID   uuid.UUID  `db:"patient_id" json:"patient_id"`
	Status      string     `db:"status" json:"status"`
	Notes       *string    `db:"notes" json:"notes,omitempty"`
	ExpiresAt   time.Time  `db:"expires_at" json:"expires_at"`
	DispensedBy *uuid.UUID `db:"dispensed_by" json:"dispensed_by,omitempty"`
	DispensedAt *time.Time `db:"dispensed_at" json:"dispensed_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`

	Items []*Item `db:"-" json:"items,omitempty"`
}

// Item is one prescribed medication. ProductID links a catalog product
// when the doctor picked one; Medication carries free text otherwise.
type Item struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PrescriptionID uuid.UUID  `db:"prescription_id" json:"prescription_id"`
	ProductID      *uuid.UUID `db:"product_id" json:"product_id,omitempty"`
	Medication     string     `db:"medication" json:"medication"`
	Dosage         string     `db:"dosage" json:"dosage"`
	DurationDays   int        `db:"duration_days" json:"duration_days"`
	Instructions   *string    `db:"instructions" json:"instructions,omitempty"`
}

// Expired reports whether the prescription has run past its validity.
func (p *Prescription) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}
