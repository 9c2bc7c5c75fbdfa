package inbox

import (
	"time"

	"github.com/google/uuid"
)

// Notification kinds shown in the user's inbox.
const (
	KindOrderStatus       = "order_status"
	KindAppointment       = "appointment"
	KindPrescription      = "prescription"
	KindPrescriptionReady = "prescription_ready"
)

type Notification struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	UserID    uuid.UUID  `db:"user_id" json:"user_id"`
	Kind      string     `db:"kind" json:"kind"`
	Title     string     `db:"title" json:"title"`
	Body      string     `db:"body" json:"body"`
	RefID     *uuid.UUID `db:"ref_id" json:"ref_id,omitempty"`
	Read      bool       `db:"read" json:"read"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
