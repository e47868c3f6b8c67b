package cases

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes the two case types citizens can open.
type Kind string

const (
	KindGrievance   Kind = "grievance"
	KindAppointment Kind = "appointment"
)

// Statuses move through the staff dashboard; the intake engine only ever
// writes the initial one.
const (
	StatusOpen      = "open"
	StatusScheduled = "scheduled"
)

// Case is a registered grievance or appointment.
type Case struct {
	ID           uuid.UUID `json:"id"`
	Reference    string    `json:"reference"`
	Kind         Kind      `json:"kind"`
	CitizenName  string    `json:"citizen_name"`
	CitizenPhone string    `json:"citizen_phone"`
	DepartmentID string    `json:"department_id"`
	Description  string    `json:"description,omitempty"`
	MediaRef     string    `json:"media_ref,omitempty"`
	Purpose      string    `json:"purpose,omitempty"`
	Date         string    `json:"date,omitempty"`
	TimeSlot     string    `json:"time_slot,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// Draft is the payload built from a completed flow at submission time.
type Draft struct {
	Reference    string
	Kind         Kind
	CitizenName  string
	CitizenPhone string
	DepartmentID string
	Description  string
	MediaRef     string
	Purpose      string
	Date         string
	TimeSlot     string
}

// Validate checks the fields the intake flows are responsible for.
func (d *Draft) Validate() error {
	if strings.TrimSpace(d.Reference) == "" {
		return ErrMissingReference
	}
	if d.Kind != KindGrievance && d.Kind != KindAppointment {
		return ErrInvalidKind
	}
	if strings.TrimSpace(d.CitizenName) == "" || strings.TrimSpace(d.CitizenPhone) == "" {
		return ErrMissingCitizen
	}
	return nil
}

// InitialStatus returns the status a freshly created case starts in.
func (d *Draft) InitialStatus() string {
	if d.Kind == KindAppointment {
		return StatusScheduled
	}
	return StatusOpen
}

// Department is a civic department citizens can address.
type Department struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}
