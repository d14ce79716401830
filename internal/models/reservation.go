package models

import "time"

type Reservation struct {
	ID           string            `json:"id"`
	StudentID    string            `json:"student_id"`
	HostelID     string            `json:"hostel_id"`
	Status       ReservationStatus `json:"status"`
	Message      string            `json:"message,omitempty"`
	RejectReason string            `json:"reject_reason,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Active reports whether the reservation still blocks a duplicate for the
// same (student, hostel) pair.
func (r *Reservation) Active() bool {
	return r.Status == ReservationPending || r.Status == ReservationAccepted
}
