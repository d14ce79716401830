package models

import "time"

// TransferProof is the manual proof-of-transfer reference supplied by a
// student at booking time. Images are opaque references, never fetched.
type TransferProof struct {
	Image       string `json:"image"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	FromAccount string `json:"from_account"`
	ToAccount   string `json:"to_account"`
}

// RefundProof is recorded when a manager disapproves a pending booking.
type RefundProof struct {
	Image string `json:"image"`
	Date  string `json:"date"`
	Time  string `json:"time"`
}

type Booking struct {
	ID        string        `json:"id"`
	StudentID string        `json:"student_id"`
	HostelID  string        `json:"hostel_id"`
	Status    BookingStatus `json:"status"`
	Amount    int64         `json:"amount"`
	Transfer  TransferProof `json:"transfer"`
	Refund    *RefundProof  `json:"refund,omitempty"`

	// Kick fields are set only on a LEFT booking that was manager-initiated.
	KickReason KickReason `json:"kick_reason,omitempty"`
	KickedBy   string     `json:"kicked_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
