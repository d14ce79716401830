package models

import "time"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	IsTerminated bool      `json:"is_terminated"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StudentProfile is the student-side domain profile, 1:1 with a User.
// CurrentHostelID is non-empty only while an APPROVED booking exists.
type StudentProfile struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	FullName        string    `json:"full_name"`
	Institute       string    `json:"institute"`
	SelfVerified    bool      `json:"self_verified"`
	CurrentHostelID string    `json:"current_hostel_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ManagerProfile is the manager-side domain profile, 1:1 with a User.
// Verified flips true only via an approved verification review.
type ManagerProfile struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
