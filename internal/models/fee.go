package models

import "time"

// MonthlyAdminFee is unique per (manager, hostel, month); Month is YYYY-MM.
type MonthlyAdminFee struct {
	ID                string    `json:"id"`
	ManagerID         string    `json:"manager_id"`
	HostelID          string    `json:"hostel_id"`
	Month             string    `json:"month"`
	StudentCount      int64     `json:"student_count"`
	TotalRevenue      int64     `json:"total_revenue"`
	FeeAmount         int64     `json:"fee_amount"`
	PaymentProofImage string    `json:"payment_proof_image,omitempty"`
	Status            FeeStatus `json:"status"`
	ReviewedBy        string    `json:"reviewed_by,omitempty"`
	SubmittedAt       time.Time `json:"submitted_at"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// FeeSummary is the per-hostel current-month settlement snapshot shown to
// managers before submission.
type FeeSummary struct {
	HostelID       string    `json:"hostel_id"`
	HostelName     string    `json:"hostel_name"`
	Month          string    `json:"month"`
	ActiveStudents int64     `json:"active_students"`
	FeeAmount      int64     `json:"fee_amount"`
	Submitted      bool      `json:"submitted"`
	Status         FeeStatus `json:"status,omitempty"`
}
