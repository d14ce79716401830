package models

import "time"

type Report struct {
	ID              string         `json:"id"`
	BookingID       string         `json:"booking_id"`
	StudentID       string         `json:"student_id"`
	ManagerID       string         `json:"manager_id"`
	Description     string         `json:"description"`
	Status          ReportStatus   `json:"status"`
	Decision        ReportDecision `json:"decision,omitempty"`
	FinalResolution string         `json:"final_resolution,omitempty"`
	ResolvedBy      string         `json:"resolved_by,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}
