package models

import "time"

// AuditLog rows are appended inside the transaction that performs the
// privileged change and are never updated afterwards.
type AuditLog struct {
	ID          string    `json:"id"`
	Action      string    `json:"action"`
	PerformedBy string    `json:"performed_by"`
	TargetType  string    `json:"target_type"`
	TargetID    string    `json:"target_id"`
	Details     string    `json:"details,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

const (
	AuditBookingApproved    = "BOOKING_APPROVED"
	AuditBookingDisapproved = "BOOKING_DISAPPROVED_REFUNDED"
	AuditStudentLeftHostel  = "STUDENT_LEFT_HOSTEL"
	AuditStudentKicked      = "STUDENT_KICKED"
	AuditFeeReviewed        = "MONTHLY_FEE"
	AuditReportResolved     = "REPORT_RESOLVED"
	AuditStudentTerminated  = "STUDENT_TERMINATED_REPORT"
	AuditManagerTerminated  = "MANAGER_TERMINATED_REPORT"
	AuditVerification       = "VERIFICATION"
	AuditTerminateUser      = "TERMINATE_USER"
)
