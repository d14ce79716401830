package models

type Role string

const (
	RoleStudent  Role = "STUDENT"
	RoleManager  Role = "MANAGER"
	RoleSubadmin Role = "SUBADMIN"
	RoleAdmin    Role = "ADMIN"
)

// IsAdmin reports whether the role carries admin-level privileges.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSubadmin
}

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingApproved  BookingStatus = "APPROVED"
	BookingRefunded  BookingStatus = "REFUNDED"
	BookingLeft      BookingStatus = "LEFT"
	BookingCompleted BookingStatus = "COMPLETED"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationAccepted  ReservationStatus = "ACCEPTED"
	ReservationRejected  ReservationStatus = "REJECTED"
	ReservationCancelled ReservationStatus = "CANCELLED"
)

type FeeStatus string

const (
	FeePending  FeeStatus = "PENDING"
	FeeApproved FeeStatus = "APPROVED"
	FeeRejected FeeStatus = "REJECTED"
)

type ReportStatus string

const (
	ReportOpen     ReportStatus = "OPEN"
	ReportResolved ReportStatus = "RESOLVED"
)

type ReportDecision string

const (
	DecisionStudentFault ReportDecision = "STUDENT_FAULT"
	DecisionManagerFault ReportDecision = "MANAGER_FAULT"
	DecisionNone         ReportDecision = "NONE"
)

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "PENDING"
	VerificationApproved VerificationStatus = "APPROVED"
	VerificationRejected VerificationStatus = "REJECTED"
)

type HostelType string

const (
	HostelPrivate        HostelType = "PRIVATE"
	HostelShared         HostelType = "SHARED"
	HostelSharedFullRoom HostelType = "SHARED_FULLROOM"
)

type KickReason string

const (
	KickLeftHostel    KickReason = "LEFT_HOSTEL"
	KickViolatedRules KickReason = "VIOLATED_RULES"
)

const (
	// FeePerStudent is the flat monthly admin fee charged per approved booking.
	FeePerStudent = 100

	// FeeMonthLayout is the layout for MonthlyAdminFee.Month values (YYYY-MM).
	FeeMonthLayout = "2006-01"

	// ChatRateLimitMessages is the number of chat messages allowed per window.
	ChatRateLimitMessages = 20

	// ChatRateLimitWindow is the chat flood guard window in seconds.
	ChatRateLimitWindow = 60

	// WorkerQueueSize is the export worker queue size.
	WorkerQueueSize = 128
)
