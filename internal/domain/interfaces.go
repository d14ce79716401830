package domain

import (
	"context"
	"time"

	"hostelhub/internal/models"
)

// HostelFilter narrows hostel search. Zero fields are ignored.
type HostelFilter struct {
	City       string
	HostelType models.HostelType
	HostelFor  string
}

// Store is the transactional storage collaborator. Every mutating method
// that carries a performedBy argument executes as a single atomic
// transaction: it re-checks the mutable precondition (status, room count)
// inside the transaction, applies all cross-entity effects, and appends the
// audit rows before committing. Conflicting concurrent calls fail with
// ErrInvalidState or ErrPreconditionFailed; nothing is partially applied.
type Store interface {
	// Users and profiles
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, role models.Role) ([]*models.User, error)
	TerminateUser(ctx context.Context, userID, performedBy string) error

	CreateStudentProfile(ctx context.Context, profile *models.StudentProfile) error
	GetStudentProfile(ctx context.Context, id string) (*models.StudentProfile, error)
	GetStudentProfileByUserID(ctx context.Context, userID string) (*models.StudentProfile, error)
	SelfVerifyStudent(ctx context.Context, userID, fullName, institute string) (*models.StudentProfile, error)

	CreateManagerProfile(ctx context.Context, profile *models.ManagerProfile) error
	GetManagerProfile(ctx context.Context, id string) (*models.ManagerProfile, error)
	GetManagerProfileByUserID(ctx context.Context, userID string) (*models.ManagerProfile, error)

	// Hostels
	CreateHostel(ctx context.Context, hostel *models.Hostel) error
	GetHostel(ctx context.Context, id string) (*models.Hostel, error)
	UpdateHostel(ctx context.Context, hostel *models.Hostel) error
	DeactivateHostel(ctx context.Context, id string) error
	ListHostelsByManager(ctx context.Context, managerID string) ([]*models.Hostel, error)
	SearchHostels(ctx context.Context, filter HostelFilter) ([]*models.Hostel, error)
	ListHostels(ctx context.Context) ([]*models.Hostel, error)

	// Bookings
	CreateBookingGuarded(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	FindPendingBooking(ctx context.Context, studentID string) (*models.Booking, error)
	FindApprovedBooking(ctx context.Context, studentID, hostelID string) (*models.Booking, error)
	ApproveBooking(ctx context.Context, bookingID, performedBy string) (*models.Booking, error)
	DisapproveBooking(ctx context.Context, bookingID string, refund models.RefundProof, performedBy string) (*models.Booking, error)
	LeaveBooking(ctx context.Context, bookingID string, review *models.Review, performedBy string) (*models.Booking, error)
	KickBooking(ctx context.Context, bookingID string, reason models.KickReason, kickedByManagerID, performedBy string) (*models.Booking, error)
	ListBookingsByStudent(ctx context.Context, studentID string) ([]*models.Booking, error)
	ListBookingsByHostel(ctx context.Context, hostelID string) ([]*models.Booking, error)
	ListBookings(ctx context.Context, status models.BookingStatus) ([]*models.Booking, error)
	CountBookingsByStatus(ctx context.Context, hostelID string, status models.BookingStatus) (int64, error)

	// Reservations
	CreateReservationGuarded(ctx context.Context, reservation *models.Reservation) error
	GetReservation(ctx context.Context, id string) (*models.Reservation, error)
	CancelReservation(ctx context.Context, id string) (*models.Reservation, error)
	ReviewReservation(ctx context.Context, id string, status models.ReservationStatus, rejectReason string) (*models.Reservation, error)
	ListReservationsByStudent(ctx context.Context, studentID string) ([]*models.Reservation, error)
	ListReservationsByHostel(ctx context.Context, hostelID string) ([]*models.Reservation, error)

	// Monthly fees
	SubmitMonthlyFee(ctx context.Context, fee *models.MonthlyAdminFee) error
	GetFee(ctx context.Context, id string) (*models.MonthlyAdminFee, error)
	ReviewFee(ctx context.Context, id string, status models.FeeStatus, reviewedBy string) (*models.MonthlyAdminFee, error)
	ListFeesByManager(ctx context.Context, managerID string) ([]*models.MonthlyAdminFee, error)
	ListFees(ctx context.Context, status models.FeeStatus) ([]*models.MonthlyAdminFee, error)
	FindFee(ctx context.Context, managerID, hostelID, month string) (*models.MonthlyAdminFee, error)

	// Reports
	CreateReportGuarded(ctx context.Context, report *models.Report) error
	GetReport(ctx context.Context, id string) (*models.Report, error)
	ResolveReport(ctx context.Context, id string, decision models.ReportDecision, resolution, performedBy string) (*models.Report, error)
	ListReportsByStudent(ctx context.Context, studentID string) ([]*models.Report, error)
	ListReportsByManager(ctx context.Context, managerID string) ([]*models.Report, error)
	ListReports(ctx context.Context, status models.ReportStatus) ([]*models.Report, error)

	// Manager verification
	SubmitVerificationGuarded(ctx context.Context, verification *models.ManagerVerification) error
	GetVerification(ctx context.Context, id string) (*models.ManagerVerification, error)
	ReviewVerification(ctx context.Context, id string, status models.VerificationStatus, adminComment, performedBy string) (*models.ManagerVerification, error)
	ListVerificationsByManager(ctx context.Context, managerID string) ([]*models.ManagerVerification, error)
	ListVerifications(ctx context.Context, status models.VerificationStatus) ([]*models.ManagerVerification, error)

	// Chat
	EnsureConversation(ctx context.Context, studentID, managerID string) (*models.Conversation, error)
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	CreateMessage(ctx context.Context, message *models.Message) error
	ListConversationsByStudent(ctx context.Context, studentID string) ([]*models.Conversation, error)
	ListConversationsByManager(ctx context.Context, managerID string) ([]*models.Conversation, error)
	ListConversations(ctx context.Context) ([]*models.Conversation, error)
	ListMessages(ctx context.Context, conversationID string) ([]*models.Message, error)

	// Audit trail
	ListAudit(ctx context.Context, limit int) ([]*models.AuditLog, error)
	ListAuditByTarget(ctx context.Context, targetType, targetID string) ([]*models.AuditLog, error)
}

// EventPublisher delivers post-commit lifecycle events.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// RateLimiter guards high-frequency commands per actor.
type RateLimiter interface {
	Allow(ctx context.Context, actorID string, limit int, window time.Duration) (bool, error)
}

// ExportWriter renders admin exports.
type ExportWriter interface {
	WriteBookings(bookings []*models.Booking) ([]byte, error)
	WriteFees(fees []*models.MonthlyAdminFee) ([]byte, error)
}
