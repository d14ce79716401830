package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"hostelhub/internal/domain"
	"hostelhub/internal/events"
	"hostelhub/internal/metrics"
	"hostelhub/internal/models"
)

type BookingService struct {
	store    domain.Store
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewBookingService(store domain.Store, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	return &BookingService{store: store, eventBus: eventBus, logger: logger}
}

// CreateBooking submits a PENDING booking with manual transfer proof.
// The amount is derived from the hostel's price for its type; the student
// must have completed self-verification.
func (s *BookingService) CreateBooking(ctx context.Context, studentUserID, hostelID string, transfer models.TransferProof) (*models.Booking, error) {
	if _, err := activeUser(ctx, s.store, studentUserID); err != nil {
		return nil, err
	}
	profile, err := s.store.GetStudentProfileByUserID(ctx, studentUserID)
	if err != nil {
		return nil, err
	}
	if !profile.SelfVerified {
		return nil, fmt.Errorf("%w: complete verification before booking", domain.ErrPreconditionFailed)
	}
	if transfer.Image == "" {
		return nil, fmt.Errorf("%w: transfer proof image is required", domain.ErrPreconditionFailed)
	}

	hostel, err := s.store.GetHostel(ctx, hostelID)
	if err != nil {
		return nil, err
	}
	price, ok := hostel.Price()
	if !ok {
		return nil, fmt.Errorf("%w: hostel has no price for its type", domain.ErrPreconditionFailed)
	}

	booking := &models.Booking{
		StudentID: profile.ID,
		HostelID:  hostelID,
		Amount:    price,
		Transfer:  transfer,
	}
	if err := s.store.CreateBookingGuarded(ctx, booking); err != nil {
		metrics.IncWorkflow("booking_create", outcome(err))
		return nil, err
	}
	metrics.IncWorkflow("booking_create", "ok")

	s.publishBookingEvent(events.EventBookingCreated, booking, studentUserID, "")
	s.logger.Info().Str("booking_id", booking.ID).Str("hostel_id", hostelID).Msg("booking created")
	return booking, nil
}

// ApproveBooking is manager-only (or admin) and idempotency-guarded: a
// second approval of the same booking fails with a state conflict.
func (s *BookingService) ApproveBooking(ctx context.Context, actorUserID, bookingID string) (*models.Booking, error) {
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if _, err := managerOwnsHostel(ctx, s.store, actorUserID, booking.HostelID); err != nil {
		return nil, err
	}

	approved, err := s.store.ApproveBooking(ctx, bookingID, actorUserID)
	if err != nil {
		metrics.IncWorkflow("booking_approve", outcome(err))
		return nil, err
	}
	metrics.IncWorkflow("booking_approve", "ok")
	s.updateRoomGauge(ctx, approved.HostelID)

	s.publishBookingEvent(events.EventBookingApproved, approved, actorUserID, "")
	s.logger.Info().Str("booking_id", bookingID).Msg("booking approved")
	return approved, nil
}

// DisapproveBooking refunds a PENDING booking; the refund proof is
// mandatory and recorded on the booking.
func (s *BookingService) DisapproveBooking(ctx context.Context, actorUserID, bookingID string, refund models.RefundProof) (*models.Booking, error) {
	if refund.Image == "" {
		return nil, fmt.Errorf("%w: refund proof image is required", domain.ErrPreconditionFailed)
	}
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if _, err := managerOwnsHostel(ctx, s.store, actorUserID, booking.HostelID); err != nil {
		return nil, err
	}

	refunded, err := s.store.DisapproveBooking(ctx, bookingID, refund, actorUserID)
	if err != nil {
		metrics.IncWorkflow("booking_disapprove", outcome(err))
		return nil, err
	}
	metrics.IncWorkflow("booking_disapprove", "ok")

	s.publishBookingEvent(events.EventBookingDisapproved, refunded, actorUserID, "")
	s.logger.Info().Str("booking_id", bookingID).Msg("booking disapproved and refunded")
	return refunded, nil
}

// LeaveHostel ends the student's own APPROVED stay; the review is
// mandatory and its rating folds into the hostel average.
func (s *BookingService) LeaveHostel(ctx context.Context, studentUserID, bookingID string, review *models.Review) (*models.Booking, error) {
	if review == nil || review.Rating < 1 || review.Rating > 5 {
		return nil, fmt.Errorf("%w: review rating must be between 1 and 5", domain.ErrPreconditionFailed)
	}
	if _, err := activeUser(ctx, s.store, studentUserID); err != nil {
		return nil, err
	}
	profile, err := s.store.GetStudentProfileByUserID(ctx, studentUserID)
	if err != nil {
		return nil, err
	}
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.StudentID != profile.ID {
		return nil, fmt.Errorf("%w: booking belongs to another student", domain.ErrNotAuthorized)
	}

	left, err := s.store.LeaveBooking(ctx, bookingID, review, studentUserID)
	if err != nil {
		metrics.IncWorkflow("booking_leave", outcome(err))
		return nil, err
	}
	metrics.IncWorkflow("booking_leave", "ok")
	s.updateRoomGauge(ctx, left.HostelID)

	s.publishBookingEvent(events.EventStudentLeft, left, studentUserID, "")
	s.logger.Info().Str("booking_id", bookingID).Msg("student left hostel")
	return left, nil
}

// KickStudent is the manager-initiated removal; a kick reason is required
// and no review is recorded.
func (s *BookingService) KickStudent(ctx context.Context, actorUserID, bookingID string, reason models.KickReason) (*models.Booking, error) {
	switch reason {
	case models.KickLeftHostel, models.KickViolatedRules:
	default:
		return nil, fmt.Errorf("%w: unknown kick reason %q", domain.ErrPreconditionFailed, reason)
	}

	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	hostel, err := managerOwnsHostel(ctx, s.store, actorUserID, booking.HostelID)
	if err != nil {
		return nil, err
	}

	kicked, err := s.store.KickBooking(ctx, bookingID, reason, hostel.ManagerID, actorUserID)
	if err != nil {
		metrics.IncWorkflow("booking_kick", outcome(err))
		return nil, err
	}
	metrics.IncWorkflow("booking_kick", "ok")
	s.updateRoomGauge(ctx, kicked.HostelID)

	s.publishBookingEvent(events.EventStudentKicked, kicked, actorUserID, string(reason))
	s.logger.Info().Str("booking_id", bookingID).Str("reason", string(reason)).Msg("student kicked")
	return kicked, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return s.store.GetBooking(ctx, id)
}

func (s *BookingService) ListMyBookings(ctx context.Context, studentUserID string) ([]*models.Booking, error) {
	profile, err := s.store.GetStudentProfileByUserID(ctx, studentUserID)
	if err != nil {
		return nil, err
	}
	return s.store.ListBookingsByStudent(ctx, profile.ID)
}

func (s *BookingService) ListHostelBookings(ctx context.Context, actorUserID, hostelID string) ([]*models.Booking, error) {
	if _, err := managerOwnsHostel(ctx, s.store, actorUserID, hostelID); err != nil {
		return nil, err
	}
	return s.store.ListBookingsByHostel(ctx, hostelID)
}

func (s *BookingService) ListBookings(ctx context.Context, actorUserID string, status models.BookingStatus) ([]*models.Booking, error) {
	if _, err := requireAdmin(ctx, s.store, actorUserID); err != nil {
		return nil, err
	}
	return s.store.ListBookings(ctx, status)
}

func (s *BookingService) publishBookingEvent(eventType string, booking *models.Booking, changedBy, reason string) {
	if s.eventBus == nil {
		return
	}
	payload := events.BookingEventPayload{
		BookingID: booking.ID,
		StudentID: booking.StudentID,
		HostelID:  booking.HostelID,
		Status:    string(booking.Status),
		Amount:    booking.Amount,
		ChangedBy: changedBy,
		Reason:    reason,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) updateRoomGauge(ctx context.Context, hostelID string) {
	hostel, err := s.store.GetHostel(ctx, hostelID)
	if err != nil {
		return
	}
	metrics.SetRoomsAvailable(hostelID, hostel.AvailableRooms)
}
