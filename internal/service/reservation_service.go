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

type ReservationService struct {
	store    domain.Store
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewReservationService(store domain.Store, eventBus domain.EventPublisher, logger *zerolog.Logger) *ReservationService {
	return &ReservationService{store: store, eventBus: eventBus, logger: logger}
}

// CreateReservation places a non-binding hold request. Room inventory is
// never touched by reservations.
func (s *ReservationService) CreateReservation(ctx context.Context, studentUserID, hostelID, message string) (*models.Reservation, error) {
	if _, err := activeUser(ctx, s.store, studentUserID); err != nil {
		return nil, err
	}
	profile, err := s.store.GetStudentProfileByUserID(ctx, studentUserID)
	if err != nil {
		return nil, err
	}
	if !profile.SelfVerified {
		return nil, fmt.Errorf("%w: complete verification before reserving", domain.ErrPreconditionFailed)
	}
	if profile.CurrentHostelID != "" {
		return nil, fmt.Errorf("%w: already living in a hostel", domain.ErrPreconditionFailed)
	}
	hostel, err := s.store.GetHostel(ctx, hostelID)
	if err != nil {
		return nil, err
	}
	if !hostel.IsActive {
		return nil, fmt.Errorf("%w: hostel is inactive", domain.ErrPreconditionFailed)
	}

	reservation := &models.Reservation{
		StudentID: profile.ID,
		HostelID:  hostelID,
		Message:   message,
	}
	if err := s.store.CreateReservationGuarded(ctx, reservation); err != nil {
		metrics.IncWorkflow("reservation_create", outcome(err))
		return nil, err
	}
	metrics.IncWorkflow("reservation_create", "ok")

	s.publishEvent(events.EventReservationCreated, reservation, studentUserID)
	s.logger.Info().Str("reservation_id", reservation.ID).Str("hostel_id", hostelID).Msg("reservation created")
	return reservation, nil
}

// CancelReservation is student-initiated and valid only while PENDING.
func (s *ReservationService) CancelReservation(ctx context.Context, studentUserID, reservationID string) (*models.Reservation, error) {
	if _, err := activeUser(ctx, s.store, studentUserID); err != nil {
		return nil, err
	}
	profile, err := s.store.GetStudentProfileByUserID(ctx, studentUserID)
	if err != nil {
		return nil, err
	}
	reservation, err := s.store.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if reservation.StudentID != profile.ID {
		return nil, fmt.Errorf("%w: reservation belongs to another student", domain.ErrNotAuthorized)
	}

	cancelled, err := s.store.CancelReservation(ctx, reservationID)
	if err != nil {
		metrics.IncWorkflow("reservation_cancel", outcome(err))
		return nil, err
	}
	metrics.IncWorkflow("reservation_cancel", "ok")
	return cancelled, nil
}

// ReviewReservation accepts or rejects a PENDING reservation; rejection
// requires a reason.
func (s *ReservationService) ReviewReservation(ctx context.Context, actorUserID, reservationID string, accept bool, rejectReason string) (*models.Reservation, error) {
	reservation, err := s.store.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if _, err := managerOwnsHostel(ctx, s.store, actorUserID, reservation.HostelID); err != nil {
		return nil, err
	}

	status := models.ReservationAccepted
	if !accept {
		if rejectReason == "" {
			return nil, fmt.Errorf("%w: reject reason is required", domain.ErrPreconditionFailed)
		}
		status = models.ReservationRejected
	} else {
		rejectReason = ""
	}

	reviewed, err := s.store.ReviewReservation(ctx, reservationID, status, rejectReason)
	if err != nil {
		metrics.IncWorkflow("reservation_review", outcome(err))
		return nil, err
	}
	metrics.IncWorkflow("reservation_review", "ok")

	s.publishEvent(events.EventReservationReviewed, reviewed, actorUserID)
	s.logger.Info().Str("reservation_id", reservationID).Str("status", string(status)).Msg("reservation reviewed")
	return reviewed, nil
}

func (s *ReservationService) ListMyReservations(ctx context.Context, studentUserID string) ([]*models.Reservation, error) {
	profile, err := s.store.GetStudentProfileByUserID(ctx, studentUserID)
	if err != nil {
		return nil, err
	}
	return s.store.ListReservationsByStudent(ctx, profile.ID)
}

func (s *ReservationService) ListHostelReservations(ctx context.Context, actorUserID, hostelID string) ([]*models.Reservation, error) {
	if _, err := managerOwnsHostel(ctx, s.store, actorUserID, hostelID); err != nil {
		return nil, err
	}
	return s.store.ListReservationsByHostel(ctx, hostelID)
}

func (s *ReservationService) publishEvent(eventType string, reservation *models.Reservation, actorUserID string) {
	if s.eventBus == nil {
		return
	}
	payload := events.WorkflowEventPayload{
		EntityID:  reservation.ID,
		ActorID:   actorUserID,
		Status:    string(reservation.Status),
		ChangedBy: actorUserID,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("reservation_id", reservation.ID).Msg("publish event error")
	}
}
