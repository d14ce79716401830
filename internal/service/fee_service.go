package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"hostelhub/internal/domain"
	"hostelhub/internal/events"
	"hostelhub/internal/metrics"
	"hostelhub/internal/models"
)

type FeeService struct {
	store    domain.Store
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewFeeService(store domain.Store, eventBus domain.EventPublisher, logger *zerolog.Logger) *FeeService {
	return &FeeService{store: store, eventBus: eventBus, logger: logger}
}

// SubmitFee files the monthly settlement for one hostel. Figures are
// computed by the store at submission time; (manager, hostel, month) is
// the idempotency key.
func (s *FeeService) SubmitFee(ctx context.Context, managerUserID, hostelID, month, proofImage string) (*models.MonthlyAdminFee, error) {
	if proofImage == "" {
		return nil, fmt.Errorf("%w: payment proof image is required", domain.ErrPreconditionFailed)
	}
	hostel, err := managerOwnsHostel(ctx, s.store, managerUserID, hostelID)
	if err != nil {
		return nil, err
	}

	fee := &models.MonthlyAdminFee{
		ManagerID:         hostel.ManagerID,
		HostelID:          hostelID,
		Month:             month,
		PaymentProofImage: proofImage,
	}
	if err := s.store.SubmitMonthlyFee(ctx, fee); err != nil {
		metrics.IncWorkflow("fee_submit", outcome(err))
		return nil, err
	}
	metrics.IncWorkflow("fee_submit", "ok")

	s.publishEvent(events.EventFeeSubmitted, fee.ID, managerUserID, string(fee.Status))
	s.logger.Info().Str("fee_id", fee.ID).Str("month", month).Int64("amount", fee.FeeAmount).Msg("monthly fee submitted")
	return fee, nil
}

// ReviewFee is admin-only and terminal: a reviewed fee cannot change
// status again.
func (s *FeeService) ReviewFee(ctx context.Context, adminUserID, feeID string, approve bool) (*models.MonthlyAdminFee, error) {
	if _, err := requireAdmin(ctx, s.store, adminUserID); err != nil {
		return nil, err
	}

	status := models.FeeApproved
	if !approve {
		status = models.FeeRejected
	}
	reviewed, err := s.store.ReviewFee(ctx, feeID, status, adminUserID)
	if err != nil {
		metrics.IncWorkflow("fee_review", outcome(err))
		return nil, err
	}
	metrics.IncWorkflow("fee_review", "ok")

	s.publishEvent(events.EventFeeReviewed, feeID, adminUserID, string(status))
	s.logger.Info().Str("fee_id", feeID).Str("status", string(status)).Msg("monthly fee reviewed")
	return reviewed, nil
}

// PendingFeeSummary reports, per hostel of the manager, the current
// month's settlement state before submission.
func (s *FeeService) PendingFeeSummary(ctx context.Context, managerUserID string) ([]*models.FeeSummary, error) {
	if _, err := activeUser(ctx, s.store, managerUserID); err != nil {
		return nil, err
	}
	profile, err := s.store.GetManagerProfileByUserID(ctx, managerUserID)
	if err != nil {
		return nil, err
	}
	hostels, err := s.store.ListHostelsByManager(ctx, profile.ID)
	if err != nil {
		return nil, err
	}

	month := time.Now().Format(models.FeeMonthLayout)
	var summaries []*models.FeeSummary
	for _, hostel := range hostels {
		active, err := s.store.CountBookingsByStatus(ctx, hostel.ID, models.BookingApproved)
		if err != nil {
			return nil, err
		}
		summary := &models.FeeSummary{
			HostelID:       hostel.ID,
			HostelName:     hostel.Name,
			Month:          month,
			ActiveStudents: active,
			FeeAmount:      active * models.FeePerStudent,
		}
		fee, err := s.store.FindFee(ctx, profile.ID, hostel.ID, month)
		if err != nil {
			return nil, err
		}
		if fee != nil {
			summary.Submitted = true
			summary.Status = fee.Status
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *FeeService) GetFee(ctx context.Context, id string) (*models.MonthlyAdminFee, error) {
	return s.store.GetFee(ctx, id)
}

func (s *FeeService) ListMyFees(ctx context.Context, managerUserID string) ([]*models.MonthlyAdminFee, error) {
	profile, err := s.store.GetManagerProfileByUserID(ctx, managerUserID)
	if err != nil {
		return nil, err
	}
	return s.store.ListFeesByManager(ctx, profile.ID)
}

func (s *FeeService) ListFees(ctx context.Context, adminUserID string, status models.FeeStatus) ([]*models.MonthlyAdminFee, error) {
	if _, err := requireAdmin(ctx, s.store, adminUserID); err != nil {
		return nil, err
	}
	return s.store.ListFees(ctx, status)
}

func (s *FeeService) publishEvent(eventType, feeID, actorUserID, status string) {
	if s.eventBus == nil {
		return
	}
	payload := events.WorkflowEventPayload{EntityID: feeID, ActorID: actorUserID, Status: status}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("fee_id", feeID).Msg("publish event error")
	}
}
