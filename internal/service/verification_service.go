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

type VerificationService struct {
	store    domain.Store
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewVerificationService(store domain.Store, eventBus domain.EventPublisher, logger *zerolog.Logger) *VerificationService {
	return &VerificationService{store: store, eventBus: eventBus, logger: logger}
}

// SubmitVerification files the manager's identity/property check. The
// rules must be accepted up front; at most one PENDING submission exists
// per manager.
func (s *VerificationService) SubmitVerification(ctx context.Context, managerUserID string, verification *models.ManagerVerification) (*models.ManagerVerification, error) {
	if !verification.AcceptedRules {
		return nil, fmt.Errorf("%w: platform rules must be accepted", domain.ErrPreconditionFailed)
	}
	if verification.OwnerName == "" || verification.City == "" || verification.Address == "" {
		return nil, fmt.Errorf("%w: owner name, city and address are required", domain.ErrPreconditionFailed)
	}
	if _, err := activeUser(ctx, s.store, managerUserID); err != nil {
		return nil, err
	}
	profile, err := s.store.GetManagerProfileByUserID(ctx, managerUserID)
	if err != nil {
		return nil, err
	}
	verification.ManagerID = profile.ID

	if err := s.store.SubmitVerificationGuarded(ctx, verification); err != nil {
		metrics.IncWorkflow("verification_submit", outcome(err))
		return nil, err
	}
	metrics.IncWorkflow("verification_submit", "ok")

	s.logger.Info().Str("verification_id", verification.ID).Msg("verification submitted")
	return verification, nil
}

// ReviewVerification is admin-only. Approval flips the manager's verified
// flag; rejection leaves it untouched and frees a resubmission.
func (s *VerificationService) ReviewVerification(ctx context.Context, adminUserID, verificationID string, approve bool, adminComment string) (*models.ManagerVerification, error) {
	if _, err := requireAdmin(ctx, s.store, adminUserID); err != nil {
		return nil, err
	}

	status := models.VerificationApproved
	if !approve {
		if adminComment == "" {
			return nil, fmt.Errorf("%w: rejection requires an admin comment", domain.ErrPreconditionFailed)
		}
		status = models.VerificationRejected
	}

	reviewed, err := s.store.ReviewVerification(ctx, verificationID, status, adminComment, adminUserID)
	if err != nil {
		metrics.IncWorkflow("verification_review", outcome(err))
		return nil, err
	}
	metrics.IncWorkflow("verification_review", "ok")

	if s.eventBus != nil {
		payload := events.WorkflowEventPayload{
			EntityID:  verificationID,
			ActorID:   adminUserID,
			Status:    string(status),
			ChangedBy: adminUserID,
		}
		if err := s.eventBus.PublishJSON(events.EventVerificationDecided, payload); err != nil {
			s.logger.Error().Err(err).Str("verification_id", verificationID).Msg("publish event error")
		}
	}
	s.logger.Info().Str("verification_id", verificationID).Str("status", string(status)).Msg("verification reviewed")
	return reviewed, nil
}

func (s *VerificationService) GetVerification(ctx context.Context, id string) (*models.ManagerVerification, error) {
	return s.store.GetVerification(ctx, id)
}

func (s *VerificationService) ListMyVerifications(ctx context.Context, managerUserID string) ([]*models.ManagerVerification, error) {
	profile, err := s.store.GetManagerProfileByUserID(ctx, managerUserID)
	if err != nil {
		return nil, err
	}
	return s.store.ListVerificationsByManager(ctx, profile.ID)
}

func (s *VerificationService) ListVerifications(ctx context.Context, adminUserID string, status models.VerificationStatus) ([]*models.ManagerVerification, error) {
	if _, err := requireAdmin(ctx, s.store, adminUserID); err != nil {
		return nil, err
	}
	return s.store.ListVerifications(ctx, status)
}
