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

type ReportService struct {
	store    domain.Store
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewReportService(store domain.Store, eventBus domain.EventPublisher, logger *zerolog.Logger) *ReportService {
	return &ReportService{store: store, eventBus: eventBus, logger: logger}
}

// CreateReport opens a dispute against the manager of the booked hostel.
// Only the booking's own student may file, and only one report can be
// open per booking at a time.
func (s *ReportService) CreateReport(ctx context.Context, studentUserID, bookingID, description string) (*models.Report, error) {
	if description == "" {
		return nil, fmt.Errorf("%w: report description is required", domain.ErrPreconditionFailed)
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
	hostel, err := s.store.GetHostel(ctx, booking.HostelID)
	if err != nil {
		return nil, err
	}

	report := &models.Report{
		BookingID:   bookingID,
		StudentID:   profile.ID,
		ManagerID:   hostel.ManagerID,
		Description: description,
	}
	if err := s.store.CreateReportGuarded(ctx, report); err != nil {
		metrics.IncWorkflow("report_create", outcome(err))
		return nil, err
	}
	metrics.IncWorkflow("report_create", "ok")

	s.publishEvent(events.EventReportCreated, report.ID, studentUserID, "", string(report.Status))
	s.logger.Info().Str("report_id", report.ID).Str("booking_id", bookingID).Msg("report created")
	return report, nil
}

// ResolveReport is admin-only. A fault decision terminates the at-fault
// party's account in the same transaction as the resolution.
func (s *ReportService) ResolveReport(ctx context.Context, adminUserID, reportID string, decision models.ReportDecision, resolution string) (*models.Report, error) {
	switch decision {
	case models.DecisionStudentFault, models.DecisionManagerFault, models.DecisionNone:
	default:
		return nil, fmt.Errorf("%w: unknown decision %q", domain.ErrPreconditionFailed, decision)
	}
	if resolution == "" {
		return nil, fmt.Errorf("%w: final resolution text is required", domain.ErrPreconditionFailed)
	}
	if _, err := requireAdmin(ctx, s.store, adminUserID); err != nil {
		return nil, err
	}

	resolved, err := s.store.ResolveReport(ctx, reportID, decision, resolution, adminUserID)
	if err != nil {
		metrics.IncWorkflow("report_resolve", outcome(err))
		return nil, err
	}
	metrics.IncWorkflow("report_resolve", "ok")

	s.publishEvent(events.EventReportResolved, reportID, adminUserID, string(decision), string(resolved.Status))
	s.logger.Info().Str("report_id", reportID).Str("decision", string(decision)).Msg("report resolved")
	return resolved, nil
}

func (s *ReportService) GetReport(ctx context.Context, id string) (*models.Report, error) {
	return s.store.GetReport(ctx, id)
}

func (s *ReportService) ListMyReports(ctx context.Context, studentUserID string) ([]*models.Report, error) {
	profile, err := s.store.GetStudentProfileByUserID(ctx, studentUserID)
	if err != nil {
		return nil, err
	}
	return s.store.ListReportsByStudent(ctx, profile.ID)
}

func (s *ReportService) ListReportsAgainstMe(ctx context.Context, managerUserID string) ([]*models.Report, error) {
	profile, err := s.store.GetManagerProfileByUserID(ctx, managerUserID)
	if err != nil {
		return nil, err
	}
	return s.store.ListReportsByManager(ctx, profile.ID)
}

func (s *ReportService) ListReports(ctx context.Context, adminUserID string, status models.ReportStatus) ([]*models.Report, error) {
	if _, err := requireAdmin(ctx, s.store, adminUserID); err != nil {
		return nil, err
	}
	return s.store.ListReports(ctx, status)
}

func (s *ReportService) publishEvent(eventType, reportID, actorUserID, decision, status string) {
	if s.eventBus == nil {
		return
	}
	payload := events.WorkflowEventPayload{
		EntityID: reportID,
		ActorID:  actorUserID,
		Status:   status,
		Decision: decision,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("report_id", reportID).Msg("publish event error")
	}
}
