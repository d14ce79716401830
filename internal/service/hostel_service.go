package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"hostelhub/internal/domain"
	"hostelhub/internal/metrics"
	"hostelhub/internal/models"
)

type HostelService struct {
	store  domain.Store
	logger *zerolog.Logger
}

func NewHostelService(store domain.Store, logger *zerolog.Logger) *HostelService {
	return &HostelService{store: store, logger: logger}
}

// CreateHostel lists a new property. Only verified managers may list;
// the price field matching the hostel type is mandatory and available
// rooms start equal to total rooms.
func (s *HostelService) CreateHostel(ctx context.Context, managerUserID string, hostel *models.Hostel) (*models.Hostel, error) {
	if _, err := activeUser(ctx, s.store, managerUserID); err != nil {
		return nil, err
	}
	profile, err := s.store.GetManagerProfileByUserID(ctx, managerUserID)
	if err != nil {
		return nil, err
	}
	if !profile.Verified {
		return nil, fmt.Errorf("%w: manager is not verified", domain.ErrNotAuthorized)
	}
	if hostel.TotalRooms <= 0 {
		return nil, fmt.Errorf("%w: total rooms must be positive", domain.ErrPreconditionFailed)
	}
	if _, ok := hostel.Price(); !ok {
		return nil, fmt.Errorf("%w: price for hostel type %s is required", domain.ErrPreconditionFailed, hostel.HostelType)
	}

	hostel.ManagerID = profile.ID
	hostel.AvailableRooms = hostel.TotalRooms
	hostel.AverageRating = 0
	hostel.ReviewCount = 0
	hostel.IsActive = true

	if err := s.store.CreateHostel(ctx, hostel); err != nil {
		return nil, err
	}
	metrics.SetRoomsAvailable(hostel.ID, hostel.AvailableRooms)
	s.logger.Info().Str("hostel_id", hostel.ID).Str("manager_id", profile.ID).Msg("hostel created")
	return hostel, nil
}

// UpdateHostel edits descriptive fields; inventory and type are not
// changed through updates.
func (s *HostelService) UpdateHostel(ctx context.Context, actorUserID string, hostel *models.Hostel) (*models.Hostel, error) {
	existing, err := managerOwnsHostel(ctx, s.store, actorUserID, hostel.ID)
	if err != nil {
		return nil, err
	}
	hostel.HostelType = existing.HostelType
	if _, ok := hostel.Price(); !ok {
		return nil, fmt.Errorf("%w: price for hostel type %s is required", domain.ErrPreconditionFailed, hostel.HostelType)
	}

	if err := s.store.UpdateHostel(ctx, hostel); err != nil {
		return nil, err
	}
	return s.store.GetHostel(ctx, hostel.ID)
}

// DeactivateHostel delists the hostel from search and new bookings;
// existing approved stays are unaffected.
func (s *HostelService) DeactivateHostel(ctx context.Context, actorUserID, hostelID string) error {
	if _, err := managerOwnsHostel(ctx, s.store, actorUserID, hostelID); err != nil {
		return err
	}
	if err := s.store.DeactivateHostel(ctx, hostelID); err != nil {
		return err
	}
	s.logger.Info().Str("hostel_id", hostelID).Msg("hostel deactivated")
	return nil
}

func (s *HostelService) GetHostel(ctx context.Context, id string) (*models.Hostel, error) {
	return s.store.GetHostel(ctx, id)
}

func (s *HostelService) SearchHostels(ctx context.Context, filter domain.HostelFilter) ([]*models.Hostel, error) {
	return s.store.SearchHostels(ctx, filter)
}

func (s *HostelService) ListMyHostels(ctx context.Context, managerUserID string) ([]*models.Hostel, error) {
	profile, err := s.store.GetManagerProfileByUserID(ctx, managerUserID)
	if err != nil {
		return nil, err
	}
	return s.store.ListHostelsByManager(ctx, profile.ID)
}

// ListStudents returns the hostel's current residents, i.e. its APPROVED
// bookings.
func (s *HostelService) ListStudents(ctx context.Context, actorUserID, hostelID string) ([]*models.Booking, error) {
	if _, err := managerOwnsHostel(ctx, s.store, actorUserID, hostelID); err != nil {
		return nil, err
	}
	bookings, err := s.store.ListBookingsByHostel(ctx, hostelID)
	if err != nil {
		return nil, err
	}
	var residents []*models.Booking
	for _, booking := range bookings {
		if booking.Status == models.BookingApproved {
			residents = append(residents, booking)
		}
	}
	return residents, nil
}

func (s *HostelService) ListHostels(ctx context.Context, adminUserID string) ([]*models.Hostel, error) {
	if _, err := requireAdmin(ctx, s.store, adminUserID); err != nil {
		return nil, err
	}
	return s.store.ListHostels(ctx)
}
