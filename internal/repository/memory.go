// Package repository provides in-memory collaborators: a full Store
// double used by service tests and the rate limiter implementations.
package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"hostelhub/internal/domain"
	"hostelhub/internal/models"
)

// MemoryStore is a mutex-guarded Store with the same guard semantics as
// the SQLite store. Every guarded operation holds the lock for its whole
// check-then-apply sequence, so concurrent conflicting calls observe
// first-writer-wins just like serialized transactions.
type MemoryStore struct {
	mu sync.Mutex

	users           map[string]*models.User
	studentProfiles map[string]*models.StudentProfile
	managerProfiles map[string]*models.ManagerProfile
	hostels         map[string]*models.Hostel
	bookings        map[string]*models.Booking
	reservations    map[string]*models.Reservation
	fees            map[string]*models.MonthlyAdminFee
	reports         map[string]*models.Report
	verifications   map[string]*models.ManagerVerification
	conversations   map[string]*models.Conversation
	messages        map[string][]*models.Message
	reviews         map[string]*models.Review
	audit           []*models.AuditLog
}

var _ domain.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:           make(map[string]*models.User),
		studentProfiles: make(map[string]*models.StudentProfile),
		managerProfiles: make(map[string]*models.ManagerProfile),
		hostels:         make(map[string]*models.Hostel),
		bookings:        make(map[string]*models.Booking),
		reservations:    make(map[string]*models.Reservation),
		fees:            make(map[string]*models.MonthlyAdminFee),
		reports:         make(map[string]*models.Report),
		verifications:   make(map[string]*models.ManagerVerification),
		conversations:   make(map[string]*models.Conversation),
		messages:        make(map[string][]*models.Message),
		reviews:         make(map[string]*models.Review),
	}
}

func newID() string {
	return uuid.NewString()
}

func (s *MemoryStore) appendAudit(entry *models.AuditLog) {
	if entry.ID == "" {
		entry.ID = newID()
	}
	entry.CreatedAt = time.Now()
	s.audit = append(s.audit, entry)
}

// Users and profiles

func (s *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == "" {
		user.ID = newID()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *MemoryStore) GetUser(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, id)
	}
	copied := *user
	return &copied, nil
}

func (s *MemoryStore) ListUsers(_ context.Context, role models.Role) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var users []*models.User
	for _, user := range s.users {
		if role != "" && user.Role != role {
			continue
		}
		copied := *user
		users = append(users, &copied)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users, nil
}

func (s *MemoryStore) TerminateUser(_ context.Context, userID, performedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("%w: user %s", domain.ErrNotFound, userID)
	}
	if user.Role == models.RoleAdmin {
		return fmt.Errorf("%w: cannot terminate admin", domain.ErrNotAuthorized)
	}
	user.IsTerminated = true
	user.UpdatedAt = time.Now()

	s.appendAudit(&models.AuditLog{
		Action:      models.AuditTerminateUser,
		PerformedBy: performedBy,
		TargetType:  "User",
		TargetID:    userID,
	})
	return nil
}

func (s *MemoryStore) CreateStudentProfile(_ context.Context, profile *models.StudentProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if profile.ID == "" {
		profile.ID = newID()
	}
	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now
	copied := *profile
	s.studentProfiles[profile.ID] = &copied
	return nil
}

func (s *MemoryStore) GetStudentProfile(_ context.Context, id string) (*models.StudentProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.studentProfiles[id]
	if !ok {
		return nil, fmt.Errorf("%w: student profile %s", domain.ErrNotFound, id)
	}
	copied := *profile
	return &copied, nil
}

func (s *MemoryStore) GetStudentProfileByUserID(_ context.Context, userID string) (*models.StudentProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile := s.studentByUserLocked(userID)
	if profile == nil {
		return nil, fmt.Errorf("%w: student profile for user %s", domain.ErrNotFound, userID)
	}
	copied := *profile
	return &copied, nil
}

func (s *MemoryStore) studentByUserLocked(userID string) *models.StudentProfile {
	for _, profile := range s.studentProfiles {
		if profile.UserID == userID {
			return profile
		}
	}
	return nil
}

func (s *MemoryStore) SelfVerifyStudent(_ context.Context, userID, fullName, institute string) (*models.StudentProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile := s.studentByUserLocked(userID)
	if profile == nil {
		return nil, fmt.Errorf("%w: student profile for user %s", domain.ErrNotFound, userID)
	}
	if profile.SelfVerified {
		return nil, fmt.Errorf("%w: already verified", domain.ErrPreconditionFailed)
	}
	profile.FullName = fullName
	profile.Institute = institute
	profile.SelfVerified = true
	profile.UpdatedAt = time.Now()
	copied := *profile
	return &copied, nil
}

func (s *MemoryStore) CreateManagerProfile(_ context.Context, profile *models.ManagerProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if profile.ID == "" {
		profile.ID = newID()
	}
	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now
	copied := *profile
	s.managerProfiles[profile.ID] = &copied
	return nil
}

func (s *MemoryStore) GetManagerProfile(_ context.Context, id string) (*models.ManagerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.managerProfiles[id]
	if !ok {
		return nil, fmt.Errorf("%w: manager profile %s", domain.ErrNotFound, id)
	}
	copied := *profile
	return &copied, nil
}

func (s *MemoryStore) GetManagerProfileByUserID(_ context.Context, userID string) (*models.ManagerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, profile := range s.managerProfiles {
		if profile.UserID == userID {
			copied := *profile
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("%w: manager profile for user %s", domain.ErrNotFound, userID)
}

// Hostels

func (s *MemoryStore) CreateHostel(_ context.Context, hostel *models.Hostel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if hostel.ID == "" {
		hostel.ID = newID()
	}
	now := time.Now()
	hostel.CreatedAt = now
	hostel.UpdatedAt = now
	copied := *hostel
	s.hostels[hostel.ID] = &copied
	return nil
}

func (s *MemoryStore) GetHostel(_ context.Context, id string) (*models.Hostel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hostel, ok := s.hostels[id]
	if !ok {
		return nil, fmt.Errorf("%w: hostel %s", domain.ErrNotFound, id)
	}
	copied := *hostel
	return &copied, nil
}

func (s *MemoryStore) UpdateHostel(_ context.Context, hostel *models.Hostel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.hostels[hostel.ID]
	if !ok {
		return fmt.Errorf("%w: hostel %s", domain.ErrNotFound, hostel.ID)
	}
	existing.Name = hostel.Name
	existing.City = hostel.City
	existing.Address = hostel.Address
	existing.HostelFor = hostel.HostelFor
	existing.PersonsInRoom = hostel.PersonsInRoom
	existing.RoomPrice = hostel.RoomPrice
	existing.PricePerHeadShared = hostel.PricePerHeadShared
	existing.PricePerHeadFullRoom = hostel.PricePerHeadFullRoom
	existing.Facilities = hostel.Facilities
	existing.Rules = hostel.Rules
	existing.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) DeactivateHostel(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hostel, ok := s.hostels[id]
	if !ok {
		return fmt.Errorf("%w: hostel %s", domain.ErrNotFound, id)
	}
	hostel.IsActive = false
	hostel.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) ListHostelsByManager(_ context.Context, managerID string) ([]*models.Hostel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var hostels []*models.Hostel
	for _, hostel := range s.hostels {
		if hostel.ManagerID == managerID {
			copied := *hostel
			hostels = append(hostels, &copied)
		}
	}
	sortHostels(hostels)
	return hostels, nil
}

func (s *MemoryStore) SearchHostels(_ context.Context, filter domain.HostelFilter) ([]*models.Hostel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var hostels []*models.Hostel
	for _, hostel := range s.hostels {
		if !hostel.IsActive {
			continue
		}
		if filter.City != "" && hostel.City != filter.City {
			continue
		}
		if filter.HostelType != "" && hostel.HostelType != filter.HostelType {
			continue
		}
		if filter.HostelFor != "" && hostel.HostelFor != filter.HostelFor {
			continue
		}
		copied := *hostel
		hostels = append(hostels, &copied)
	}
	sort.Slice(hostels, func(i, j int) bool { return hostels[i].AverageRating > hostels[j].AverageRating })
	return hostels, nil
}

func (s *MemoryStore) ListHostels(_ context.Context) ([]*models.Hostel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var hostels []*models.Hostel
	for _, hostel := range s.hostels {
		copied := *hostel
		hostels = append(hostels, &copied)
	}
	sortHostels(hostels)
	return hostels, nil
}

func sortHostels(hostels []*models.Hostel) {
	sort.Slice(hostels, func(i, j int) bool { return hostels[i].CreatedAt.After(hostels[j].CreatedAt) })
}

// Bookings

func (s *MemoryStore) CreateBookingGuarded(_ context.Context, booking *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.bookings {
		if b.StudentID == booking.StudentID && b.Status == models.BookingPending {
			return fmt.Errorf("%w: student already has a pending booking", domain.ErrPreconditionFailed)
		}
	}
	profile, ok := s.studentProfiles[booking.StudentID]
	if !ok {
		return fmt.Errorf("%w: student profile %s", domain.ErrNotFound, booking.StudentID)
	}
	if profile.CurrentHostelID != "" {
		return fmt.Errorf("%w: student already has an active hostel", domain.ErrPreconditionFailed)
	}
	hostel, ok := s.hostels[booking.HostelID]
	if !ok {
		return fmt.Errorf("%w: hostel %s", domain.ErrNotFound, booking.HostelID)
	}
	if !hostel.IsActive {
		return fmt.Errorf("%w: hostel is inactive", domain.ErrPreconditionFailed)
	}
	if hostel.AvailableRooms <= 0 {
		return fmt.Errorf("%w: no rooms available", domain.ErrPreconditionFailed)
	}

	if booking.ID == "" {
		booking.ID = newID()
	}
	now := time.Now()
	booking.Status = models.BookingPending
	booking.CreatedAt = now
	booking.UpdatedAt = now
	copied := *booking
	s.bookings[booking.ID] = &copied
	return nil
}

func (s *MemoryStore) GetBooking(_ context.Context, id string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getBookingLocked(id)
}

func (s *MemoryStore) getBookingLocked(id string) (*models.Booking, error) {
	booking, ok := s.bookings[id]
	if !ok {
		return nil, fmt.Errorf("%w: booking %s", domain.ErrNotFound, id)
	}
	copied := *booking
	return &copied, nil
}

func (s *MemoryStore) FindPendingBooking(_ context.Context, studentID string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, booking := range s.bookings {
		if booking.StudentID == studentID && booking.Status == models.BookingPending {
			copied := *booking
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) FindApprovedBooking(_ context.Context, studentID, hostelID string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, booking := range s.bookings {
		if booking.StudentID == studentID && booking.HostelID == hostelID && booking.Status == models.BookingApproved {
			copied := *booking
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) ApproveBooking(_ context.Context, bookingID, performedBy string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	booking, ok := s.bookings[bookingID]
	if !ok {
		return nil, fmt.Errorf("%w: booking %s", domain.ErrNotFound, bookingID)
	}
	if booking.Status != models.BookingPending {
		return nil, fmt.Errorf("%w: booking already reviewed", domain.ErrInvalidState)
	}
	hostel, ok := s.hostels[booking.HostelID]
	if !ok {
		return nil, fmt.Errorf("%w: hostel %s", domain.ErrNotFound, booking.HostelID)
	}
	if hostel.AvailableRooms <= 0 {
		return nil, fmt.Errorf("%w: no rooms available", domain.ErrPreconditionFailed)
	}

	hostel.AvailableRooms--
	hostel.UpdatedAt = time.Now()
	booking.Status = models.BookingApproved
	booking.UpdatedAt = time.Now()
	if profile, ok := s.studentProfiles[booking.StudentID]; ok {
		profile.CurrentHostelID = booking.HostelID
		profile.UpdatedAt = time.Now()
	}

	s.appendAudit(&models.AuditLog{
		Action:      models.AuditBookingApproved,
		PerformedBy: performedBy,
		TargetType:  "Booking",
		TargetID:    bookingID,
	})
	return s.getBookingLocked(bookingID)
}

func (s *MemoryStore) DisapproveBooking(_ context.Context, bookingID string, refund models.RefundProof, performedBy string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	booking, ok := s.bookings[bookingID]
	if !ok {
		return nil, fmt.Errorf("%w: booking %s", domain.ErrNotFound, bookingID)
	}
	if booking.Status != models.BookingPending {
		return nil, fmt.Errorf("%w: booking is %s", domain.ErrInvalidState, booking.Status)
	}

	booking.Status = models.BookingRefunded
	booking.Refund = &refund
	booking.UpdatedAt = time.Now()

	s.appendAudit(&models.AuditLog{
		Action:      models.AuditBookingDisapproved,
		PerformedBy: performedBy,
		TargetType:  "Booking",
		TargetID:    bookingID,
	})
	return s.getBookingLocked(bookingID)
}

func (s *MemoryStore) LeaveBooking(_ context.Context, bookingID string, review *models.Review, performedBy string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	booking, ok := s.bookings[bookingID]
	if !ok {
		return nil, fmt.Errorf("%w: booking %s", domain.ErrNotFound, bookingID)
	}
	if booking.Status != models.BookingApproved {
		return nil, fmt.Errorf("%w: booking is %s", domain.ErrInvalidState, booking.Status)
	}
	hostel := s.hostels[booking.HostelID]

	booking.Status = models.BookingLeft
	booking.UpdatedAt = time.Now()

	if review.ID == "" {
		review.ID = newID()
	}
	review.BookingID = bookingID
	review.HostelID = booking.HostelID
	review.CreatedAt = time.Now()
	copied := *review
	s.reviews[review.ID] = &copied

	if hostel != nil {
		newAvg := (hostel.AverageRating*float64(hostel.ReviewCount) + float64(review.Rating)) / float64(hostel.ReviewCount+1)
		hostel.AverageRating = newAvg
		hostel.ReviewCount++
		hostel.AvailableRooms++
		hostel.UpdatedAt = time.Now()
	}
	if profile, ok := s.studentProfiles[booking.StudentID]; ok {
		profile.CurrentHostelID = ""
		profile.UpdatedAt = time.Now()
	}

	s.appendAudit(&models.AuditLog{
		Action:      models.AuditStudentLeftHostel,
		PerformedBy: performedBy,
		TargetType:  "Booking",
		TargetID:    bookingID,
	})
	return s.getBookingLocked(bookingID)
}

func (s *MemoryStore) KickBooking(_ context.Context, bookingID string, reason models.KickReason, kickedByManagerID, performedBy string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	booking, ok := s.bookings[bookingID]
	if !ok {
		return nil, fmt.Errorf("%w: booking %s", domain.ErrNotFound, bookingID)
	}
	if booking.Status != models.BookingApproved {
		return nil, fmt.Errorf("%w: can only kick students with approved bookings", domain.ErrInvalidState)
	}

	booking.Status = models.BookingLeft
	booking.KickReason = reason
	booking.KickedBy = kickedByManagerID
	booking.UpdatedAt = time.Now()

	if hostel, ok := s.hostels[booking.HostelID]; ok {
		hostel.AvailableRooms++
		hostel.UpdatedAt = time.Now()
	}
	if profile, ok := s.studentProfiles[booking.StudentID]; ok {
		profile.CurrentHostelID = ""
		profile.UpdatedAt = time.Now()
	}

	s.appendAudit(&models.AuditLog{
		Action:      fmt.Sprintf("%s_%s", models.AuditStudentKicked, reason),
		PerformedBy: performedBy,
		TargetType:  "Booking",
		TargetID:    bookingID,
		Details:     fmt.Sprintf("Student kicked from hostel. Reason: %s", reason),
	})
	return s.getBookingLocked(bookingID)
}

func (s *MemoryStore) ListBookingsByStudent(_ context.Context, studentID string) ([]*models.Booking, error) {
	return s.filterBookings(func(b *models.Booking) bool { return b.StudentID == studentID })
}

func (s *MemoryStore) ListBookingsByHostel(_ context.Context, hostelID string) ([]*models.Booking, error) {
	return s.filterBookings(func(b *models.Booking) bool { return b.HostelID == hostelID })
}

func (s *MemoryStore) ListBookings(_ context.Context, status models.BookingStatus) ([]*models.Booking, error) {
	return s.filterBookings(func(b *models.Booking) bool { return status == "" || b.Status == status })
}

func (s *MemoryStore) filterBookings(keep func(*models.Booking) bool) ([]*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var bookings []*models.Booking
	for _, booking := range s.bookings {
		if keep(booking) {
			copied := *booking
			bookings = append(bookings, &copied)
		}
	}
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].CreatedAt.After(bookings[j].CreatedAt) })
	return bookings, nil
}

func (s *MemoryStore) CountBookingsByStatus(_ context.Context, hostelID string, status models.BookingStatus) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, booking := range s.bookings {
		if booking.HostelID == hostelID && booking.Status == status {
			count++
		}
	}
	return count, nil
}

// Reservations

func (s *MemoryStore) CreateReservationGuarded(_ context.Context, reservation *models.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.studentProfiles[reservation.StudentID]
	if !ok {
		return fmt.Errorf("%w: student profile %s", domain.ErrNotFound, reservation.StudentID)
	}
	if profile.CurrentHostelID != "" {
		return fmt.Errorf("%w: student already has an active hostel", domain.ErrPreconditionFailed)
	}

	for _, r := range s.reservations {
		if r.StudentID == reservation.StudentID && r.HostelID == reservation.HostelID && r.Active() {
			return fmt.Errorf("%w: active reservation already exists for this hostel", domain.ErrPreconditionFailed)
		}
	}

	if reservation.ID == "" {
		reservation.ID = newID()
	}
	now := time.Now()
	reservation.Status = models.ReservationPending
	reservation.CreatedAt = now
	reservation.UpdatedAt = now
	copied := *reservation
	s.reservations[reservation.ID] = &copied
	return nil
}

func (s *MemoryStore) GetReservation(_ context.Context, id string) (*models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reservation, ok := s.reservations[id]
	if !ok {
		return nil, fmt.Errorf("%w: reservation %s", domain.ErrNotFound, id)
	}
	copied := *reservation
	return &copied, nil
}

func (s *MemoryStore) CancelReservation(ctx context.Context, id string) (*models.Reservation, error) {
	return s.updateReservationStatus(id, models.ReservationCancelled, "")
}

func (s *MemoryStore) ReviewReservation(_ context.Context, id string, status models.ReservationStatus, rejectReason string) (*models.Reservation, error) {
	return s.updateReservationStatus(id, status, rejectReason)
}

func (s *MemoryStore) updateReservationStatus(id string, status models.ReservationStatus, rejectReason string) (*models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reservation, ok := s.reservations[id]
	if !ok {
		return nil, fmt.Errorf("%w: reservation %s", domain.ErrNotFound, id)
	}
	if reservation.Status != models.ReservationPending {
		return nil, fmt.Errorf("%w: reservation is %s", domain.ErrInvalidState, reservation.Status)
	}
	reservation.Status = status
	reservation.RejectReason = rejectReason
	reservation.UpdatedAt = time.Now()
	copied := *reservation
	return &copied, nil
}

func (s *MemoryStore) ListReservationsByStudent(_ context.Context, studentID string) ([]*models.Reservation, error) {
	return s.filterReservations(func(r *models.Reservation) bool { return r.StudentID == studentID })
}

func (s *MemoryStore) ListReservationsByHostel(_ context.Context, hostelID string) ([]*models.Reservation, error) {
	return s.filterReservations(func(r *models.Reservation) bool { return r.HostelID == hostelID })
}

func (s *MemoryStore) filterReservations(keep func(*models.Reservation) bool) ([]*models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reservations []*models.Reservation
	for _, reservation := range s.reservations {
		if keep(reservation) {
			copied := *reservation
			reservations = append(reservations, &copied)
		}
	}
	sort.Slice(reservations, func(i, j int) bool { return reservations[i].CreatedAt.After(reservations[j].CreatedAt) })
	return reservations, nil
}

// Monthly fees

func (s *MemoryStore) SubmitMonthlyFee(_ context.Context, fee *models.MonthlyAdminFee) error {
	monthStart, err := time.Parse(models.FeeMonthLayout, fee.Month)
	if err != nil {
		return fmt.Errorf("%w: invalid month %q", domain.ErrPreconditionFailed, fee.Month)
	}
	monthEnd := monthStart.AddDate(0, 1, 0)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range s.fees {
		if f.ManagerID == fee.ManagerID && f.HostelID == fee.HostelID && f.Month == fee.Month {
			return fmt.Errorf("%w: fee already submitted for this month", domain.ErrPreconditionFailed)
		}
	}

	var studentCount, totalRevenue int64
	for _, booking := range s.bookings {
		if booking.HostelID != fee.HostelID {
			continue
		}
		if booking.Status == models.BookingApproved {
			studentCount++
		}
		switch booking.Status {
		case models.BookingApproved, models.BookingLeft, models.BookingCompleted:
			if !booking.CreatedAt.Before(monthStart) && booking.CreatedAt.Before(monthEnd) {
				totalRevenue += booking.Amount
			}
		}
	}

	if fee.ID == "" {
		fee.ID = newID()
	}
	now := time.Now()
	fee.StudentCount = studentCount
	fee.TotalRevenue = totalRevenue
	fee.FeeAmount = studentCount * models.FeePerStudent
	fee.Status = models.FeePending
	fee.SubmittedAt = now
	fee.CreatedAt = now
	fee.UpdatedAt = now
	copied := *fee
	s.fees[fee.ID] = &copied
	return nil
}

func (s *MemoryStore) GetFee(_ context.Context, id string) (*models.MonthlyAdminFee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fee, ok := s.fees[id]
	if !ok {
		return nil, fmt.Errorf("%w: fee %s", domain.ErrNotFound, id)
	}
	copied := *fee
	return &copied, nil
}

func (s *MemoryStore) FindFee(_ context.Context, managerID, hostelID, month string) (*models.MonthlyAdminFee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, fee := range s.fees {
		if fee.ManagerID == managerID && fee.HostelID == hostelID && fee.Month == month {
			copied := *fee
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) ReviewFee(_ context.Context, id string, status models.FeeStatus, reviewedBy string) (*models.MonthlyAdminFee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fee, ok := s.fees[id]
	if !ok {
		return nil, fmt.Errorf("%w: fee %s", domain.ErrNotFound, id)
	}
	if fee.Status != models.FeePending {
		return nil, fmt.Errorf("%w: fee already reviewed", domain.ErrInvalidState)
	}
	fee.Status = status
	fee.ReviewedBy = reviewedBy
	fee.UpdatedAt = time.Now()

	s.appendAudit(&models.AuditLog{
		Action:      fmt.Sprintf("%s_%s", models.AuditFeeReviewed, status),
		PerformedBy: reviewedBy,
		TargetType:  "MonthlyAdminFee",
		TargetID:    id,
	})
	copied := *fee
	return &copied, nil
}

func (s *MemoryStore) ListFeesByManager(_ context.Context, managerID string) ([]*models.MonthlyAdminFee, error) {
	return s.filterFees(func(f *models.MonthlyAdminFee) bool { return f.ManagerID == managerID })
}

func (s *MemoryStore) ListFees(_ context.Context, status models.FeeStatus) ([]*models.MonthlyAdminFee, error) {
	return s.filterFees(func(f *models.MonthlyAdminFee) bool { return status == "" || f.Status == status })
}

func (s *MemoryStore) filterFees(keep func(*models.MonthlyAdminFee) bool) ([]*models.MonthlyAdminFee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var fees []*models.MonthlyAdminFee
	for _, fee := range s.fees {
		if keep(fee) {
			copied := *fee
			fees = append(fees, &copied)
		}
	}
	sort.Slice(fees, func(i, j int) bool { return fees[i].CreatedAt.After(fees[j].CreatedAt) })
	return fees, nil
}

// Reports

func (s *MemoryStore) CreateReportGuarded(_ context.Context, report *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.reports {
		if r.BookingID == report.BookingID && r.Status == models.ReportOpen {
			return fmt.Errorf("%w: an open report already exists for this booking", domain.ErrPreconditionFailed)
		}
	}

	if report.ID == "" {
		report.ID = newID()
	}
	now := time.Now()
	report.Status = models.ReportOpen
	report.CreatedAt = now
	report.UpdatedAt = now
	copied := *report
	s.reports[report.ID] = &copied
	return nil
}

func (s *MemoryStore) GetReport(_ context.Context, id string) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, ok := s.reports[id]
	if !ok {
		return nil, fmt.Errorf("%w: report %s", domain.ErrNotFound, id)
	}
	copied := *report
	return &copied, nil
}

func (s *MemoryStore) ResolveReport(_ context.Context, id string, decision models.ReportDecision, resolution, performedBy string) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, ok := s.reports[id]
	if !ok {
		return nil, fmt.Errorf("%w: report %s", domain.ErrNotFound, id)
	}
	if report.Status != models.ReportOpen {
		return nil, fmt.Errorf("%w: report already resolved", domain.ErrInvalidState)
	}

	report.Status = models.ReportResolved
	report.Decision = decision
	report.FinalResolution = resolution
	report.ResolvedBy = performedBy
	report.UpdatedAt = time.Now()

	switch decision {
	case models.DecisionStudentFault:
		if profile, ok := s.studentProfiles[report.StudentID]; ok {
			s.terminateLocked(profile.UserID, models.AuditStudentTerminated, resolution, performedBy)
		}
	case models.DecisionManagerFault:
		if profile, ok := s.managerProfiles[report.ManagerID]; ok {
			s.terminateLocked(profile.UserID, models.AuditManagerTerminated, resolution, performedBy)
		}
	}

	s.appendAudit(&models.AuditLog{
		Action:      fmt.Sprintf("%s_%s", models.AuditReportResolved, decision),
		PerformedBy: performedBy,
		TargetType:  "Report",
		TargetID:    id,
		Details:     resolution,
	})
	copied := *report
	return &copied, nil
}

func (s *MemoryStore) terminateLocked(userID, action, resolution, performedBy string) {
	if user, ok := s.users[userID]; ok {
		user.IsTerminated = true
		user.UpdatedAt = time.Now()
	}
	s.appendAudit(&models.AuditLog{
		Action:      action,
		PerformedBy: performedBy,
		TargetType:  "User",
		TargetID:    userID,
		Details:     fmt.Sprintf("Terminated due to report: %s", resolution),
	})
}

func (s *MemoryStore) ListReportsByStudent(_ context.Context, studentID string) ([]*models.Report, error) {
	return s.filterReports(func(r *models.Report) bool { return r.StudentID == studentID })
}

func (s *MemoryStore) ListReportsByManager(_ context.Context, managerID string) ([]*models.Report, error) {
	return s.filterReports(func(r *models.Report) bool { return r.ManagerID == managerID })
}

func (s *MemoryStore) ListReports(_ context.Context, status models.ReportStatus) ([]*models.Report, error) {
	return s.filterReports(func(r *models.Report) bool { return status == "" || r.Status == status })
}

func (s *MemoryStore) filterReports(keep func(*models.Report) bool) ([]*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reports []*models.Report
	for _, report := range s.reports {
		if keep(report) {
			copied := *report
			reports = append(reports, &copied)
		}
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].CreatedAt.After(reports[j].CreatedAt) })
	return reports, nil
}

// Manager verification

func (s *MemoryStore) SubmitVerificationGuarded(_ context.Context, verification *models.ManagerVerification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.managerProfiles[verification.ManagerID]
	if !ok {
		return fmt.Errorf("%w: manager profile %s", domain.ErrNotFound, verification.ManagerID)
	}
	if profile.Verified {
		return fmt.Errorf("%w: already verified", domain.ErrPreconditionFailed)
	}
	for _, v := range s.verifications {
		if v.ManagerID == verification.ManagerID && v.Status == models.VerificationPending {
			return fmt.Errorf("%w: verification already pending", domain.ErrPreconditionFailed)
		}
	}

	if verification.ID == "" {
		verification.ID = newID()
	}
	now := time.Now()
	verification.Status = models.VerificationPending
	verification.CreatedAt = now
	verification.UpdatedAt = now
	copied := *verification
	s.verifications[verification.ID] = &copied
	return nil
}

func (s *MemoryStore) GetVerification(_ context.Context, id string) (*models.ManagerVerification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	verification, ok := s.verifications[id]
	if !ok {
		return nil, fmt.Errorf("%w: verification %s", domain.ErrNotFound, id)
	}
	copied := *verification
	return &copied, nil
}

func (s *MemoryStore) ReviewVerification(_ context.Context, id string, status models.VerificationStatus, adminComment, performedBy string) (*models.ManagerVerification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	verification, ok := s.verifications[id]
	if !ok {
		return nil, fmt.Errorf("%w: verification %s", domain.ErrNotFound, id)
	}
	if verification.Status != models.VerificationPending {
		return nil, fmt.Errorf("%w: verification already reviewed", domain.ErrInvalidState)
	}

	verification.Status = status
	verification.AdminComment = adminComment
	verification.ReviewedBy = performedBy
	verification.UpdatedAt = time.Now()

	if status == models.VerificationApproved {
		if profile, ok := s.managerProfiles[verification.ManagerID]; ok {
			profile.Verified = true
			profile.UpdatedAt = time.Now()
		}
	}

	s.appendAudit(&models.AuditLog{
		Action:      fmt.Sprintf("%s_%s", models.AuditVerification, status),
		PerformedBy: performedBy,
		TargetType:  "ManagerVerification",
		TargetID:    id,
		Details:     adminComment,
	})
	copied := *verification
	return &copied, nil
}

func (s *MemoryStore) ListVerificationsByManager(_ context.Context, managerID string) ([]*models.ManagerVerification, error) {
	return s.filterVerifications(func(v *models.ManagerVerification) bool { return v.ManagerID == managerID })
}

func (s *MemoryStore) ListVerifications(_ context.Context, status models.VerificationStatus) ([]*models.ManagerVerification, error) {
	return s.filterVerifications(func(v *models.ManagerVerification) bool { return status == "" || v.Status == status })
}

func (s *MemoryStore) filterVerifications(keep func(*models.ManagerVerification) bool) ([]*models.ManagerVerification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var verifications []*models.ManagerVerification
	for _, verification := range s.verifications {
		if keep(verification) {
			copied := *verification
			verifications = append(verifications, &copied)
		}
	}
	sort.Slice(verifications, func(i, j int) bool {
		return verifications[i].CreatedAt.After(verifications[j].CreatedAt)
	})
	return verifications, nil
}

// Chat

func (s *MemoryStore) EnsureConversation(_ context.Context, studentID, managerID string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, conv := range s.conversations {
		if conv.StudentID == studentID && conv.ManagerID == managerID {
			copied := *conv
			return &copied, nil
		}
	}

	now := time.Now()
	conv := &models.Conversation{
		ID:        newID(),
		StudentID: studentID,
		ManagerID: managerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.conversations[conv.ID] = conv
	copied := *conv
	return &copied, nil
}

func (s *MemoryStore) GetConversation(_ context.Context, id string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, fmt.Errorf("%w: conversation %s", domain.ErrNotFound, id)
	}
	copied := *conv
	return &copied, nil
}

func (s *MemoryStore) CreateMessage(_ context.Context, message *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[message.ConversationID]
	if !ok {
		return fmt.Errorf("%w: conversation %s", domain.ErrNotFound, message.ConversationID)
	}

	if message.ID == "" {
		message.ID = newID()
	}
	message.CreatedAt = time.Now()
	conv.UpdatedAt = message.CreatedAt

	copied := *message
	s.messages[message.ConversationID] = append(s.messages[message.ConversationID], &copied)
	return nil
}

func (s *MemoryStore) ListConversationsByStudent(_ context.Context, studentID string) ([]*models.Conversation, error) {
	return s.filterConversations(func(c *models.Conversation) bool { return c.StudentID == studentID })
}

func (s *MemoryStore) ListConversationsByManager(_ context.Context, managerID string) ([]*models.Conversation, error) {
	return s.filterConversations(func(c *models.Conversation) bool { return c.ManagerID == managerID })
}

func (s *MemoryStore) ListConversations(_ context.Context) ([]*models.Conversation, error) {
	return s.filterConversations(func(*models.Conversation) bool { return true })
}

func (s *MemoryStore) filterConversations(keep func(*models.Conversation) bool) ([]*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var conversations []*models.Conversation
	for _, conv := range s.conversations {
		if keep(conv) {
			copied := *conv
			conversations = append(conversations, &copied)
		}
	}
	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].UpdatedAt.After(conversations[j].UpdatedAt)
	})
	return conversations, nil
}

func (s *MemoryStore) ListMessages(_ context.Context, conversationID string) ([]*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var messages []*models.Message
	for _, message := range s.messages[conversationID] {
		copied := *message
		messages = append(messages, &copied)
	}
	return messages, nil
}

// Audit trail

func (s *MemoryStore) ListAudit(_ context.Context, limit int) ([]*models.AuditLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 100
	}
	var entries []*models.AuditLog
	for i := len(s.audit) - 1; i >= 0 && len(entries) < limit; i-- {
		copied := *s.audit[i]
		entries = append(entries, &copied)
	}
	return entries, nil
}

func (s *MemoryStore) ListAuditByTarget(_ context.Context, targetType, targetID string) ([]*models.AuditLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []*models.AuditLog
	for _, entry := range s.audit {
		if entry.TargetType == targetType && entry.TargetID == targetID {
			copied := *entry
			entries = append(entries, &copied)
		}
	}
	return entries, nil
}
