package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostelhub/internal/domain"
	"hostelhub/internal/models"
)

func seedMemoryBooking(t *testing.T, store *MemoryStore, rooms int64) (*models.StudentProfile, *models.Hostel, *models.Booking) {
	t.Helper()
	ctx := context.Background()

	user := &models.User{Email: "s@test.com", Role: models.RoleStudent}
	require.NoError(t, store.CreateUser(ctx, user))
	student := &models.StudentProfile{UserID: user.ID}
	require.NoError(t, store.CreateStudentProfile(ctx, student))

	hostel := &models.Hostel{
		Name:           "Mem Hostel",
		HostelType:     models.HostelPrivate,
		TotalRooms:     rooms,
		AvailableRooms: rooms,
		RoomPrice:      4000,
		IsActive:       true,
	}
	require.NoError(t, store.CreateHostel(ctx, hostel))

	booking := &models.Booking{StudentID: student.ID, HostelID: hostel.ID, Amount: 4000}
	require.NoError(t, store.CreateBookingGuarded(ctx, booking))
	return student, hostel, booking
}

func TestMemoryStoreBookingLifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	student, hostel, booking := seedMemoryBooking(t, store, 2)

	approved, err := store.ApproveBooking(ctx, booking.ID, "manager-user")
	require.NoError(t, err)
	assert.Equal(t, models.BookingApproved, approved.Status)

	gotHostel, err := store.GetHostel(ctx, hostel.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gotHostel.AvailableRooms)

	gotStudent, err := store.GetStudentProfile(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, hostel.ID, gotStudent.CurrentHostelID)

	left, err := store.LeaveBooking(ctx, booking.ID, &models.Review{Rating: 5}, student.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingLeft, left.Status)

	gotHostel, err = store.GetHostel(ctx, hostel.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), gotHostel.AvailableRooms)
	assert.InDelta(t, 5.0, gotHostel.AverageRating, 0.001)

	gotStudent, err = store.GetStudentProfile(ctx, student.ID)
	require.NoError(t, err)
	assert.Empty(t, gotStudent.CurrentHostelID)
}

func TestMemoryStoreGuards(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	student, hostel, _ := seedMemoryBooking(t, store, 2)

	err := store.CreateBookingGuarded(ctx, &models.Booking{StudentID: student.ID, HostelID: hostel.ID})
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
}

func TestMemoryStoreConcurrentApproval(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	hostel := &models.Hostel{
		Name:           "Tight Hostel",
		HostelType:     models.HostelPrivate,
		TotalRooms:     1,
		AvailableRooms: 1,
		RoomPrice:      4000,
		IsActive:       true,
	}
	require.NoError(t, store.CreateHostel(ctx, hostel))

	const contenders = 8
	bookings := make([]*models.Booking, contenders)
	for i := 0; i < contenders; i++ {
		user := &models.User{Email: fmt.Sprintf("s%d@test.com", i), Role: models.RoleStudent}
		require.NoError(t, store.CreateUser(ctx, user))
		student := &models.StudentProfile{UserID: user.ID}
		require.NoError(t, store.CreateStudentProfile(ctx, student))
		bookings[i] = &models.Booking{StudentID: student.ID, HostelID: hostel.ID, Amount: 4000}
		require.NoError(t, store.CreateBookingGuarded(ctx, bookings[i]))
	}

	var wg sync.WaitGroup
	errs := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = store.ApproveBooking(ctx, bookings[i].ID, "manager-user")
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		}
	}
	assert.Equal(t, 1, successes)

	got, err := store.GetHostel(ctx, hostel.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.AvailableRooms)
}

func TestMemoryStoreResolveReportTerminates(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	student, _, booking := seedMemoryBooking(t, store, 2)

	managerUser := &models.User{Email: "m@test.com", Role: models.RoleManager}
	require.NoError(t, store.CreateUser(ctx, managerUser))
	manager := &models.ManagerProfile{UserID: managerUser.ID, Verified: true}
	require.NoError(t, store.CreateManagerProfile(ctx, manager))

	report := &models.Report{BookingID: booking.ID, StudentID: student.ID, ManagerID: manager.ID, Description: "broken locks"}
	require.NoError(t, store.CreateReportGuarded(ctx, report))

	_, err := store.ResolveReport(ctx, report.ID, models.DecisionManagerFault, "confirmed", "admin-1")
	require.NoError(t, err)

	user, err := store.GetUser(ctx, managerUser.ID)
	require.NoError(t, err)
	assert.True(t, user.IsTerminated)

	trail, err := store.ListAuditByTarget(ctx, "User", managerUser.ID)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, models.AuditManagerTerminated, trail[0].Action)
}
