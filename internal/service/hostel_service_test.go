package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostelhub/internal/domain"
	"hostelhub/internal/models"
)

func newHostelInput() *models.Hostel {
	return &models.Hostel{
		Name:               "Model Town Girls Hostel",
		City:               "Lahore",
		Address:            "Block C, Model Town",
		HostelType:         models.HostelShared,
		HostelFor:          "girls",
		TotalRooms:         10,
		PersonsInRoom:      3,
		PricePerHeadShared: 7000,
	}
}

func TestCreateHostelRequiresVerifiedManager(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewHostelService(f.store, testLogger())

	user, _ := f.addManager(t, "newbie@test.pk", false)
	_, err := svc.CreateHostel(ctx, user.ID, newHostelInput())
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestCreateHostelValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewHostelService(f.store, testLogger())

	input := newHostelInput()
	input.TotalRooms = 0
	_, err := svc.CreateHostel(ctx, f.managerUser.ID, input)
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)

	input = newHostelInput()
	input.PricePerHeadShared = 0
	_, err = svc.CreateHostel(ctx, f.managerUser.ID, input)
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
}

func TestCreateHostelInitialisesInventory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewHostelService(f.store, testLogger())

	created, err := svc.CreateHostel(ctx, f.managerUser.ID, newHostelInput())
	require.NoError(t, err)
	assert.Equal(t, f.manager.ID, created.ManagerID)
	assert.Equal(t, int64(10), created.AvailableRooms)
	assert.True(t, created.IsActive)
	assert.Zero(t, created.AverageRating)
}

func TestUpdateHostelPinsType(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewHostelService(f.store, testLogger())

	edit := *f.hostel
	edit.HostelType = models.HostelShared
	edit.Name = "Gulberg Boys Hostel II"

	updated, err := svc.UpdateHostel(ctx, f.managerUser.ID, &edit)
	require.NoError(t, err)
	assert.Equal(t, models.HostelPrivate, updated.HostelType)
	assert.Equal(t, "Gulberg Boys Hostel II", updated.Name)
}

func TestUpdateHostelForeignManagerRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewHostelService(f.store, testLogger())

	otherUser, _ := f.addManager(t, "rival@test.pk", true)
	edit := *f.hostel
	_, err := svc.UpdateHostel(ctx, otherUser.ID, &edit)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestDeactivateHostelHidesFromSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewHostelService(f.store, testLogger())

	require.NoError(t, svc.DeactivateHostel(ctx, f.managerUser.ID, f.hostel.ID))

	results, err := svc.SearchHostels(ctx, domain.HostelFilter{City: "Lahore"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestListStudentsReturnsApprovedOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewHostelService(f.store, testLogger())
	bookings := NewBookingService(f.store, nil, testLogger())

	booking, err := bookings.CreateBooking(ctx, f.studentUser.ID, f.hostel.ID, validTransfer())
	require.NoError(t, err)

	residents, err := svc.ListStudents(ctx, f.managerUser.ID, f.hostel.ID)
	require.NoError(t, err)
	assert.Empty(t, residents)

	_, err = bookings.ApproveBooking(ctx, f.managerUser.ID, booking.ID)
	require.NoError(t, err)

	residents, err = svc.ListStudents(ctx, f.managerUser.ID, f.hostel.ID)
	require.NoError(t, err)
	require.Len(t, residents, 1)
	assert.Equal(t, booking.ID, residents[0].ID)
}
