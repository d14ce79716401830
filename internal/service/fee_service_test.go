package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostelhub/internal/domain"
	"hostelhub/internal/models"
)

func TestSubmitFeeComputesFigures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bookings := NewBookingService(f.store, nil, testLogger())
	fees := NewFeeService(f.store, nil, testLogger())

	booking, err := bookings.CreateBooking(ctx, f.studentUser.ID, f.hostel.ID, validTransfer())
	require.NoError(t, err)
	_, err = bookings.ApproveBooking(ctx, f.managerUser.ID, booking.ID)
	require.NoError(t, err)

	month := time.Now().Format(models.FeeMonthLayout)
	fee, err := fees.SubmitFee(ctx, f.managerUser.ID, f.hostel.ID, month, "fees/aug.jpg")
	require.NoError(t, err)
	assert.Equal(t, int64(1), fee.StudentCount)
	assert.Equal(t, int64(models.FeePerStudent), fee.FeeAmount)
	assert.Equal(t, int64(5000), fee.TotalRevenue)
	assert.Equal(t, models.FeePending, fee.Status)

	_, err = fees.SubmitFee(ctx, f.managerUser.ID, f.hostel.ID, month, "fees/aug-again.jpg")
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
}

func TestSubmitFeeRequiresProof(t *testing.T) {
	f := newFixture(t)
	fees := NewFeeService(f.store, nil, testLogger())

	_, err := fees.SubmitFee(context.Background(), f.managerUser.ID, f.hostel.ID, "2026-08", "")
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
}

func TestSubmitFeeForeignHostelRejected(t *testing.T) {
	f := newFixture(t)
	fees := NewFeeService(f.store, nil, testLogger())

	otherUser, _ := f.addManager(t, "rival@test.pk", true)
	_, err := fees.SubmitFee(context.Background(), otherUser.ID, f.hostel.ID, "2026-08", "fees/aug.jpg")
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestReviewFeeAdminOnlyAndTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fees := NewFeeService(f.store, nil, testLogger())

	fee, err := fees.SubmitFee(ctx, f.managerUser.ID, f.hostel.ID, "2026-08", "fees/aug.jpg")
	require.NoError(t, err)

	_, err = fees.ReviewFee(ctx, f.managerUser.ID, fee.ID, true)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	reviewed, err := fees.ReviewFee(ctx, f.admin.ID, fee.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.FeeApproved, reviewed.Status)

	_, err = fees.ReviewFee(ctx, f.admin.ID, fee.ID, false)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestPendingFeeSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bookings := NewBookingService(f.store, nil, testLogger())
	fees := NewFeeService(f.store, nil, testLogger())

	booking, err := bookings.CreateBooking(ctx, f.studentUser.ID, f.hostel.ID, validTransfer())
	require.NoError(t, err)
	_, err = bookings.ApproveBooking(ctx, f.managerUser.ID, booking.ID)
	require.NoError(t, err)

	summaries, err := fees.PendingFeeSummary(ctx, f.managerUser.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, int64(1), summaries[0].ActiveStudents)
	assert.Equal(t, int64(models.FeePerStudent), summaries[0].FeeAmount)
	assert.False(t, summaries[0].Submitted)

	month := time.Now().Format(models.FeeMonthLayout)
	_, err = fees.SubmitFee(ctx, f.managerUser.ID, f.hostel.ID, month, "fees/cur.jpg")
	require.NoError(t, err)

	summaries, err = fees.PendingFeeSummary(ctx, f.managerUser.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.True(t, summaries[0].Submitted)
	assert.Equal(t, models.FeePending, summaries[0].Status)
}
