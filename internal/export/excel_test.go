package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"hostelhub/internal/models"
)

func TestWriteBookings(t *testing.T) {
	writer := NewExcelWriter()

	now := time.Now()
	bookings := []*models.Booking{
		{
			ID:        "b-1",
			StudentID: "s-1",
			HostelID:  "h-1",
			Status:    models.BookingApproved,
			Amount:    5000,
			Transfer:  models.TransferProof{Image: "transfers/1.jpg"},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:        "b-2",
			StudentID: "s-2",
			HostelID:  "h-1",
			Status:    models.BookingRefunded,
			Amount:    5000,
			Refund:    &models.RefundProof{Image: "refunds/2.jpg"},
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	data, err := writer.WriteBookings(bookings)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Bookings")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, "b-1", rows[1][0])
	assert.Equal(t, "APPROVED", rows[1][3])
	assert.Equal(t, "refunds/2.jpg", rows[2][6])
}

func TestWriteFees(t *testing.T) {
	writer := NewExcelWriter()

	fees := []*models.MonthlyAdminFee{
		{
			ID:           "f-1",
			ManagerID:    "m-1",
			HostelID:     "h-1",
			Month:        "2026-08",
			StudentCount: 3,
			TotalRevenue: 15000,
			FeeAmount:    300,
			Status:       models.FeePending,
			SubmittedAt:  time.Now(),
		},
	}

	data, err := writer.WriteFees(fees)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Monthly Fees")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2026-08", rows[1][3])
	assert.Equal(t, "300", rows[1][6])
}

func TestWriteBookingsEmpty(t *testing.T) {
	writer := NewExcelWriter()

	data, err := writer.WriteBookings(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Bookings")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
