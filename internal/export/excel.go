// Package export renders admin XLSX snapshots of bookings and monthly
// fee settlements.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"hostelhub/internal/domain"
	"hostelhub/internal/models"
)

type ExcelWriter struct{}

var _ domain.ExportWriter = (*ExcelWriter)(nil)

func NewExcelWriter() *ExcelWriter {
	return &ExcelWriter{}
}

const timeLayout = "02.01.2006 15:04"

func (w *ExcelWriter) WriteBookings(bookings []*models.Booking) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Bookings"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	headers := []string{
		"ID", "Student ID", "Hostel ID", "Status", "Amount",
		"Transfer Proof", "Refund Proof", "Kick Reason", "Created", "Updated",
	}
	if err := writeHeaders(f, sheet, headers); err != nil {
		return nil, err
	}

	for i, booking := range bookings {
		row := i + 2
		refundImage := ""
		if booking.Refund != nil {
			refundImage = booking.Refund.Image
		}
		values := []any{
			booking.ID,
			booking.StudentID,
			booking.HostelID,
			string(booking.Status),
			booking.Amount,
			booking.Transfer.Image,
			refundImage,
			string(booking.KickReason),
			booking.CreatedAt.Format(timeLayout),
			booking.UpdatedAt.Format(timeLayout),
		}
		if err := writeRow(f, sheet, row, values); err != nil {
			return nil, err
		}
	}

	_ = f.SetColWidth(sheet, "A", "C", 24)
	_ = f.SetColWidth(sheet, "D", "H", 18)
	_ = f.SetColWidth(sheet, "I", "J", 20)
	_ = f.DeleteSheet("Sheet1")

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("error writing workbook: %v", err)
	}
	return buf.Bytes(), nil
}

func (w *ExcelWriter) WriteFees(fees []*models.MonthlyAdminFee) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Monthly Fees"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	headers := []string{
		"ID", "Manager ID", "Hostel ID", "Month", "Students",
		"Revenue", "Fee Due", "Status", "Reviewed By", "Submitted",
	}
	if err := writeHeaders(f, sheet, headers); err != nil {
		return nil, err
	}

	for i, fee := range fees {
		row := i + 2
		values := []any{
			fee.ID,
			fee.ManagerID,
			fee.HostelID,
			fee.Month,
			fee.StudentCount,
			fee.TotalRevenue,
			fee.FeeAmount,
			string(fee.Status),
			fee.ReviewedBy,
			fee.SubmittedAt.Format(timeLayout),
		}
		if err := writeRow(f, sheet, row, values); err != nil {
			return nil, err
		}
	}

	_ = f.SetColWidth(sheet, "A", "C", 24)
	_ = f.SetColWidth(sheet, "D", "I", 14)
	_ = f.SetColWidth(sheet, "J", "J", 20)
	_ = f.DeleteSheet("Sheet1")

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("error writing workbook: %v", err)
	}
	return buf.Bytes(), nil
}

func writeHeaders(f *excelize.File, sheet string, headers []string) error {
	style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return fmt.Errorf("error creating header style: %v", err)
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("error writing header: %v", err)
		}
		_ = f.SetCellStyle(sheet, cell, cell, style)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for i, value := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("error writing cell %s: %v", cell, err)
		}
	}
	return nil
}
