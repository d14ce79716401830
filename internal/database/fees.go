package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hostelhub/internal/domain"
	"hostelhub/internal/models"
)

const feeColumns = `id, manager_id, hostel_id, month, student_count, total_revenue,
       fee_amount, payment_proof_image, status, reviewed_by, submitted_at,
       created_at, updated_at`

func scanFee(row rowScanner) (*models.MonthlyAdminFee, error) {
	var f models.MonthlyAdminFee
	err := row.Scan(&f.ID, &f.ManagerID, &f.HostelID, &f.Month, &f.StudentCount,
		&f.TotalRevenue, &f.FeeAmount, &f.PaymentProofImage, &f.Status,
		&f.ReviewedBy, &f.SubmittedAt, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// SubmitMonthlyFee computes the settlement figures and inserts the record
// in one transaction keyed on (manager, hostel, month). The caller fills
// ManagerID, HostelID, Month and the proof image; student count, revenue
// and fee amount are derived here so they reflect submission-time state.
func (db *DB) SubmitMonthlyFee(ctx context.Context, fee *models.MonthlyAdminFee) error {
	monthStart, err := time.Parse(models.FeeMonthLayout, fee.Month)
	if err != nil {
		return fmt.Errorf("%w: invalid month %q", domain.ErrPreconditionFailed, fee.Month)
	}
	monthEnd := monthStart.AddDate(0, 1, 0)

	return db.withTx(ctx, func(tx *sql.Tx) error {
		var existing int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM monthly_fees WHERE manager_id = ? AND hostel_id = ? AND month = ?`,
			fee.ManagerID, fee.HostelID, fee.Month).Scan(&existing)
		if err != nil {
			return storageErr("check fee uniqueness", err)
		}
		if existing > 0 {
			return fmt.Errorf("%w: fee already submitted for this month", domain.ErrPreconditionFailed)
		}

		var studentCount int64
		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM bookings WHERE hostel_id = ? AND status = ?`,
			fee.HostelID, models.BookingApproved).Scan(&studentCount)
		if err != nil {
			return storageErr("count active bookings", err)
		}

		var totalRevenue sql.NullInt64
		err = tx.QueryRowContext(ctx,
			`SELECT SUM(amount) FROM bookings
             WHERE hostel_id = ? AND status IN (?, ?, ?) AND created_at >= ? AND created_at < ?`,
			fee.HostelID, models.BookingApproved, models.BookingLeft, models.BookingCompleted,
			monthStart, monthEnd).Scan(&totalRevenue)
		if err != nil {
			return storageErr("sum booking revenue", err)
		}

		if fee.ID == "" {
			fee.ID = newID()
		}
		now := time.Now()
		fee.StudentCount = studentCount
		fee.TotalRevenue = totalRevenue.Int64
		fee.FeeAmount = studentCount * models.FeePerStudent
		fee.Status = models.FeePending
		fee.SubmittedAt = now
		fee.CreatedAt = now
		fee.UpdatedAt = now

		_, err = tx.ExecContext(ctx,
			`INSERT INTO monthly_fees (`+feeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, '', ?, ?, ?)`,
			fee.ID, fee.ManagerID, fee.HostelID, fee.Month, fee.StudentCount,
			fee.TotalRevenue, fee.FeeAmount, fee.PaymentProofImage, fee.Status,
			fee.SubmittedAt, fee.CreatedAt, fee.UpdatedAt)
		if err != nil {
			return storageErr("insert monthly fee", err)
		}
		return nil
	})
}

func (db *DB) GetFee(ctx context.Context, id string) (*models.MonthlyAdminFee, error) {
	row := db.QueryRowContext(ctx, `SELECT `+feeColumns+` FROM monthly_fees WHERE id = ?`, id)
	f, err := scanFee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: fee %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, storageErr("get fee", err)
	}
	return f, nil
}

// FindFee returns (nil, nil) when no record exists for the key.
func (db *DB) FindFee(ctx context.Context, managerID, hostelID, month string) (*models.MonthlyAdminFee, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+feeColumns+` FROM monthly_fees WHERE manager_id = ? AND hostel_id = ? AND month = ?`,
		managerID, hostelID, month)
	f, err := scanFee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("find fee", err)
	}
	return f, nil
}

// ReviewFee transitions PENDING -> APPROVED/REJECTED, records the reviewer
// and audits the decision. Terminal: a reviewed fee cannot be re-reviewed.
func (db *DB) ReviewFee(ctx context.Context, id string, status models.FeeStatus, reviewedBy string) (*models.MonthlyAdminFee, error) {
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE monthly_fees SET status = ?, reviewed_by = ?, updated_at = ?
             WHERE id = ? AND status = ?`,
			status, reviewedBy, time.Now(), id, models.FeePending)
		if err != nil {
			return storageErr("review fee", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			var current models.FeeStatus
			err := tx.QueryRowContext(ctx,
				`SELECT status FROM monthly_fees WHERE id = ?`, id).Scan(&current)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: fee %s", domain.ErrNotFound, id)
			}
			if err != nil {
				return storageErr("load fee", err)
			}
			return fmt.Errorf("%w: fee already reviewed", domain.ErrInvalidState)
		}

		return appendAudit(ctx, tx, &models.AuditLog{
			Action:      fmt.Sprintf("%s_%s", models.AuditFeeReviewed, status),
			PerformedBy: reviewedBy,
			TargetType:  "MonthlyAdminFee",
			TargetID:    id,
		})
	})
	if err != nil {
		return nil, err
	}
	return db.GetFee(ctx, id)
}

func (db *DB) queryFees(ctx context.Context, query string, args ...interface{}) ([]*models.MonthlyAdminFee, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query fees", err)
	}
	defer rows.Close()

	var fees []*models.MonthlyAdminFee
	for rows.Next() {
		f, err := scanFee(rows)
		if err != nil {
			return nil, storageErr("scan fee", err)
		}
		fees = append(fees, f)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("query fees", err)
	}
	return fees, nil
}

func (db *DB) ListFeesByManager(ctx context.Context, managerID string) ([]*models.MonthlyAdminFee, error) {
	return db.queryFees(ctx,
		`SELECT `+feeColumns+` FROM monthly_fees WHERE manager_id = ? ORDER BY created_at DESC`,
		managerID)
}

func (db *DB) ListFees(ctx context.Context, status models.FeeStatus) ([]*models.MonthlyAdminFee, error) {
	if status == "" {
		return db.queryFees(ctx,
			`SELECT `+feeColumns+` FROM monthly_fees ORDER BY created_at DESC`)
	}
	return db.queryFees(ctx,
		`SELECT `+feeColumns+` FROM monthly_fees WHERE status = ? ORDER BY created_at DESC`,
		status)
}
