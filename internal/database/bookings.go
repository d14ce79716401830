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

const bookingColumns = `id, student_id, hostel_id, status, amount,
       transfer_image, transfer_date, transfer_time, from_account, to_account,
       refund_image, refund_date, refund_time, kick_reason, kicked_by,
       created_at, updated_at`

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	var refundImage, refundDate, refundTime string
	err := row.Scan(
		&b.ID, &b.StudentID, &b.HostelID, &b.Status, &b.Amount,
		&b.Transfer.Image, &b.Transfer.Date, &b.Transfer.Time,
		&b.Transfer.FromAccount, &b.Transfer.ToAccount,
		&refundImage, &refundDate, &refundTime, &b.KickReason, &b.KickedBy,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if refundImage != "" || refundDate != "" || refundTime != "" {
		b.Refund = &models.RefundProof{Image: refundImage, Date: refundDate, Time: refundTime}
	}
	return &b, nil
}

// CreateBookingGuarded inserts a PENDING booking with the duplicate and
// capacity preconditions re-checked inside the transaction, so concurrent
// submissions cannot yield two pending bookings for one student. Room
// inventory is untouched until approval.
func (db *DB) CreateBookingGuarded(ctx context.Context, booking *models.Booking) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		var pending int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM bookings WHERE student_id = ? AND status = ?`,
			booking.StudentID, models.BookingPending).Scan(&pending)
		if err != nil {
			return storageErr("check pending bookings", err)
		}
		if pending > 0 {
			return fmt.Errorf("%w: student already has a pending booking", domain.ErrPreconditionFailed)
		}

		var currentHostel string
		err = tx.QueryRowContext(ctx,
			`SELECT current_hostel_id FROM student_profiles WHERE id = ?`,
			booking.StudentID).Scan(&currentHostel)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: student profile %s", domain.ErrNotFound, booking.StudentID)
		}
		if err != nil {
			return storageErr("check student hostel binding", err)
		}
		if currentHostel != "" {
			return fmt.Errorf("%w: student already has an active hostel", domain.ErrPreconditionFailed)
		}

		var isActive bool
		var available int64
		err = tx.QueryRowContext(ctx,
			`SELECT is_active, available_rooms FROM hostels WHERE id = ?`,
			booking.HostelID).Scan(&isActive, &available)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: hostel %s", domain.ErrNotFound, booking.HostelID)
		}
		if err != nil {
			return storageErr("check hostel", err)
		}
		if !isActive {
			return fmt.Errorf("%w: hostel is inactive", domain.ErrPreconditionFailed)
		}
		if available <= 0 {
			return fmt.Errorf("%w: no rooms available", domain.ErrPreconditionFailed)
		}

		if booking.ID == "" {
			booking.ID = newID()
		}
		now := time.Now()
		booking.Status = models.BookingPending
		booking.CreatedAt = now
		booking.UpdatedAt = now

		_, err = tx.ExecContext(ctx,
			`INSERT INTO bookings (`+bookingColumns+`)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, '', '', '', '', '', ?, ?)`,
			booking.ID, booking.StudentID, booking.HostelID, booking.Status, booking.Amount,
			booking.Transfer.Image, booking.Transfer.Date, booking.Transfer.Time,
			booking.Transfer.FromAccount, booking.Transfer.ToAccount, now, now)
		if err != nil {
			return storageErr("insert booking", err)
		}
		return nil
	})
}

func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	row := db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: booking %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, storageErr("get booking", err)
	}
	return b, nil
}

// FindPendingBooking returns (nil, nil) when the student has none.
func (db *DB) FindPendingBooking(ctx context.Context, studentID string) (*models.Booking, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE student_id = ? AND status = ? LIMIT 1`,
		studentID, models.BookingPending)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("find pending booking", err)
	}
	return b, nil
}

// FindApprovedBooking returns (nil, nil) when no approved booking ties the
// student to the hostel.
func (db *DB) FindApprovedBooking(ctx context.Context, studentID, hostelID string) (*models.Booking, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings
         WHERE student_id = ? AND hostel_id = ? AND status = ? LIMIT 1`,
		studentID, hostelID, models.BookingApproved)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("find approved booking", err)
	}
	return b, nil
}

// ApproveBooking transitions PENDING -> APPROVED, decrements room inventory,
// binds the student to the hostel and appends the audit row, all in one
// transaction. Status and room count are re-checked inside the transaction:
// of two concurrent approvals racing for the last room, exactly one commits.
func (db *DB) ApproveBooking(ctx context.Context, bookingID, performedBy string) (*models.Booking, error) {
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var status models.BookingStatus
		var studentID, hostelID string
		err := tx.QueryRowContext(ctx,
			`SELECT status, student_id, hostel_id FROM bookings WHERE id = ?`,
			bookingID).Scan(&status, &studentID, &hostelID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: booking %s", domain.ErrNotFound, bookingID)
		}
		if err != nil {
			return storageErr("load booking", err)
		}
		if status != models.BookingPending {
			return fmt.Errorf("%w: booking already reviewed", domain.ErrInvalidState)
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE hostels SET available_rooms = available_rooms - 1, updated_at = ?
             WHERE id = ? AND available_rooms > 0`,
			time.Now(), hostelID)
		if err != nil {
			return storageErr("decrement rooms", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return fmt.Errorf("%w: no rooms available", domain.ErrPreconditionFailed)
		}

		result, err = tx.ExecContext(ctx,
			`UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
			models.BookingApproved, time.Now(), bookingID, models.BookingPending)
		if err != nil {
			return storageErr("approve booking", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return fmt.Errorf("%w: booking already reviewed", domain.ErrInvalidState)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE student_profiles SET current_hostel_id = ?, updated_at = ? WHERE id = ?`,
			hostelID, time.Now(), studentID); err != nil {
			return storageErr("bind student to hostel", err)
		}

		return appendAudit(ctx, tx, &models.AuditLog{
			Action:      models.AuditBookingApproved,
			PerformedBy: performedBy,
			TargetType:  "Booking",
			TargetID:    bookingID,
		})
	})
	if err != nil {
		return nil, err
	}
	return db.GetBooking(ctx, bookingID)
}

// DisapproveBooking transitions PENDING -> REFUNDED with the refund proof
// recorded. Inventory is untouched: the room was never reserved.
func (db *DB) DisapproveBooking(ctx context.Context, bookingID string, refund models.RefundProof, performedBy string) (*models.Booking, error) {
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE bookings SET status = ?, refund_image = ?, refund_date = ?, refund_time = ?, updated_at = ?
             WHERE id = ? AND status = ?`,
			models.BookingRefunded, refund.Image, refund.Date, refund.Time,
			time.Now(), bookingID, models.BookingPending)
		if err != nil {
			return storageErr("disapprove booking", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return bookingConflict(ctx, tx, bookingID)
		}

		return appendAudit(ctx, tx, &models.AuditLog{
			Action:      models.AuditBookingDisapproved,
			PerformedBy: performedBy,
			TargetType:  "Booking",
			TargetID:    bookingID,
		})
	})
	if err != nil {
		return nil, err
	}
	return db.GetBooking(ctx, bookingID)
}

// bookingConflict distinguishes a missing booking from a lost status race.
func bookingConflict(ctx context.Context, tx *sql.Tx, bookingID string) error {
	var status models.BookingStatus
	err := tx.QueryRowContext(ctx,
		`SELECT status FROM bookings WHERE id = ?`, bookingID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: booking %s", domain.ErrNotFound, bookingID)
	}
	if err != nil {
		return storageErr("load booking", err)
	}
	return fmt.Errorf("%w: booking is %s", domain.ErrInvalidState, status)
}

// LeaveBooking transitions APPROVED -> LEFT, records the review, releases
// the room, folds the rating into the hostel average and unbinds the
// student, atomically.
func (db *DB) LeaveBooking(ctx context.Context, bookingID string, review *models.Review, performedBy string) (*models.Booking, error) {
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var status models.BookingStatus
		var studentID, hostelID string
		err := tx.QueryRowContext(ctx,
			`SELECT status, student_id, hostel_id FROM bookings WHERE id = ?`,
			bookingID).Scan(&status, &studentID, &hostelID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: booking %s", domain.ErrNotFound, bookingID)
		}
		if err != nil {
			return storageErr("load booking", err)
		}
		if status != models.BookingApproved {
			return fmt.Errorf("%w: booking is %s", domain.ErrInvalidState, status)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`,
			models.BookingLeft, time.Now(), bookingID); err != nil {
			return storageErr("mark booking left", err)
		}

		if review.ID == "" {
			review.ID = newID()
		}
		review.BookingID = bookingID
		review.HostelID = hostelID
		review.CreatedAt = time.Now()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO reviews (id, booking_id, hostel_id, rating, comment, created_at)
             VALUES (?, ?, ?, ?, ?, ?)`,
			review.ID, review.BookingID, review.HostelID, review.Rating,
			review.Comment, review.CreatedAt); err != nil {
			return storageErr("insert review", err)
		}

		var avg float64
		var count int64
		err = tx.QueryRowContext(ctx,
			`SELECT average_rating, review_count FROM hostels WHERE id = ?`,
			hostelID).Scan(&avg, &count)
		if err != nil {
			return storageErr("load hostel rating", err)
		}
		newAvg := (avg*float64(count) + float64(review.Rating)) / float64(count+1)

		if _, err := tx.ExecContext(ctx,
			`UPDATE hostels SET available_rooms = available_rooms + 1,
                    average_rating = ?, review_count = review_count + 1, updated_at = ?
             WHERE id = ?`,
			newAvg, time.Now(), hostelID); err != nil {
			return storageErr("release room", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE student_profiles SET current_hostel_id = '', updated_at = ? WHERE id = ?`,
			time.Now(), studentID); err != nil {
			return storageErr("unbind student", err)
		}

		return appendAudit(ctx, tx, &models.AuditLog{
			Action:      models.AuditStudentLeftHostel,
			PerformedBy: performedBy,
			TargetType:  "Booking",
			TargetID:    bookingID,
		})
	})
	if err != nil {
		return nil, err
	}
	return db.GetBooking(ctx, bookingID)
}

// KickBooking is the manager-initiated variant of LeaveBooking: same room
// and profile release, no review, kick reason recorded.
func (db *DB) KickBooking(ctx context.Context, bookingID string, reason models.KickReason, kickedByManagerID, performedBy string) (*models.Booking, error) {
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var status models.BookingStatus
		var studentID, hostelID string
		err := tx.QueryRowContext(ctx,
			`SELECT status, student_id, hostel_id FROM bookings WHERE id = ?`,
			bookingID).Scan(&status, &studentID, &hostelID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: booking %s", domain.ErrNotFound, bookingID)
		}
		if err != nil {
			return storageErr("load booking", err)
		}
		if status != models.BookingApproved {
			return fmt.Errorf("%w: can only kick students with approved bookings", domain.ErrInvalidState)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE bookings SET status = ?, kick_reason = ?, kicked_by = ?, updated_at = ? WHERE id = ?`,
			models.BookingLeft, reason, kickedByManagerID, time.Now(), bookingID); err != nil {
			return storageErr("mark booking kicked", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE hostels SET available_rooms = available_rooms + 1, updated_at = ? WHERE id = ?`,
			time.Now(), hostelID); err != nil {
			return storageErr("release room", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE student_profiles SET current_hostel_id = '', updated_at = ? WHERE id = ?`,
			time.Now(), studentID); err != nil {
			return storageErr("unbind student", err)
		}

		return appendAudit(ctx, tx, &models.AuditLog{
			Action:      fmt.Sprintf("%s_%s", models.AuditStudentKicked, reason),
			PerformedBy: performedBy,
			TargetType:  "Booking",
			TargetID:    bookingID,
			Details:     fmt.Sprintf("Student kicked from hostel. Reason: %s", reason),
		})
	})
	if err != nil {
		return nil, err
	}
	return db.GetBooking(ctx, bookingID)
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...interface{}) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query bookings", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, storageErr("scan booking", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("query bookings", err)
	}
	return bookings, nil
}

func (db *DB) ListBookingsByStudent(ctx context.Context, studentID string) ([]*models.Booking, error) {
	return db.queryBookings(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE student_id = ? ORDER BY created_at DESC`,
		studentID)
}

func (db *DB) ListBookingsByHostel(ctx context.Context, hostelID string) ([]*models.Booking, error) {
	return db.queryBookings(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE hostel_id = ? ORDER BY created_at DESC`,
		hostelID)
}

func (db *DB) ListBookings(ctx context.Context, status models.BookingStatus) ([]*models.Booking, error) {
	if status == "" {
		return db.queryBookings(ctx,
			`SELECT `+bookingColumns+` FROM bookings ORDER BY created_at DESC`)
	}
	return db.queryBookings(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE status = ? ORDER BY created_at DESC`,
		status)
}

func (db *DB) CountBookingsByStatus(ctx context.Context, hostelID string, status models.BookingStatus) (int64, error) {
	var count int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE hostel_id = ? AND status = ?`,
		hostelID, status).Scan(&count)
	if err != nil {
		return 0, storageErr("count bookings", err)
	}
	return count, nil
}
