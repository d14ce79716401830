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

const reservationColumns = `id, student_id, hostel_id, status, message, reject_reason, created_at, updated_at`

func scanReservation(row rowScanner) (*models.Reservation, error) {
	var r models.Reservation
	err := row.Scan(&r.ID, &r.StudentID, &r.HostelID, &r.Status, &r.Message,
		&r.RejectReason, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateReservationGuarded inserts a PENDING reservation with the
// "one active reservation per (student, hostel)" rule re-checked inside
// the transaction. Reservations never touch room inventory.
func (db *DB) CreateReservationGuarded(ctx context.Context, reservation *models.Reservation) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		var currentHostel string
		err := tx.QueryRowContext(ctx,
			`SELECT current_hostel_id FROM student_profiles WHERE id = ?`,
			reservation.StudentID).Scan(&currentHostel)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: student profile %s", domain.ErrNotFound, reservation.StudentID)
		}
		if err != nil {
			return storageErr("check student hostel binding", err)
		}
		if currentHostel != "" {
			return fmt.Errorf("%w: student already has an active hostel", domain.ErrPreconditionFailed)
		}

		var active int
		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM reservations
             WHERE student_id = ? AND hostel_id = ? AND status IN (?, ?)`,
			reservation.StudentID, reservation.HostelID,
			models.ReservationPending, models.ReservationAccepted).Scan(&active)
		if err != nil {
			return storageErr("check active reservations", err)
		}
		if active > 0 {
			return fmt.Errorf("%w: active reservation already exists for this hostel", domain.ErrPreconditionFailed)
		}

		if reservation.ID == "" {
			reservation.ID = newID()
		}
		now := time.Now()
		reservation.Status = models.ReservationPending
		reservation.CreatedAt = now
		reservation.UpdatedAt = now

		_, err = tx.ExecContext(ctx,
			`INSERT INTO reservations (`+reservationColumns+`) VALUES (?, ?, ?, ?, ?, '', ?, ?)`,
			reservation.ID, reservation.StudentID, reservation.HostelID,
			reservation.Status, reservation.Message, now, now)
		if err != nil {
			return storageErr("insert reservation", err)
		}
		return nil
	})
}

func (db *DB) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	r, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: reservation %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, storageErr("get reservation", err)
	}
	return r, nil
}

// CancelReservation is permitted only from PENDING; the losing side of a
// concurrent review observes the changed status and fails.
func (db *DB) CancelReservation(ctx context.Context, id string) (*models.Reservation, error) {
	return db.updateReservationStatus(ctx, id, models.ReservationCancelled, "")
}

func (db *DB) ReviewReservation(ctx context.Context, id string, status models.ReservationStatus, rejectReason string) (*models.Reservation, error) {
	return db.updateReservationStatus(ctx, id, status, rejectReason)
}

func (db *DB) updateReservationStatus(ctx context.Context, id string, status models.ReservationStatus, rejectReason string) (*models.Reservation, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE reservations SET status = ?, reject_reason = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		status, rejectReason, time.Now(), id, models.ReservationPending)
	if err != nil {
		return nil, storageErr("update reservation status", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		current, err := db.GetReservation(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: reservation is %s", domain.ErrInvalidState, current.Status)
	}
	return db.GetReservation(ctx, id)
}

func (db *DB) queryReservations(ctx context.Context, query string, args ...interface{}) ([]*models.Reservation, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query reservations", err)
	}
	defer rows.Close()

	var reservations []*models.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, storageErr("scan reservation", err)
		}
		reservations = append(reservations, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("query reservations", err)
	}
	return reservations, nil
}

func (db *DB) ListReservationsByStudent(ctx context.Context, studentID string) ([]*models.Reservation, error) {
	return db.queryReservations(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE student_id = ? ORDER BY created_at DESC`,
		studentID)
}

func (db *DB) ListReservationsByHostel(ctx context.Context, hostelID string) ([]*models.Reservation, error) {
	return db.queryReservations(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE hostel_id = ? ORDER BY created_at DESC`,
		hostelID)
}
