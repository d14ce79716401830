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

const verificationColumns = `id, manager_id, owner_name, city, address, hostel_names,
       hostel_for, building_image, accepted_rules, status, admin_comment,
       reviewed_by, created_at, updated_at`

func scanVerification(row rowScanner) (*models.ManagerVerification, error) {
	var v models.ManagerVerification
	err := row.Scan(&v.ID, &v.ManagerID, &v.OwnerName, &v.City, &v.Address,
		&v.HostelNames, &v.HostelFor, &v.BuildingImage, &v.AcceptedRules,
		&v.Status, &v.AdminComment, &v.ReviewedBy, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// SubmitVerificationGuarded inserts a PENDING verification with the
// "not already verified, no pending submission" rules re-checked inside
// the transaction.
func (db *DB) SubmitVerificationGuarded(ctx context.Context, verification *models.ManagerVerification) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		var verified bool
		err := tx.QueryRowContext(ctx,
			`SELECT verified FROM manager_profiles WHERE id = ?`,
			verification.ManagerID).Scan(&verified)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: manager profile %s", domain.ErrNotFound, verification.ManagerID)
		}
		if err != nil {
			return storageErr("load manager profile", err)
		}
		if verified {
			return fmt.Errorf("%w: already verified", domain.ErrPreconditionFailed)
		}

		var pending int
		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM verifications WHERE manager_id = ? AND status = ?`,
			verification.ManagerID, models.VerificationPending).Scan(&pending)
		if err != nil {
			return storageErr("check pending verifications", err)
		}
		if pending > 0 {
			return fmt.Errorf("%w: verification already pending", domain.ErrPreconditionFailed)
		}

		if verification.ID == "" {
			verification.ID = newID()
		}
		now := time.Now()
		verification.Status = models.VerificationPending
		verification.CreatedAt = now
		verification.UpdatedAt = now

		_, err = tx.ExecContext(ctx,
			`INSERT INTO verifications (`+verificationColumns+`)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, '', '', ?, ?)`,
			verification.ID, verification.ManagerID, verification.OwnerName,
			verification.City, verification.Address, verification.HostelNames,
			verification.HostelFor, verification.BuildingImage,
			verification.AcceptedRules, verification.Status, now, now)
		if err != nil {
			return storageErr("insert verification", err)
		}
		return nil
	})
}

func (db *DB) GetVerification(ctx context.Context, id string) (*models.ManagerVerification, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+verificationColumns+` FROM verifications WHERE id = ?`, id)
	v, err := scanVerification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: verification %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, storageErr("get verification", err)
	}
	return v, nil
}

// ReviewVerification transitions PENDING -> APPROVED/REJECTED; approval
// flips the manager profile's verified flag in the same transaction.
// Rejection does not retry: the manager must submit anew.
func (db *DB) ReviewVerification(ctx context.Context, id string, status models.VerificationStatus, adminComment, performedBy string) (*models.ManagerVerification, error) {
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var current models.VerificationStatus
		var managerID string
		err := tx.QueryRowContext(ctx,
			`SELECT status, manager_id FROM verifications WHERE id = ?`,
			id).Scan(&current, &managerID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: verification %s", domain.ErrNotFound, id)
		}
		if err != nil {
			return storageErr("load verification", err)
		}
		if current != models.VerificationPending {
			return fmt.Errorf("%w: verification already reviewed", domain.ErrInvalidState)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE verifications SET status = ?, admin_comment = ?, reviewed_by = ?, updated_at = ?
             WHERE id = ?`,
			status, adminComment, performedBy, time.Now(), id); err != nil {
			return storageErr("review verification", err)
		}

		if status == models.VerificationApproved {
			if _, err := tx.ExecContext(ctx,
				`UPDATE manager_profiles SET verified = 1, updated_at = ? WHERE id = ?`,
				time.Now(), managerID); err != nil {
				return storageErr("mark manager verified", err)
			}
		}

		return appendAudit(ctx, tx, &models.AuditLog{
			Action:      fmt.Sprintf("%s_%s", models.AuditVerification, status),
			PerformedBy: performedBy,
			TargetType:  "ManagerVerification",
			TargetID:    id,
			Details:     adminComment,
		})
	})
	if err != nil {
		return nil, err
	}
	return db.GetVerification(ctx, id)
}

func (db *DB) queryVerifications(ctx context.Context, query string, args ...interface{}) ([]*models.ManagerVerification, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query verifications", err)
	}
	defer rows.Close()

	var verifications []*models.ManagerVerification
	for rows.Next() {
		v, err := scanVerification(rows)
		if err != nil {
			return nil, storageErr("scan verification", err)
		}
		verifications = append(verifications, v)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("query verifications", err)
	}
	return verifications, nil
}

func (db *DB) ListVerificationsByManager(ctx context.Context, managerID string) ([]*models.ManagerVerification, error) {
	return db.queryVerifications(ctx,
		`SELECT `+verificationColumns+` FROM verifications WHERE manager_id = ? ORDER BY created_at DESC`,
		managerID)
}

func (db *DB) ListVerifications(ctx context.Context, status models.VerificationStatus) ([]*models.ManagerVerification, error) {
	if status == "" {
		return db.queryVerifications(ctx,
			`SELECT `+verificationColumns+` FROM verifications ORDER BY created_at DESC`)
	}
	return db.queryVerifications(ctx,
		`SELECT `+verificationColumns+` FROM verifications WHERE status = ? ORDER BY created_at DESC`,
		status)
}
