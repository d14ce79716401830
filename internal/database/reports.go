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

const reportColumns = `id, booking_id, student_id, manager_id, description, status,
       decision, final_resolution, resolved_by, created_at, updated_at`

func scanReport(row rowScanner) (*models.Report, error) {
	var r models.Report
	err := row.Scan(&r.ID, &r.BookingID, &r.StudentID, &r.ManagerID, &r.Description,
		&r.Status, &r.Decision, &r.FinalResolution, &r.ResolvedBy,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateReportGuarded inserts an OPEN report with the "one open report per
// booking" rule re-checked inside the transaction.
func (db *DB) CreateReportGuarded(ctx context.Context, report *models.Report) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		var open int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM reports WHERE booking_id = ? AND status = ?`,
			report.BookingID, models.ReportOpen).Scan(&open)
		if err != nil {
			return storageErr("check open reports", err)
		}
		if open > 0 {
			return fmt.Errorf("%w: an open report already exists for this booking", domain.ErrPreconditionFailed)
		}

		if report.ID == "" {
			report.ID = newID()
		}
		now := time.Now()
		report.Status = models.ReportOpen
		report.CreatedAt = now
		report.UpdatedAt = now

		_, err = tx.ExecContext(ctx,
			`INSERT INTO reports (`+reportColumns+`) VALUES (?, ?, ?, ?, ?, ?, '', '', '', ?, ?)`,
			report.ID, report.BookingID, report.StudentID, report.ManagerID,
			report.Description, report.Status, now, now)
		if err != nil {
			return storageErr("insert report", err)
		}
		return nil
	})
}

func (db *DB) GetReport(ctx context.Context, id string) (*models.Report, error) {
	row := db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = ?`, id)
	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: report %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, storageErr("get report", err)
	}
	return r, nil
}

// ResolveReport transitions OPEN -> RESOLVED and, depending on the
// decision, terminates the at-fault party's account, all in one
// transaction. A fault decision writes two audit rows: one for the
// termination, one for the resolution.
func (db *DB) ResolveReport(ctx context.Context, id string, decision models.ReportDecision, resolution, performedBy string) (*models.Report, error) {
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var status models.ReportStatus
		var studentID, managerID string
		err := tx.QueryRowContext(ctx,
			`SELECT status, student_id, manager_id FROM reports WHERE id = ?`,
			id).Scan(&status, &studentID, &managerID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: report %s", domain.ErrNotFound, id)
		}
		if err != nil {
			return storageErr("load report", err)
		}
		if status != models.ReportOpen {
			return fmt.Errorf("%w: report already resolved", domain.ErrInvalidState)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE reports SET status = ?, decision = ?, final_resolution = ?, resolved_by = ?, updated_at = ?
             WHERE id = ?`,
			models.ReportResolved, decision, resolution, performedBy, time.Now(), id); err != nil {
			return storageErr("resolve report", err)
		}

		switch decision {
		case models.DecisionStudentFault:
			if err := terminateProfileOwner(ctx, tx, "student_profiles", studentID,
				models.AuditStudentTerminated, resolution, performedBy); err != nil {
				return err
			}
		case models.DecisionManagerFault:
			if err := terminateProfileOwner(ctx, tx, "manager_profiles", managerID,
				models.AuditManagerTerminated, resolution, performedBy); err != nil {
				return err
			}
		case models.DecisionNone:
			// no account is affected
		}

		return appendAudit(ctx, tx, &models.AuditLog{
			Action:      fmt.Sprintf("%s_%s", models.AuditReportResolved, decision),
			PerformedBy: performedBy,
			TargetType:  "Report",
			TargetID:    id,
			Details:     resolution,
		})
	})
	if err != nil {
		return nil, err
	}
	return db.GetReport(ctx, id)
}

// terminateProfileOwner resolves a profile row to its user and flips
// is_terminated, auditing the termination.
func terminateProfileOwner(ctx context.Context, tx *sql.Tx, table, profileID, action, resolution, performedBy string) error {
	var userID string
	err := tx.QueryRowContext(ctx,
		`SELECT user_id FROM `+table+` WHERE id = ?`, profileID).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: profile %s", domain.ErrNotFound, profileID)
	}
	if err != nil {
		return storageErr("load profile owner", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET is_terminated = 1, updated_at = ? WHERE id = ?`,
		time.Now(), userID); err != nil {
		return storageErr("terminate account", err)
	}

	return appendAudit(ctx, tx, &models.AuditLog{
		Action:      action,
		PerformedBy: performedBy,
		TargetType:  "User",
		TargetID:    userID,
		Details:     fmt.Sprintf("Terminated due to report: %s", resolution),
	})
}

func (db *DB) queryReports(ctx context.Context, query string, args ...interface{}) ([]*models.Report, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query reports", err)
	}
	defer rows.Close()

	var reports []*models.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, storageErr("scan report", err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("query reports", err)
	}
	return reports, nil
}

func (db *DB) ListReportsByStudent(ctx context.Context, studentID string) ([]*models.Report, error) {
	return db.queryReports(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE student_id = ? ORDER BY created_at DESC`,
		studentID)
}

func (db *DB) ListReportsByManager(ctx context.Context, managerID string) ([]*models.Report, error) {
	return db.queryReports(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE manager_id = ? ORDER BY created_at DESC`,
		managerID)
}

func (db *DB) ListReports(ctx context.Context, status models.ReportStatus) ([]*models.Report, error) {
	if status == "" {
		return db.queryReports(ctx,
			`SELECT `+reportColumns+` FROM reports ORDER BY created_at DESC`)
	}
	return db.queryReports(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE status = ? ORDER BY created_at DESC`,
		status)
}
