package database

import (
	"context"
	"database/sql"
	"time"

	"hostelhub/internal/models"
)

// appendAudit writes an audit row inside the caller's transaction so the
// trail commits or rolls back with the state change it records.
func appendAudit(ctx context.Context, tx *sql.Tx, entry *models.AuditLog) error {
	if entry.ID == "" {
		entry.ID = newID()
	}
	entry.CreatedAt = time.Now()
	_, err := tx.ExecContext(ctx,
		`INSERT INTO audit_log (id, action, performed_by, target_type, target_id, details, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Action, entry.PerformedBy, entry.TargetType,
		entry.TargetID, entry.Details, entry.CreatedAt)
	if err != nil {
		return storageErr("append audit entry", err)
	}
	return nil
}

const auditColumns = `id, action, performed_by, target_type, target_id, details, created_at`

func (db *DB) queryAudit(ctx context.Context, query string, args ...interface{}) ([]*models.AuditLog, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query audit log", err)
	}
	defer rows.Close()

	var entries []*models.AuditLog
	for rows.Next() {
		e := &models.AuditLog{}
		if err := rows.Scan(&e.ID, &e.Action, &e.PerformedBy, &e.TargetType,
			&e.TargetID, &e.Details, &e.CreatedAt); err != nil {
			return nil, storageErr("scan audit entry", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("query audit log", err)
	}
	return entries, nil
}

func (db *DB) ListAudit(ctx context.Context, limit int) ([]*models.AuditLog, error) {
	if limit <= 0 {
		limit = 100
	}
	return db.queryAudit(ctx,
		`SELECT `+auditColumns+` FROM audit_log ORDER BY created_at DESC LIMIT ?`, limit)
}

func (db *DB) ListAuditByTarget(ctx context.Context, targetType, targetID string) ([]*models.AuditLog, error) {
	return db.queryAudit(ctx,
		`SELECT `+auditColumns+` FROM audit_log WHERE target_type = ? AND target_id = ? ORDER BY created_at ASC`,
		targetType, targetID)
}
