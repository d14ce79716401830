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

// storageErr tags an infrastructure fault so callers can distinguish it
// from business failures via errors.Is(err, domain.ErrStorage).
func storageErr(op string, err error) error {
	return fmt.Errorf("failed to %s: %w", op, errors.Join(domain.ErrStorage, err))
}

func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = newID()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `INSERT INTO users (id, email, role, is_terminated, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query, user.ID, user.Email, user.Role, user.IsTerminated, now, now)
	if err != nil {
		return storageErr("create user", err)
	}
	return nil
}

func (db *DB) GetUser(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT id, email, role, is_terminated, created_at, updated_at FROM users WHERE id = ?`
	var user models.User
	err := db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.Role, &user.IsTerminated, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, storageErr("get user", err)
	}
	return &user, nil
}

func (db *DB) ListUsers(ctx context.Context, role models.Role) ([]*models.User, error) {
	query := `SELECT id, email, role, is_terminated, created_at, updated_at FROM users`
	args := []interface{}{}
	if role != "" {
		query += ` WHERE role = ?`
		args = append(args, role)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list users", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(&u.ID, &u.Email, &u.Role, &u.IsTerminated, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, storageErr("scan user", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list users", err)
	}
	return users, nil
}

// TerminateUser flips is_terminated and appends the audit row in one
// transaction. ADMIN accounts cannot be terminated.
func (db *DB) TerminateUser(ctx context.Context, userID, performedBy string) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		var role models.Role
		err := tx.QueryRowContext(ctx, `SELECT role FROM users WHERE id = ?`, userID).Scan(&role)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: user %s", domain.ErrNotFound, userID)
		}
		if err != nil {
			return storageErr("load user for termination", err)
		}
		if role == models.RoleAdmin {
			return fmt.Errorf("%w: cannot terminate admin", domain.ErrNotAuthorized)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET is_terminated = 1, updated_at = ? WHERE id = ?`,
			time.Now(), userID); err != nil {
			return storageErr("terminate user", err)
		}

		return appendAudit(ctx, tx, &models.AuditLog{
			Action:      models.AuditTerminateUser,
			PerformedBy: performedBy,
			TargetType:  "User",
			TargetID:    userID,
		})
	})
}

func (db *DB) CreateStudentProfile(ctx context.Context, profile *models.StudentProfile) error {
	if profile.ID == "" {
		profile.ID = newID()
	}
	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	query := `INSERT INTO student_profiles (id, user_id, full_name, institute, self_verified, current_hostel_id, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		profile.ID, profile.UserID, profile.FullName, profile.Institute,
		profile.SelfVerified, profile.CurrentHostelID, now, now)
	if err != nil {
		return storageErr("create student profile", err)
	}
	return nil
}

func scanStudentProfile(row *sql.Row) (*models.StudentProfile, error) {
	var p models.StudentProfile
	err := row.Scan(&p.ID, &p.UserID, &p.FullName, &p.Institute,
		&p.SelfVerified, &p.CurrentHostelID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const studentProfileColumns = `id, user_id, full_name, institute, self_verified, current_hostel_id, created_at, updated_at`

func (db *DB) GetStudentProfile(ctx context.Context, id string) (*models.StudentProfile, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+studentProfileColumns+` FROM student_profiles WHERE id = ?`, id)
	p, err := scanStudentProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: student profile %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, storageErr("get student profile", err)
	}
	return p, nil
}

func (db *DB) GetStudentProfileByUserID(ctx context.Context, userID string) (*models.StudentProfile, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+studentProfileColumns+` FROM student_profiles WHERE user_id = ?`, userID)
	p, err := scanStudentProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: student profile for user %s", domain.ErrNotFound, userID)
	}
	if err != nil {
		return nil, storageErr("get student profile", err)
	}
	return p, nil
}

// SelfVerifyStudent is one-shot: a second attempt fails with a
// precondition error.
func (db *DB) SelfVerifyStudent(ctx context.Context, userID, fullName, institute string) (*models.StudentProfile, error) {
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var verified bool
		err := tx.QueryRowContext(ctx,
			`SELECT self_verified FROM student_profiles WHERE user_id = ?`, userID).Scan(&verified)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: student profile for user %s", domain.ErrNotFound, userID)
		}
		if err != nil {
			return storageErr("load student profile", err)
		}
		if verified {
			return fmt.Errorf("%w: already verified", domain.ErrPreconditionFailed)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE student_profiles SET full_name = ?, institute = ?, self_verified = 1, updated_at = ? WHERE user_id = ?`,
			fullName, institute, time.Now(), userID)
		if err != nil {
			return storageErr("self-verify student", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return db.GetStudentProfileByUserID(ctx, userID)
}

func (db *DB) CreateManagerProfile(ctx context.Context, profile *models.ManagerProfile) error {
	if profile.ID == "" {
		profile.ID = newID()
	}
	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	query := `INSERT INTO manager_profiles (id, user_id, full_name, phone, verified, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		profile.ID, profile.UserID, profile.FullName, profile.Phone, profile.Verified, now, now)
	if err != nil {
		return storageErr("create manager profile", err)
	}
	return nil
}

const managerProfileColumns = `id, user_id, full_name, phone, verified, created_at, updated_at`

func scanManagerProfile(row *sql.Row) (*models.ManagerProfile, error) {
	var p models.ManagerProfile
	err := row.Scan(&p.ID, &p.UserID, &p.FullName, &p.Phone, &p.Verified, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (db *DB) GetManagerProfile(ctx context.Context, id string) (*models.ManagerProfile, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+managerProfileColumns+` FROM manager_profiles WHERE id = ?`, id)
	p, err := scanManagerProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: manager profile %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, storageErr("get manager profile", err)
	}
	return p, nil
}

func (db *DB) GetManagerProfileByUserID(ctx context.Context, userID string) (*models.ManagerProfile, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+managerProfileColumns+` FROM manager_profiles WHERE user_id = ?`, userID)
	p, err := scanManagerProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: manager profile for user %s", domain.ErrNotFound, userID)
	}
	if err != nil {
		return nil, storageErr("get manager profile", err)
	}
	return p, nil
}
