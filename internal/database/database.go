package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// DB is the SQLite-backed store. A single connection is kept so that every
// transaction observes fully committed state and concurrent guarded
// operations serialize into a first-writer-wins order.
type DB struct {
	*sql.DB
	log zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(sqlDB); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log := logger.With().Str("component", "database").Logger()
	log.Info().Str("path", path).Msg("database initialized")

	return &DB{DB: sqlDB, log: log}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            email TEXT UNIQUE NOT NULL,
            role TEXT NOT NULL,
            is_terminated BOOLEAN NOT NULL DEFAULT 0,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS student_profiles (
            id TEXT PRIMARY KEY,
            user_id TEXT UNIQUE NOT NULL,
            full_name TEXT,
            institute TEXT,
            self_verified BOOLEAN NOT NULL DEFAULT 0,
            current_hostel_id TEXT NOT NULL DEFAULT '',
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS manager_profiles (
            id TEXT PRIMARY KEY,
            user_id TEXT UNIQUE NOT NULL,
            full_name TEXT,
            phone TEXT,
            verified BOOLEAN NOT NULL DEFAULT 0,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS hostels (
            id TEXT PRIMARY KEY,
            manager_id TEXT NOT NULL,
            name TEXT NOT NULL,
            city TEXT,
            address TEXT,
            hostel_type TEXT NOT NULL,
            hostel_for TEXT,
            total_rooms INTEGER NOT NULL,
            available_rooms INTEGER NOT NULL,
            persons_in_room INTEGER NOT NULL DEFAULT 1,
            room_price INTEGER NOT NULL DEFAULT 0,
            price_per_head_shared INTEGER NOT NULL DEFAULT 0,
            price_per_head_full_room INTEGER NOT NULL DEFAULT 0,
            facilities TEXT,
            rules TEXT,
            average_rating REAL NOT NULL DEFAULT 0,
            review_count INTEGER NOT NULL DEFAULT 0,
            is_active BOOLEAN NOT NULL DEFAULT 1,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL,
            CHECK (available_rooms >= 0 AND available_rooms <= total_rooms)
        )`,
		`CREATE TABLE IF NOT EXISTS bookings (
            id TEXT PRIMARY KEY,
            student_id TEXT NOT NULL,
            hostel_id TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'PENDING',
            amount INTEGER NOT NULL,
            transfer_image TEXT,
            transfer_date TEXT,
            transfer_time TEXT,
            from_account TEXT,
            to_account TEXT,
            refund_image TEXT NOT NULL DEFAULT '',
            refund_date TEXT NOT NULL DEFAULT '',
            refund_time TEXT NOT NULL DEFAULT '',
            kick_reason TEXT NOT NULL DEFAULT '',
            kicked_by TEXT NOT NULL DEFAULT '',
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS reservations (
            id TEXT PRIMARY KEY,
            student_id TEXT NOT NULL,
            hostel_id TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'PENDING',
            message TEXT,
            reject_reason TEXT NOT NULL DEFAULT '',
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS monthly_fees (
            id TEXT PRIMARY KEY,
            manager_id TEXT NOT NULL,
            hostel_id TEXT NOT NULL,
            month TEXT NOT NULL,
            student_count INTEGER NOT NULL,
            total_revenue INTEGER NOT NULL,
            fee_amount INTEGER NOT NULL,
            payment_proof_image TEXT,
            status TEXT NOT NULL DEFAULT 'PENDING',
            reviewed_by TEXT NOT NULL DEFAULT '',
            submitted_at DATETIME NOT NULL,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL,
            UNIQUE(manager_id, hostel_id, month)
        )`,
		`CREATE TABLE IF NOT EXISTS reports (
            id TEXT PRIMARY KEY,
            booking_id TEXT NOT NULL,
            student_id TEXT NOT NULL,
            manager_id TEXT NOT NULL,
            description TEXT,
            status TEXT NOT NULL DEFAULT 'OPEN',
            decision TEXT NOT NULL DEFAULT '',
            final_resolution TEXT NOT NULL DEFAULT '',
            resolved_by TEXT NOT NULL DEFAULT '',
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS verifications (
            id TEXT PRIMARY KEY,
            manager_id TEXT NOT NULL,
            owner_name TEXT,
            city TEXT,
            address TEXT,
            hostel_names TEXT,
            hostel_for TEXT,
            building_image TEXT,
            accepted_rules BOOLEAN NOT NULL DEFAULT 0,
            status TEXT NOT NULL DEFAULT 'PENDING',
            admin_comment TEXT NOT NULL DEFAULT '',
            reviewed_by TEXT NOT NULL DEFAULT '',
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS reviews (
            id TEXT PRIMARY KEY,
            booking_id TEXT NOT NULL,
            hostel_id TEXT NOT NULL,
            rating INTEGER NOT NULL,
            comment TEXT,
            created_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS conversations (
            id TEXT PRIMARY KEY,
            student_id TEXT NOT NULL,
            manager_id TEXT NOT NULL,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL,
            UNIQUE(student_id, manager_id)
        )`,
		`CREATE TABLE IF NOT EXISTS messages (
            id TEXT PRIMARY KEY,
            conversation_id TEXT NOT NULL,
            sender_id TEXT NOT NULL,
            text TEXT NOT NULL,
            created_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS audit_log (
            id TEXT PRIMARY KEY,
            action TEXT NOT NULL,
            performed_by TEXT NOT NULL,
            target_type TEXT NOT NULL,
            target_id TEXT NOT NULL,
            details TEXT NOT NULL DEFAULT '',
            created_at DATETIME NOT NULL
        )`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_student ON bookings(student_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_hostel ON bookings(hostel_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_pair ON reservations(student_id, hostel_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_booking ON reports(booking_id)`,
		`CREATE INDEX IF NOT EXISTS idx_verifications_manager ON verifications(manager_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id)`,
		`CREATE INDEX IF NOT EXISTS idx_hostels_manager ON hostels(manager_id)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_target ON audit_log(target_type, target_id)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// withTx runs fn inside a single transaction. Commit happens only when fn
// returns nil; any error rolls the whole operation back.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func newID() string {
	return uuid.NewString()
}

func (db *DB) Close() error {
	return db.DB.Close()
}
