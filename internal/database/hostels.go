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

const hostelColumns = `id, manager_id, name, city, address, hostel_type, hostel_for,
       total_rooms, available_rooms, persons_in_room, room_price,
       price_per_head_shared, price_per_head_full_room, facilities, rules,
       average_rating, review_count, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanHostel(row rowScanner) (*models.Hostel, error) {
	var h models.Hostel
	err := row.Scan(
		&h.ID, &h.ManagerID, &h.Name, &h.City, &h.Address, &h.HostelType, &h.HostelFor,
		&h.TotalRooms, &h.AvailableRooms, &h.PersonsInRoom, &h.RoomPrice,
		&h.PricePerHeadShared, &h.PricePerHeadFullRoom, &h.Facilities, &h.Rules,
		&h.AverageRating, &h.ReviewCount, &h.IsActive, &h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (db *DB) CreateHostel(ctx context.Context, hostel *models.Hostel) error {
	if hostel.ID == "" {
		hostel.ID = newID()
	}
	now := time.Now()
	hostel.CreatedAt = now
	hostel.UpdatedAt = now

	query := `INSERT INTO hostels (` + hostelColumns + `)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		hostel.ID, hostel.ManagerID, hostel.Name, hostel.City, hostel.Address,
		hostel.HostelType, hostel.HostelFor, hostel.TotalRooms, hostel.AvailableRooms,
		hostel.PersonsInRoom, hostel.RoomPrice, hostel.PricePerHeadShared,
		hostel.PricePerHeadFullRoom, hostel.Facilities, hostel.Rules,
		hostel.AverageRating, hostel.ReviewCount, hostel.IsActive, now, now)
	if err != nil {
		return storageErr("create hostel", err)
	}
	return nil
}

func (db *DB) GetHostel(ctx context.Context, id string) (*models.Hostel, error) {
	row := db.QueryRowContext(ctx, `SELECT `+hostelColumns+` FROM hostels WHERE id = ?`, id)
	h, err := scanHostel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: hostel %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, storageErr("get hostel", err)
	}
	return h, nil
}

func (db *DB) UpdateHostel(ctx context.Context, hostel *models.Hostel) error {
	query := `UPDATE hostels SET name = ?, city = ?, address = ?, hostel_for = ?,
              persons_in_room = ?, room_price = ?, price_per_head_shared = ?,
              price_per_head_full_room = ?, facilities = ?, rules = ?, updated_at = ?
              WHERE id = ?`
	result, err := db.ExecContext(ctx, query,
		hostel.Name, hostel.City, hostel.Address, hostel.HostelFor,
		hostel.PersonsInRoom, hostel.RoomPrice, hostel.PricePerHeadShared,
		hostel.PricePerHeadFullRoom, hostel.Facilities, hostel.Rules,
		time.Now(), hostel.ID)
	if err != nil {
		return storageErr("update hostel", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("%w: hostel %s", domain.ErrNotFound, hostel.ID)
	}
	return nil
}

func (db *DB) DeactivateHostel(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE hostels SET is_active = 0, updated_at = ? WHERE id = ?`, time.Now(), id)
	if err != nil {
		return storageErr("deactivate hostel", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("%w: hostel %s", domain.ErrNotFound, id)
	}
	return nil
}

func (db *DB) queryHostels(ctx context.Context, query string, args ...interface{}) ([]*models.Hostel, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query hostels", err)
	}
	defer rows.Close()

	var hostels []*models.Hostel
	for rows.Next() {
		h, err := scanHostel(rows)
		if err != nil {
			return nil, storageErr("scan hostel", err)
		}
		hostels = append(hostels, h)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("query hostels", err)
	}
	return hostels, nil
}

func (db *DB) ListHostelsByManager(ctx context.Context, managerID string) ([]*models.Hostel, error) {
	return db.queryHostels(ctx,
		`SELECT `+hostelColumns+` FROM hostels WHERE manager_id = ? ORDER BY created_at DESC`,
		managerID)
}

func (db *DB) SearchHostels(ctx context.Context, filter domain.HostelFilter) ([]*models.Hostel, error) {
	query := `SELECT ` + hostelColumns + ` FROM hostels WHERE is_active = 1`
	args := []interface{}{}
	if filter.City != "" {
		query += ` AND city LIKE ?`
		args = append(args, "%"+filter.City+"%")
	}
	if filter.HostelType != "" {
		query += ` AND hostel_type = ?`
		args = append(args, filter.HostelType)
	}
	if filter.HostelFor != "" {
		query += ` AND hostel_for = ?`
		args = append(args, filter.HostelFor)
	}
	query += ` ORDER BY average_rating DESC`
	return db.queryHostels(ctx, query, args...)
}

func (db *DB) ListHostels(ctx context.Context) ([]*models.Hostel, error) {
	return db.queryHostels(ctx,
		`SELECT `+hostelColumns+` FROM hostels ORDER BY created_at DESC`)
}
