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

const conversationColumns = `id, student_id, manager_id, created_at, updated_at`

func scanConversation(row rowScanner) (*models.Conversation, error) {
	var c models.Conversation
	err := row.Scan(&c.ID, &c.StudentID, &c.ManagerID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// EnsureConversation returns the existing (student, manager) conversation
// or lazily creates it; the unique index makes concurrent creation
// first-writer-wins.
func (db *DB) EnsureConversation(ctx context.Context, studentID, managerID string) (*models.Conversation, error) {
	var conv *models.Conversation
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT `+conversationColumns+` FROM conversations WHERE student_id = ? AND manager_id = ?`,
			studentID, managerID)
		existing, err := scanConversation(row)
		if err == nil {
			conv = existing
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return storageErr("load conversation", err)
		}

		now := time.Now()
		created := &models.Conversation{
			ID:        newID(),
			StudentID: studentID,
			ManagerID: managerID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO conversations (`+conversationColumns+`) VALUES (?, ?, ?, ?, ?)`,
			created.ID, created.StudentID, created.ManagerID, now, now); err != nil {
			return storageErr("insert conversation", err)
		}
		conv = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conv, nil
}

func (db *DB) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE id = ?`, id)
	c, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: conversation %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, storageErr("get conversation", err)
	}
	return c, nil
}

func (db *DB) CreateMessage(ctx context.Context, message *models.Message) error {
	if message.ID == "" {
		message.ID = newID()
	}
	message.CreatedAt = time.Now()

	return db.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE conversations SET updated_at = ? WHERE id = ?`,
			message.CreatedAt, message.ConversationID)
		if err != nil {
			return storageErr("touch conversation", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return fmt.Errorf("%w: conversation %s", domain.ErrNotFound, message.ConversationID)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO messages (id, conversation_id, sender_id, text, created_at)
             VALUES (?, ?, ?, ?, ?)`,
			message.ID, message.ConversationID, message.SenderID,
			message.Text, message.CreatedAt); err != nil {
			return storageErr("insert message", err)
		}
		return nil
	})
}

func (db *DB) queryConversations(ctx context.Context, query string, args ...interface{}) ([]*models.Conversation, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query conversations", err)
	}
	defer rows.Close()

	var conversations []*models.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, storageErr("scan conversation", err)
		}
		conversations = append(conversations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("query conversations", err)
	}
	return conversations, nil
}

func (db *DB) ListConversationsByStudent(ctx context.Context, studentID string) ([]*models.Conversation, error) {
	return db.queryConversations(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE student_id = ? ORDER BY updated_at DESC`,
		studentID)
}

func (db *DB) ListConversationsByManager(ctx context.Context, managerID string) ([]*models.Conversation, error) {
	return db.queryConversations(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE manager_id = ? ORDER BY updated_at DESC`,
		managerID)
}

func (db *DB) ListConversations(ctx context.Context) ([]*models.Conversation, error) {
	return db.queryConversations(ctx,
		`SELECT `+conversationColumns+` FROM conversations ORDER BY updated_at DESC`)
}

func (db *DB) ListMessages(ctx context.Context, conversationID string) ([]*models.Message, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, conversation_id, sender_id, text, created_at
         FROM messages WHERE conversation_id = ? ORDER BY created_at ASC`,
		conversationID)
	if err != nil {
		return nil, storageErr("query messages", err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		m := &models.Message{}
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Text, &m.CreatedAt); err != nil {
			return nil, storageErr("scan message", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("query messages", err)
	}
	return messages, nil
}
