package models

import "time"

// Conversation is unique per (student, manager) pair, created lazily on
// first contact.
type Conversation struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	ManagerID string    `json:"manager_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`
}
