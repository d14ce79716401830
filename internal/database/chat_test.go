package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostelhub/internal/domain"
	"hostelhub/internal/models"
)

func TestEnsureConversationIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	student := seedStudent(t, db, "s@test.com")
	manager := seedManager(t, db, "m@test.com", true)

	first, err := db.EnsureConversation(ctx, student.ID, manager.ID)
	require.NoError(t, err)

	second, err := db.EnsureConversation(ctx, student.ID, manager.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	conversations, err := db.ListConversations(ctx)
	require.NoError(t, err)
	assert.Len(t, conversations, 1)
}

func TestCreateMessage(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	student := seedStudent(t, db, "s@test.com")
	manager := seedManager(t, db, "m@test.com", true)
	conv, err := db.EnsureConversation(ctx, student.ID, manager.ID)
	require.NoError(t, err)

	msg := &models.Message{ConversationID: conv.ID, SenderID: student.ID, Text: "is a room free next month?"}
	require.NoError(t, db.CreateMessage(ctx, msg))
	require.NotEmpty(t, msg.ID)

	reply := &models.Message{ConversationID: conv.ID, SenderID: manager.ID, Text: "yes, two rooms"}
	require.NoError(t, db.CreateMessage(ctx, reply))

	messages, err := db.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, msg.ID, messages[0].ID)
	assert.Equal(t, reply.ID, messages[1].ID)
}

func TestCreateMessageMissingConversation(t *testing.T) {
	db := newTestDB(t)

	err := db.CreateMessage(context.Background(), &models.Message{
		ConversationID: "missing", SenderID: "x", Text: "hello",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListConversationsBySide(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	s1 := seedStudent(t, db, "s1@test.com")
	s2 := seedStudent(t, db, "s2@test.com")
	manager := seedManager(t, db, "m@test.com", true)

	_, err := db.EnsureConversation(ctx, s1.ID, manager.ID)
	require.NoError(t, err)
	_, err = db.EnsureConversation(ctx, s2.ID, manager.ID)
	require.NoError(t, err)

	forManager, err := db.ListConversationsByManager(ctx, manager.ID)
	require.NoError(t, err)
	assert.Len(t, forManager, 2)

	forStudent, err := db.ListConversationsByStudent(ctx, s1.ID)
	require.NoError(t, err)
	assert.Len(t, forStudent, 1)
}
