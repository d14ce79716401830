package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"hostelhub/internal/domain"
	"hostelhub/internal/events"
	"hostelhub/internal/models"
)

type ChatService struct {
	store       domain.Store
	limiter     domain.RateLimiter
	eventBus    domain.EventPublisher
	msgLimit    int
	limitWindow time.Duration
	logger      *zerolog.Logger
}

func NewChatService(store domain.Store, limiter domain.RateLimiter, eventBus domain.EventPublisher, msgLimit, limitWindowSeconds int, logger *zerolog.Logger) *ChatService {
	if msgLimit <= 0 {
		msgLimit = models.ChatRateLimitMessages
	}
	if limitWindowSeconds <= 0 {
		limitWindowSeconds = models.ChatRateLimitWindow
	}
	return &ChatService{
		store:       store,
		limiter:     limiter,
		eventBus:    eventBus,
		msgLimit:    msgLimit,
		limitWindow: time.Duration(limitWindowSeconds) * time.Second,
		logger:      logger,
	}
}

// StartConversation returns the unique (student, manager) conversation,
// creating it on first contact.
func (s *ChatService) StartConversation(ctx context.Context, studentUserID, managerID string) (*models.Conversation, error) {
	if _, err := activeUser(ctx, s.store, studentUserID); err != nil {
		return nil, err
	}
	profile, err := s.store.GetStudentProfileByUserID(ctx, studentUserID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetManagerProfile(ctx, managerID); err != nil {
		return nil, err
	}
	return s.store.EnsureConversation(ctx, profile.ID, managerID)
}

// SendMessage persists a message from either participant. Sends are
// flood-guarded per sender; delivery is pull-based, there is no push.
func (s *ChatService) SendMessage(ctx context.Context, senderUserID, conversationID, text string) (*models.Message, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: message text is required", domain.ErrPreconditionFailed)
	}
	if _, err := activeUser(ctx, s.store, senderUserID); err != nil {
		return nil, err
	}
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	senderProfileID, err := s.participantProfile(ctx, senderUserID, conv)
	if err != nil {
		return nil, err
	}

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, senderUserID, s.msgLimit, s.limitWindow)
		if err != nil {
			// limiter outage must not block chat
			s.logger.Error().Err(err).Str("sender", senderUserID).Msg("rate limiter error")
		} else if !allowed {
			return nil, fmt.Errorf("%w: too many messages, slow down", domain.ErrRateLimited)
		}
	}

	message := &models.Message{
		ConversationID: conversationID,
		SenderID:       senderProfileID,
		Text:           text,
	}
	if err := s.store.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	if s.eventBus != nil {
		payload := events.WorkflowEventPayload{EntityID: message.ID, ActorID: senderUserID}
		if err := s.eventBus.PublishJSON(events.EventMessageSent, payload); err != nil {
			s.logger.Error().Err(err).Str("message_id", message.ID).Msg("publish event error")
		}
	}
	return message, nil
}

// participantProfile maps the sending user onto the conversation side
// they own, rejecting outsiders.
func (s *ChatService) participantProfile(ctx context.Context, userID string, conv *models.Conversation) (string, error) {
	if student, err := s.store.GetStudentProfileByUserID(ctx, userID); err == nil && student.ID == conv.StudentID {
		return student.ID, nil
	}
	if manager, err := s.store.GetManagerProfileByUserID(ctx, userID); err == nil && manager.ID == conv.ManagerID {
		return manager.ID, nil
	}
	return "", fmt.Errorf("%w: not a participant of this conversation", domain.ErrNotAuthorized)
}

func (s *ChatService) ListMessages(ctx context.Context, userID, conversationID string) ([]*models.Message, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if _, err := s.participantProfile(ctx, userID, conv); err != nil {
		user, userErr := s.store.GetUser(ctx, userID)
		if userErr != nil || !user.Role.IsAdmin() {
			return nil, err
		}
	}
	return s.store.ListMessages(ctx, conversationID)
}

func (s *ChatService) ListMyConversations(ctx context.Context, userID string) ([]*models.Conversation, error) {
	user, err := activeUser(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	switch user.Role {
	case models.RoleStudent:
		profile, err := s.store.GetStudentProfileByUserID(ctx, userID)
		if err != nil {
			return nil, err
		}
		return s.store.ListConversationsByStudent(ctx, profile.ID)
	case models.RoleManager:
		profile, err := s.store.GetManagerProfileByUserID(ctx, userID)
		if err != nil {
			return nil, err
		}
		return s.store.ListConversationsByManager(ctx, profile.ID)
	default:
		return s.store.ListConversations(ctx)
	}
}
