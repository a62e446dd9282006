package services

import (
	"context"

	"go.uber.org/zap"

	"holdthatthought-backend/application/ports"
	"holdthatthought-backend/domain/entities"
	"holdthatthought-backend/domain/events"
	apperrors "holdthatthought-backend/pkg/errors"
)

// MessageService implements direct messaging between family members
type MessageService struct {
	conversations ports.ConversationRepository
	eventBus      ports.EventBus
	logger        *zap.Logger
}

// NewMessageService creates a new message service
func NewMessageService(conversations ports.ConversationRepository, eventBus ports.EventBus, logger *zap.Logger) *MessageService {
	return &MessageService{conversations: conversations, eventBus: eventBus, logger: logger}
}

// StartConversation creates a conversation between the creator and the given
// participants
func (s *MessageService) StartConversation(ctx context.Context, createdBy, subject string, participantIDs []string) (*entities.Conversation, error) {
	conv, err := entities.NewConversation(createdBy, subject, participantIDs)
	if err != nil {
		return nil, err
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// ListConversations returns the caller's conversations
func (s *MessageService) ListConversations(ctx context.Context, userID string) ([]*entities.Conversation, error) {
	return s.conversations.ListByUser(ctx, userID)
}

// GetConversation returns one conversation; membership is required
func (s *MessageService) GetConversation(ctx context.Context, conversationID, userID string) (*entities.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, apperrors.NewForbiddenError("not a participant of this conversation")
	}
	return conv, nil
}

// Send posts a message into a conversation; membership is required
func (s *MessageService) Send(ctx context.Context, conversationID, senderID, senderName, text string) (*entities.Message, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(senderID) {
		return nil, apperrors.NewForbiddenError("not a participant of this conversation")
	}

	msg, err := entities.NewMessage(conversationID, senderID, senderName, text)
	if err != nil {
		return nil, err
	}
	if err := s.conversations.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}

	if s.eventBus != nil {
		event := events.NewMessageSent(conversationID, msg.MessageID, senderID)
		if err := s.eventBus.Publish(ctx, event); err != nil {
			s.logger.Warn("Failed to publish domain event",
				zap.String("eventType", event.GetEventType()),
				zap.Error(err),
			)
		}
	}
	return msg, nil
}

// ListMessages returns a conversation's messages; membership is required
func (s *MessageService) ListMessages(ctx context.Context, conversationID, userID string, limit int) ([]*entities.Message, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, apperrors.NewForbiddenError("not a participant of this conversation")
	}
	return s.conversations.ListMessages(ctx, conversationID, limit)
}
