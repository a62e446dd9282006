package entities

import (
	"time"

	"github.com/google/uuid"

	apperrors "holdthatthought-backend/pkg/errors"
	"holdthatthought-backend/pkg/utils"
)

const maxMessageLength = 4000

// Conversation groups direct messages between a fixed set of participants
type Conversation struct {
	ConversationID string    `json:"conversationId"`
	Subject        string    `json:"subject,omitempty"`
	ParticipantIDs []string  `json:"participantIds"`
	CreatedBy      string    `json:"createdBy"`
	LastMessageAt  time.Time `json:"lastMessageAt,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// NewConversation creates a conversation; the creator is always a participant
func NewConversation(createdBy, subject string, participantIDs []string) (*Conversation, error) {
	seen := map[string]struct{}{createdBy: {}}
	participants := []string{createdBy}
	for _, id := range participantIDs {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		participants = append(participants, id)
	}

	if len(participants) < 2 {
		return nil, apperrors.NewValidationError("conversation needs at least one other participant")
	}

	return &Conversation{
		ConversationID: uuid.New().String(),
		Subject:        utils.SanitizeText(subject),
		ParticipantIDs: participants,
		CreatedBy:      createdBy,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// HasParticipant reports membership
func (c *Conversation) HasParticipant(userID string) bool {
	for _, id := range c.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Message is a single direct message inside a conversation
type Message struct {
	ConversationID string    `json:"conversationId"`
	MessageID      string    `json:"messageId"`
	SenderID       string    `json:"senderId"`
	SenderName     string    `json:"senderName"`
	Text           string    `json:"messageText"`
	SentAt         time.Time `json:"sentAt"`
}

// NewMessage creates a message with sanitized text
func NewMessage(conversationID, senderID, senderName, text string) (*Message, error) {
	clean := utils.SanitizeText(text)
	if clean == "" {
		return nil, apperrors.NewValidationError("message text is empty after sanitization")
	}
	if len(clean) > maxMessageLength {
		return nil, apperrors.NewValidationError("message text exceeds maximum length")
	}

	return &Message{
		ConversationID: conversationID,
		MessageID:      uuid.New().String(),
		SenderID:       senderID,
		SenderName:     senderName,
		Text:           clean,
		SentAt:         time.Now().UTC(),
	}, nil
}
