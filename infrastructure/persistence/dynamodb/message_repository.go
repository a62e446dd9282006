package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"go.uber.org/zap"

	"holdthatthought-backend/application/ports"
	"holdthatthought-backend/domain/entities"
	apperrors "holdthatthought-backend/pkg/errors"
)

// ConversationRepository implements ports.ConversationRepository using DynamoDB.
// A conversation stores one META row plus one MEMBER row per participant; the
// MEMBER rows carry GSI1 keys so a user's conversations can be listed without
// scanning.
type ConversationRepository struct {
	store  *Store
	logger *zap.Logger
}

// NewConversationRepository creates a new ConversationRepository
func NewConversationRepository(store *Store, logger *zap.Logger) ports.ConversationRepository {
	return &ConversationRepository{store: store, logger: logger}
}

const conversationMetaSK = "META"

type conversationItem struct {
	PK             string   `dynamodbav:"PK"` // CONV#<conversationId>
	SK             string   `dynamodbav:"SK"` // META
	EntityType     string   `dynamodbav:"EntityType"`
	ConversationID string   `dynamodbav:"conversationId"`
	Subject        string   `dynamodbav:"subject,omitempty"`
	ParticipantIDs []string `dynamodbav:"participantIds"`
	CreatedBy      string   `dynamodbav:"createdBy"`
	LastMessageAt  string   `dynamodbav:"lastMessageAt,omitempty"`
	CreatedAt      string   `dynamodbav:"createdAt"`
}

type membershipItem struct {
	PK             string `dynamodbav:"PK"` // CONV#<conversationId>
	SK             string `dynamodbav:"SK"` // MEMBER#<userId>
	GSI1PK         string `dynamodbav:"GSI1PK"`
	GSI1SK         string `dynamodbav:"GSI1SK"`
	EntityType     string `dynamodbav:"EntityType"`
	ConversationID string `dynamodbav:"conversationId"`
	UserID         string `dynamodbav:"userId"`
	JoinedAt       string `dynamodbav:"joinedAt"`
}

type messageItem struct {
	PK             string `dynamodbav:"PK"` // CONV#<conversationId>
	SK             string `dynamodbav:"SK"` // MSG#<sentAt>#<messageId>
	EntityType     string `dynamodbav:"EntityType"`
	ConversationID string `dynamodbav:"conversationId"`
	MessageID      string `dynamodbav:"messageId"`
	SenderID       string `dynamodbav:"senderId"`
	SenderName     string `dynamodbav:"senderName"`
	MessageText    string `dynamodbav:"messageText"`
	SentAt         string `dynamodbav:"sentAt"`
}

func toConversationItem(c *entities.Conversation) conversationItem {
	item := conversationItem{
		PK:             PrefixConv + c.ConversationID,
		SK:             conversationMetaSK,
		EntityType:     "CONVERSATION",
		ConversationID: c.ConversationID,
		Subject:        c.Subject,
		ParticipantIDs: c.ParticipantIDs,
		CreatedBy:      c.CreatedBy,
		CreatedAt:      c.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if !c.LastMessageAt.IsZero() {
		item.LastMessageAt = c.LastMessageAt.UTC().Format(time.RFC3339Nano)
	}
	return item
}

func fromConversationItem(item conversationItem) *entities.Conversation {
	c := &entities.Conversation{
		ConversationID: item.ConversationID,
		Subject:        item.Subject,
		ParticipantIDs: item.ParticipantIDs,
		CreatedBy:      item.CreatedBy,
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339Nano, item.CreatedAt)
	if item.LastMessageAt != "" {
		c.LastMessageAt, _ = time.Parse(time.RFC3339Nano, item.LastMessageAt)
	}
	return c
}

func toMessageItem(m *entities.Message) messageItem {
	sentAt := m.SentAt.UTC().Format(time.RFC3339Nano)
	return messageItem{
		PK:             PrefixConv + m.ConversationID,
		SK:             fmt.Sprintf("%s%s#%s", PrefixMsg, sentAt, m.MessageID),
		EntityType:     "MESSAGE",
		ConversationID: m.ConversationID,
		MessageID:      m.MessageID,
		SenderID:       m.SenderID,
		SenderName:     m.SenderName,
		MessageText:    m.Text,
		SentAt:         sentAt,
	}
}

func fromMessageItem(item messageItem) *entities.Message {
	m := &entities.Message{
		ConversationID: item.ConversationID,
		MessageID:      item.MessageID,
		SenderID:       item.SenderID,
		SenderName:     item.SenderName,
		Text:           item.MessageText,
	}
	m.SentAt, _ = time.Parse(time.RFC3339Nano, item.SentAt)
	return m
}

// Create writes the conversation META row plus one MEMBER row per participant
func (r *ConversationRepository) Create(ctx context.Context, conv *entities.Conversation) error {
	cond := expression.AttributeNotExists(expression.Name("PK"))
	err := r.store.PutConditional(ctx, toConversationItem(conv), cond)
	if errors.Is(err, ErrConditionFailed) {
		return apperrors.NewConflictError("conversation already exists")
	}
	if err != nil {
		return apperrors.NewDatabaseError("create conversation", err)
	}

	joinedAt := conv.CreatedAt.UTC().Format(time.RFC3339Nano)
	for _, userID := range conv.ParticipantIDs {
		member := membershipItem{
			PK:             PrefixConv + conv.ConversationID,
			SK:             PrefixMember + userID,
			GSI1PK:         PrefixUser + userID,
			GSI1SK:         PrefixConv + conv.ConversationID,
			EntityType:     "MEMBERSHIP",
			ConversationID: conv.ConversationID,
			UserID:         userID,
			JoinedAt:       joinedAt,
		}
		if err := r.store.Put(ctx, member); err != nil {
			return apperrors.NewDatabaseError("create conversation membership", err)
		}
	}

	r.logger.Debug("Conversation created",
		zap.String("conversationId", conv.ConversationID),
		zap.Int("participants", len(conv.ParticipantIDs)),
	)
	return nil
}

// GetByID loads the conversation META row
func (r *ConversationRepository) GetByID(ctx context.Context, conversationID string) (*entities.Conversation, error) {
	var item conversationItem
	err := r.store.Get(ctx, PrefixConv+conversationID, conversationMetaSK, &item)
	if errors.Is(err, ErrItemNotFound) {
		return nil, apperrors.NewNotFoundError("conversation")
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("get conversation", err)
	}
	return fromConversationItem(item), nil
}

// ListByUser returns the conversations a user belongs to, most recent message first
func (r *ConversationRepository) ListByUser(ctx context.Context, userID string) ([]*entities.Conversation, error) {
	var memberships []membershipItem
	if err := r.store.QueryIndexPrefix(ctx, PrefixUser+userID, PrefixConv, &memberships); err != nil {
		return nil, apperrors.NewDatabaseError("list user conversations", err)
	}

	conversations := make([]*entities.Conversation, 0, len(memberships))
	for _, m := range memberships {
		conv, err := r.GetByID(ctx, m.ConversationID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		conversations = append(conversations, conv)
	}

	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].LastMessageAt.After(conversations[j].LastMessageAt)
	})
	return conversations, nil
}

// AppendMessage writes the message row and bumps lastMessageAt on the META row
func (r *ConversationRepository) AppendMessage(ctx context.Context, msg *entities.Message) error {
	if err := r.store.Put(ctx, toMessageItem(msg)); err != nil {
		return apperrors.NewDatabaseError("append message", err)
	}

	update := expression.Set(
		expression.Name("lastMessageAt"),
		expression.Value(msg.SentAt.UTC().Format(time.RFC3339Nano)),
	)
	cond := expression.AttributeExists(expression.Name("PK"))
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return apperrors.NewDatabaseError("append message", err)
	}

	err = r.store.Update(ctx, PrefixConv+msg.ConversationID, conversationMetaSK, expr)
	if errors.Is(err, ErrConditionFailed) {
		return apperrors.NewNotFoundError("conversation")
	}
	if err != nil {
		return apperrors.NewDatabaseError("append message", err)
	}
	return nil
}

// ListMessages returns a conversation's messages, oldest first. The sort key
// embeds the RFC 3339 timestamp so DynamoDB returns them already ordered.
// A positive limit keeps only the most recent messages.
func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID string, limit int) ([]*entities.Message, error) {
	var items []messageItem
	if err := r.store.QueryPrefix(ctx, PrefixConv+conversationID, PrefixMsg, &items); err != nil {
		return nil, apperrors.NewDatabaseError("list messages", err)
	}

	if limit > 0 && len(items) > limit {
		items = items[len(items)-limit:]
	}

	messages := make([]*entities.Message, 0, len(items))
	for _, item := range items {
		messages = append(messages, fromMessageItem(item))
	}
	return messages, nil
}
