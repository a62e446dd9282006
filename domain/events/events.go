package events

import "time"

// SourceBackend is the EventBridge source attribute for this service
const SourceBackend = "holdthatthought.backend"

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregateId"`
	EventType   string    `json:"eventType"`
	Timestamp   time.Time `json:"timestamp"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }

// CommentCreated is raised when a user comments on an item
type CommentCreated struct {
	BaseEvent
	ItemID    string `json:"itemId"`
	CommentID string `json:"commentId"`
	UserID    string `json:"userId"`
}

// NewCommentCreated creates a CommentCreated event
func NewCommentCreated(itemID, commentID, userID string) CommentCreated {
	return CommentCreated{
		BaseEvent: BaseEvent{
			AggregateID: commentID,
			EventType:   "comment.created",
			Timestamp:   time.Now().UTC(),
		},
		ItemID:    itemID,
		CommentID: commentID,
		UserID:    userID,
	}
}

// ReactionToggled is raised when a reaction is added or removed
type ReactionToggled struct {
	BaseEvent
	CommentID string `json:"commentId"`
	UserID    string `json:"userId"`
	Reacted   bool   `json:"reacted"`
}

// NewReactionToggled creates a ReactionToggled event
func NewReactionToggled(commentID, userID string, reacted bool) ReactionToggled {
	return ReactionToggled{
		BaseEvent: BaseEvent{
			AggregateID: commentID,
			EventType:   "reaction.toggled",
			Timestamp:   time.Now().UTC(),
		},
		CommentID: commentID,
		UserID:    userID,
		Reacted:   reacted,
	}
}

// MessageSent is raised when a direct message is sent
type MessageSent struct {
	BaseEvent
	ConversationID string `json:"conversationId"`
	MessageID      string `json:"messageId"`
	SenderID       string `json:"senderId"`
}

// NewMessageSent creates a MessageSent event
func NewMessageSent(conversationID, messageID, senderID string) MessageSent {
	return MessageSent{
		BaseEvent: BaseEvent{
			AggregateID: conversationID,
			EventType:   "message.sent",
			Timestamp:   time.Now().UTC(),
		},
		ConversationID: conversationID,
		MessageID:      messageID,
		SenderID:       senderID,
	}
}

// DraftIngested is raised when the ingestion pipeline persists a draft
type DraftIngested struct {
	BaseEvent
	DraftID string `json:"draftId"`
	Status  string `json:"status"`
}

// NewDraftIngested creates a DraftIngested event
func NewDraftIngested(draftID, status string) DraftIngested {
	return DraftIngested{
		BaseEvent: BaseEvent{
			AggregateID: draftID,
			EventType:   "draft.ingested",
			Timestamp:   time.Now().UTC(),
		},
		DraftID: draftID,
		Status:  status,
	}
}
