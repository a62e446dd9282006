// Package ports defines the interfaces the application layer depends on.
// Infrastructure provides the implementations; tests substitute fakes.
package ports

import (
	"context"
	"io"
	"time"

	"holdthatthought-backend/domain/entities"
	"holdthatthought-backend/domain/events"
)

// CommentRepository persists comments
type CommentRepository interface {
	Create(ctx context.Context, comment *entities.Comment) error
	GetByID(ctx context.Context, itemID, commentID string) (*entities.Comment, error)
	ListByItem(ctx context.Context, itemID string) ([]*entities.Comment, error)
	ListByUser(ctx context.Context, userID string) ([]*entities.Comment, error)
	Update(ctx context.Context, comment *entities.Comment) error

	// AdjustReactionCount atomically adds delta to the comment's reaction
	// counter, guarded by the comment still existing. Returns a not-found
	// error when the guard fails.
	AdjustReactionCount(ctx context.Context, itemID, commentID string, delta int) error
}

// ReactionRepository persists reaction rows keyed by (commentID, userID)
type ReactionRepository interface {
	Get(ctx context.Context, commentID, userID string) (*entities.Reaction, error)
	Put(ctx context.Context, reaction *entities.Reaction) error
	Delete(ctx context.Context, commentID, userID string) error
	ListByComment(ctx context.Context, commentID string) ([]*entities.Reaction, error)
}

// ConversationRepository persists conversations, membership rows and messages
type ConversationRepository interface {
	Create(ctx context.Context, conv *entities.Conversation) error
	GetByID(ctx context.Context, conversationID string) (*entities.Conversation, error)
	ListByUser(ctx context.Context, userID string) ([]*entities.Conversation, error)
	AppendMessage(ctx context.Context, msg *entities.Message) error
	ListMessages(ctx context.Context, conversationID string, limit int) ([]*entities.Message, error)
}

// ProfileRepository persists user profiles and their denormalized counters
type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*entities.Profile, error)
	Put(ctx context.Context, profile *entities.Profile) error
	List(ctx context.Context) ([]*entities.Profile, error)
	IncrementCommentCount(ctx context.Context, userID string) error
	UpdateLastActive(ctx context.Context, userID string, at time.Time) error

	// TryMarkNotified records a notification send for the debounce window.
	// Returns false without error when a send inside the window already
	// claimed the slot.
	TryMarkNotified(ctx context.Context, userID string, kind entities.NotificationKind, window time.Duration) (bool, error)
}

// LetterRepository persists published letters and ingestion drafts
type LetterRepository interface {
	PutLetter(ctx context.Context, letter *entities.Letter) error
	GetLetter(ctx context.Context, letterID string) (*entities.Letter, error)
	ListLetters(ctx context.Context) ([]*entities.Letter, error)
	DeleteLetter(ctx context.Context, letterID string) error

	PutDraft(ctx context.Context, draft *entities.Draft) error
	GetDraft(ctx context.Context, draftID string) (*entities.Draft, error)
	ListDrafts(ctx context.Context) ([]*entities.Draft, error)
	DeleteDraft(ctx context.Context, draftID string) error
}

// ObjectInfo describes one object at the staging location
type ObjectInfo struct {
	Key       string
	Size      int64
	MediaType string
}

// MediaStore abstracts the object store holding uploads and letter pages
type MediaStore interface {
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key, mediaType string, body io.Reader) error
	Delete(ctx context.Context, key string) error
	PresignUpload(ctx context.Context, key, mediaType string, expiry time.Duration) (string, error)
	PresignDownload(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// EventBus publishes domain events to downstream consumers
type EventBus interface {
	Publish(ctx context.Context, event events.DomainEvent) error
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// ExtractionResult carries the structured fields returned by the AI
// extraction service, before normalization
type ExtractionResult struct {
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	Recipient     string   `json:"recipient"`
	Date          string   `json:"date"`
	Description   string   `json:"description"`
	Transcription string   `json:"transcription"`
	Tags          []string `json:"tags"`
}

// Extractor calls the external AI extraction service
type Extractor interface {
	Extract(ctx context.Context, doc *entities.Document) (*ExtractionResult, error)
}

// EmailSender sends notification emails
type EmailSender interface {
	Send(ctx context.Context, to, subject, bodyHTML string) error
}
