package dynamodb

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"holdthatthought-backend/application/ports"
	"holdthatthought-backend/domain/entities"
	apperrors "holdthatthought-backend/pkg/errors"
)

// ReactionRepository implements ports.ReactionRepository using DynamoDB
type ReactionRepository struct {
	store  *Store
	logger *zap.Logger
}

// NewReactionRepository creates a new ReactionRepository
func NewReactionRepository(store *Store, logger *zap.Logger) ports.ReactionRepository {
	return &ReactionRepository{store: store, logger: logger}
}

// reactionItem represents the DynamoDB item structure for a reaction
type reactionItem struct {
	PK           string `dynamodbav:"PK"` // REACTION#<commentId>
	SK           string `dynamodbav:"SK"` // USER#<userId>
	EntityType   string `dynamodbav:"EntityType"`
	CommentID    string `dynamodbav:"commentId"`
	UserID       string `dynamodbav:"userId"`
	ItemID       string `dynamodbav:"itemId"`
	ReactionType string `dynamodbav:"reactionType"`
	CreatedAt    string `dynamodbav:"createdAt"`
}

func toReactionItem(rx *entities.Reaction) reactionItem {
	return reactionItem{
		PK:           PrefixReaction + rx.CommentID,
		SK:           PrefixUser + rx.UserID,
		EntityType:   "REACTION",
		CommentID:    rx.CommentID,
		UserID:       rx.UserID,
		ItemID:       rx.ItemID,
		ReactionType: rx.ReactionType,
		CreatedAt:    rx.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func fromReactionItem(item reactionItem) *entities.Reaction {
	rx := &entities.Reaction{
		CommentID:    item.CommentID,
		UserID:       item.UserID,
		ItemID:       item.ItemID,
		ReactionType: item.ReactionType,
	}
	rx.CreatedAt, _ = time.Parse(time.RFC3339Nano, item.CreatedAt)
	return rx
}

// Get returns the user's reaction on a comment, or a not-found error
func (r *ReactionRepository) Get(ctx context.Context, commentID, userID string) (*entities.Reaction, error) {
	var item reactionItem
	err := r.store.Get(ctx, PrefixReaction+commentID, PrefixUser+userID, &item)
	if errors.Is(err, ErrItemNotFound) {
		return nil, apperrors.NewNotFoundError("reaction")
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("get reaction", err)
	}
	return fromReactionItem(item), nil
}

// Put writes the reaction row. Idempotent; an existing row is overwritten.
func (r *ReactionRepository) Put(ctx context.Context, rx *entities.Reaction) error {
	if err := r.store.Put(ctx, toReactionItem(rx)); err != nil {
		return apperrors.NewDatabaseError("put reaction", err)
	}
	return nil
}

// Delete removes the reaction row. Deleting an absent row is not an error.
func (r *ReactionRepository) Delete(ctx context.Context, commentID, userID string) error {
	if err := r.store.Delete(ctx, PrefixReaction+commentID, PrefixUser+userID); err != nil {
		return apperrors.NewDatabaseError("delete reaction", err)
	}
	return nil
}

// ListByComment returns every reaction on a comment
func (r *ReactionRepository) ListByComment(ctx context.Context, commentID string) ([]*entities.Reaction, error) {
	var items []reactionItem
	if err := r.store.QueryPrefix(ctx, PrefixReaction+commentID, PrefixUser, &items); err != nil {
		return nil, apperrors.NewDatabaseError("list reactions", err)
	}

	reactions := make([]*entities.Reaction, 0, len(items))
	for _, item := range items {
		reactions = append(reactions, fromReactionItem(item))
	}
	return reactions, nil
}
