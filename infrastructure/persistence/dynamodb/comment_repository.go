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

// CommentRepository implements ports.CommentRepository using DynamoDB
type CommentRepository struct {
	store  *Store
	logger *zap.Logger
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(store *Store, logger *zap.Logger) ports.CommentRepository {
	return &CommentRepository{store: store, logger: logger}
}

// commentItem represents the DynamoDB item structure for a comment
type commentItem struct {
	PK            string            `dynamodbav:"PK"` // COMMENT#<itemId>
	SK            string            `dynamodbav:"SK"` // COMMENT#<commentId>
	GSI1PK        string            `dynamodbav:"GSI1PK"`
	GSI1SK        string            `dynamodbav:"GSI1SK"`
	EntityType    string            `dynamodbav:"EntityType"`
	ItemID        string            `dynamodbav:"itemId"`
	CommentID     string            `dynamodbav:"commentId"`
	UserID        string            `dynamodbav:"userId"`
	UserName      string            `dynamodbav:"userName"`
	UserAvatar    string            `dynamodbav:"userAvatar,omitempty"`
	ItemTitle     string            `dynamodbav:"itemTitle,omitempty"`
	CommentText   string            `dynamodbav:"commentText"`
	ReactionCount int               `dynamodbav:"reactionCount"`
	Deleted       bool              `dynamodbav:"deleted"`
	EditHistory   []commentEditItem `dynamodbav:"editHistory,omitempty"`
	CreatedAt     string            `dynamodbav:"createdAt"`
	UpdatedAt     string            `dynamodbav:"updatedAt"`
}

type commentEditItem struct {
	Text     string `dynamodbav:"text"`
	EditedAt string `dynamodbav:"editedAt"`
}

func commentKeys(itemID, commentID string) (string, string) {
	return PrefixComment + itemID, PrefixComment + commentID
}

func toCommentItem(c *entities.Comment) commentItem {
	pk, sk := commentKeys(c.ItemID, c.CommentID)
	item := commentItem{
		PK:            pk,
		SK:            sk,
		GSI1PK:        PrefixUser + c.UserID,
		GSI1SK:        fmt.Sprintf("%s%s#%s", PrefixComment, c.CreatedAt.UTC().Format(time.RFC3339Nano), c.CommentID),
		EntityType:    "COMMENT",
		ItemID:        c.ItemID,
		CommentID:     c.CommentID,
		UserID:        c.UserID,
		UserName:      c.UserName,
		UserAvatar:    c.UserAvatar,
		ItemTitle:     c.ItemTitle,
		CommentText:   c.Text,
		ReactionCount: c.ReactionCount,
		Deleted:       c.Deleted,
		CreatedAt:     c.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:     c.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	for _, e := range c.EditHistory {
		item.EditHistory = append(item.EditHistory, commentEditItem{
			Text:     e.Text,
			EditedAt: e.EditedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	return item
}

func fromCommentItem(item commentItem) *entities.Comment {
	c := &entities.Comment{
		ItemID:        item.ItemID,
		CommentID:     item.CommentID,
		UserID:        item.UserID,
		UserName:      item.UserName,
		UserAvatar:    item.UserAvatar,
		ItemTitle:     item.ItemTitle,
		Text:          item.CommentText,
		ReactionCount: item.ReactionCount,
		Deleted:       item.Deleted,
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339Nano, item.CreatedAt)
	c.UpdatedAt, _ = time.Parse(time.RFC3339Nano, item.UpdatedAt)
	for _, e := range item.EditHistory {
		editedAt, _ := time.Parse(time.RFC3339Nano, e.EditedAt)
		c.EditHistory = append(c.EditHistory, entities.CommentEdit{Text: e.Text, EditedAt: editedAt})
	}
	return c
}

// Create persists a new comment, refusing to overwrite an existing one
func (r *CommentRepository) Create(ctx context.Context, comment *entities.Comment) error {
	cond := expression.AttributeNotExists(expression.Name("PK"))
	err := r.store.PutConditional(ctx, toCommentItem(comment), cond)
	if errors.Is(err, ErrConditionFailed) {
		return apperrors.NewConflictError("comment already exists")
	}
	if err != nil {
		return apperrors.NewDatabaseError("create comment", err)
	}

	r.logger.Debug("Comment created",
		zap.String("itemId", comment.ItemID),
		zap.String("commentId", comment.CommentID),
	)
	return nil
}

// GetByID loads one comment
func (r *CommentRepository) GetByID(ctx context.Context, itemID, commentID string) (*entities.Comment, error) {
	pk, sk := commentKeys(itemID, commentID)

	var item commentItem
	err := r.store.Get(ctx, pk, sk, &item)
	if errors.Is(err, ErrItemNotFound) {
		return nil, apperrors.NewNotFoundError("comment")
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("get comment", err)
	}
	return fromCommentItem(item), nil
}

// ListByItem returns all comments on an item, oldest first
func (r *CommentRepository) ListByItem(ctx context.Context, itemID string) ([]*entities.Comment, error) {
	var items []commentItem
	if err := r.store.QueryPrefix(ctx, PrefixComment+itemID, PrefixComment, &items); err != nil {
		return nil, apperrors.NewDatabaseError("list comments", err)
	}

	comments := make([]*entities.Comment, 0, len(items))
	for _, item := range items {
		comments = append(comments, fromCommentItem(item))
	}
	sortCommentsByCreated(comments)
	return comments, nil
}

// ListByUser returns a user's comments via GSI1
func (r *CommentRepository) ListByUser(ctx context.Context, userID string) ([]*entities.Comment, error) {
	var items []commentItem
	if err := r.store.QueryIndexPrefix(ctx, PrefixUser+userID, PrefixComment, &items); err != nil {
		return nil, apperrors.NewDatabaseError("list user comments", err)
	}

	comments := make([]*entities.Comment, 0, len(items))
	for _, item := range items {
		comments = append(comments, fromCommentItem(item))
	}
	return comments, nil
}

// Update persists comment mutations (edits, soft delete)
func (r *CommentRepository) Update(ctx context.Context, comment *entities.Comment) error {
	if err := r.store.Put(ctx, toCommentItem(comment)); err != nil {
		return apperrors.NewDatabaseError("update comment", err)
	}
	return nil
}

// AdjustReactionCount atomically adds delta to reactionCount, guarded by the
// comment row still existing. The guard is what lets the toggle protocol
// detect a concurrently removed comment.
func (r *CommentRepository) AdjustReactionCount(ctx context.Context, itemID, commentID string, delta int) error {
	pk, sk := commentKeys(itemID, commentID)

	update := expression.Add(expression.Name("reactionCount"), expression.Value(delta))
	cond := expression.AttributeExists(expression.Name("PK"))
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return apperrors.NewDatabaseError("adjust reaction count", err)
	}

	err = r.store.Update(ctx, pk, sk, expr)
	if errors.Is(err, ErrConditionFailed) {
		return apperrors.NewNotFoundError("comment")
	}
	if err != nil {
		return apperrors.NewDatabaseError("adjust reaction count", err)
	}
	return nil
}

func sortCommentsByCreated(comments []*entities.Comment) {
	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
}
