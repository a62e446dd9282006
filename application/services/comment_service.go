// Package services holds the application services sitting between the HTTP
// handlers and the repositories. Services own the business rules; handlers
// only decode, authorize and encode.
package services

import (
	"context"

	"go.uber.org/zap"

	"holdthatthought-backend/application/ports"
	"holdthatthought-backend/domain/entities"
	"holdthatthought-backend/domain/events"
	apperrors "holdthatthought-backend/pkg/errors"
)

// CommentService implements comment CRUD with ownership checks
type CommentService struct {
	comments ports.CommentRepository
	eventBus ports.EventBus
	logger   *zap.Logger
}

// NewCommentService creates a new comment service
func NewCommentService(comments ports.CommentRepository, eventBus ports.EventBus, logger *zap.Logger) *CommentService {
	return &CommentService{comments: comments, eventBus: eventBus, logger: logger}
}

// CreateCommentInput carries the fields needed to post a comment
type CreateCommentInput struct {
	ItemID     string
	ItemTitle  string
	UserID     string
	UserName   string
	UserAvatar string
	Text       string
}

// Create posts a new comment and publishes a best-effort domain event
func (s *CommentService) Create(ctx context.Context, input CreateCommentInput) (*entities.Comment, error) {
	comment, err := entities.NewComment(input.ItemID, input.ItemTitle, input.UserID, input.UserName, input.UserAvatar, input.Text)
	if err != nil {
		return nil, err
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewCommentCreated(comment.ItemID, comment.CommentID, comment.UserID))
	return comment, nil
}

// Get returns one comment
func (s *CommentService) Get(ctx context.Context, itemID, commentID string) (*entities.Comment, error) {
	return s.comments.GetByID(ctx, itemID, commentID)
}

// ListByItem returns the comments on one item, oldest first
func (s *CommentService) ListByItem(ctx context.Context, itemID string) ([]*entities.Comment, error) {
	return s.comments.ListByItem(ctx, itemID)
}

// ListByUser returns a user's comments
func (s *CommentService) ListByUser(ctx context.Context, userID string) ([]*entities.Comment, error) {
	return s.comments.ListByUser(ctx, userID)
}

// Edit replaces the comment text. Only the author may edit.
func (s *CommentService) Edit(ctx context.Context, itemID, commentID, userID, text string) (*entities.Comment, error) {
	comment, err := s.comments.GetByID(ctx, itemID, commentID)
	if err != nil {
		return nil, err
	}
	if !comment.OwnedBy(userID) {
		return nil, apperrors.NewForbiddenError("only the author can edit a comment")
	}

	if err := comment.Edit(text); err != nil {
		return nil, err
	}
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// Delete soft-deletes the comment. The author or an admin may delete.
func (s *CommentService) Delete(ctx context.Context, itemID, commentID, userID string, isAdmin bool) error {
	comment, err := s.comments.GetByID(ctx, itemID, commentID)
	if err != nil {
		return err
	}
	if !comment.OwnedBy(userID) && !isAdmin {
		return apperrors.NewForbiddenError("only the author can delete a comment")
	}

	comment.SoftDelete()
	return s.comments.Update(ctx, comment)
}

// publish sends a domain event without failing the request
func (s *CommentService) publish(ctx context.Context, event events.DomainEvent) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish domain event",
			zap.String("eventType", event.GetEventType()),
			zap.Error(err),
		)
	}
}
