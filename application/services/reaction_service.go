package services

import (
	"context"

	"go.uber.org/zap"

	"holdthatthought-backend/application/ports"
	"holdthatthought-backend/application/sagas"
	"holdthatthought-backend/domain/entities"
	"holdthatthought-backend/domain/events"
	apperrors "holdthatthought-backend/pkg/errors"
)

// ReactionService implements the reaction toggle protocol. Exactly two states
// exist per (commentId, userId); each call flips the state. The reaction row
// always mutates before the counter so a crash between the two writes leaves
// the row correct and the counter stale, never the other way around.
type ReactionService struct {
	reactions ports.ReactionRepository
	comments  ports.CommentRepository
	eventBus  ports.EventBus
	logger    *zap.Logger
}

// NewReactionService creates a new reaction service
func NewReactionService(
	reactions ports.ReactionRepository,
	comments ports.CommentRepository,
	eventBus ports.EventBus,
	logger *zap.Logger,
) *ReactionService {
	return &ReactionService{
		reactions: reactions,
		comments:  comments,
		eventBus:  eventBus,
		logger:    logger,
	}
}

// ToggleResult reports the state after a toggle
type ToggleResult struct {
	Reacted bool `json:"reacted"`
}

// Toggle flips the user's reaction on a comment.
//
// Reacted state: delete the row, then decrement the counter guarded by the
// comment still existing; a vanished comment skips the decrement.
//
// Not-reacted state: write the row, then increment the counter under the same
// guard; a failed guard rolls back the just-written row and reports not-found
// so no orphan survives.
func (s *ReactionService) Toggle(ctx context.Context, commentID, userID, itemID, reactionType string) (*ToggleResult, error) {
	existing, err := s.reactions.Get(ctx, commentID, userID)
	if err != nil && !apperrors.IsNotFound(err) {
		return nil, err
	}

	if existing != nil {
		if err := s.removeReaction(ctx, itemID, commentID, userID); err != nil {
			return nil, err
		}
		s.publish(ctx, events.NewReactionToggled(commentID, userID, false))
		return &ToggleResult{Reacted: false}, nil
	}

	if err := s.addReaction(ctx, itemID, commentID, userID, reactionType); err != nil {
		return nil, err
	}
	s.publish(ctx, events.NewReactionToggled(commentID, userID, true))
	return &ToggleResult{Reacted: true}, nil
}

func (s *ReactionService) removeReaction(ctx context.Context, itemID, commentID, userID string) error {
	if err := s.reactions.Delete(ctx, commentID, userID); err != nil {
		return err
	}

	err := s.comments.AdjustReactionCount(ctx, itemID, commentID, -1)
	if apperrors.IsNotFound(err) {
		// Comment is gone; the reaction row is already deleted and the
		// counter is moot
		return nil
	}
	return err
}

func (s *ReactionService) addReaction(ctx context.Context, itemID, commentID, userID, reactionType string) error {
	reaction := entities.NewReaction(commentID, userID, itemID, reactionType)

	toggle := &sagas.TwoPhase{
		Name: "reaction-add",
		Attempt: func(ctx context.Context) error {
			return s.reactions.Put(ctx, reaction)
		},
		Follow: func(ctx context.Context) error {
			return s.comments.AdjustReactionCount(ctx, itemID, commentID, 1)
		},
		Reverse: func(ctx context.Context) error {
			return s.reactions.Delete(ctx, commentID, userID)
		},
	}

	return toggle.Run(ctx, s.logger)
}

// ListByComment returns the reactions on a comment
func (s *ReactionService) ListByComment(ctx context.Context, commentID string) ([]*entities.Reaction, error) {
	return s.reactions.ListByComment(ctx, commentID)
}

func (s *ReactionService) publish(ctx context.Context, event events.DomainEvent) {
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
