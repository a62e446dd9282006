package services

import (
	"context"

	"go.uber.org/zap"

	"holdthatthought-backend/application/ports"
	"holdthatthought-backend/domain/entities"
)

// LetterService manages the published letter archive and the draft review
// queue. Draft mutation is admin-only; the handlers enforce the role.
type LetterService struct {
	letters ports.LetterRepository
	logger  *zap.Logger
}

// NewLetterService creates a new letter service
func NewLetterService(letters ports.LetterRepository, logger *zap.Logger) *LetterService {
	return &LetterService{letters: letters, logger: logger}
}

// List returns the archive, newest first
func (s *LetterService) List(ctx context.Context) ([]*entities.Letter, error) {
	return s.letters.ListLetters(ctx)
}

// Get returns one letter
func (s *LetterService) Get(ctx context.Context, letterID string) (*entities.Letter, error) {
	return s.letters.GetLetter(ctx, letterID)
}

// UpdateLetterInput carries the editable letter fields; nil leaves a field
// untouched
type UpdateLetterInput struct {
	Title         *string
	Author        *string
	Recipient     *string
	LetterDate    *string
	Description   *string
	Transcription *string
	Tags          *[]string
}

// Update applies a partial metadata edit to a published letter
func (s *LetterService) Update(ctx context.Context, letterID string, input UpdateLetterInput) (*entities.Letter, error) {
	letter, err := s.letters.GetLetter(ctx, letterID)
	if err != nil {
		return nil, err
	}

	err = letter.UpdateFields(input.Title, input.Author, input.Recipient,
		input.LetterDate, input.Description, input.Transcription, input.Tags)
	if err != nil {
		return nil, err
	}

	if err := s.letters.PutLetter(ctx, letter); err != nil {
		return nil, err
	}
	return letter, nil
}

// Delete removes a letter from the archive
func (s *LetterService) Delete(ctx context.Context, letterID string) error {
	if err := s.letters.DeleteLetter(ctx, letterID); err != nil {
		return err
	}
	s.logger.Info("Letter deleted", zap.String("letterId", letterID))
	return nil
}

// ListDrafts returns the review queue, newest first
func (s *LetterService) ListDrafts(ctx context.Context) ([]*entities.Draft, error) {
	return s.letters.ListDrafts(ctx)
}

// GetDraft returns one draft
func (s *LetterService) GetDraft(ctx context.Context, draftID string) (*entities.Draft, error) {
	return s.letters.GetDraft(ctx, draftID)
}

// ApproveDraft promotes a draft into a published letter and removes it from
// the queue. The original error state blocks approval.
func (s *LetterService) ApproveDraft(ctx context.Context, draftID string) (*entities.Letter, error) {
	draft, err := s.letters.GetDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}

	letter, err := draft.ToLetter()
	if err != nil {
		return nil, err
	}

	if err := s.letters.PutLetter(ctx, letter); err != nil {
		return nil, err
	}
	if err := s.letters.DeleteDraft(ctx, draftID); err != nil {
		// The letter is published; a surviving draft row is harmless and
		// visible in the review queue
		s.logger.Warn("Draft cleanup failed after approval",
			zap.String("draftId", draftID),
			zap.Error(err),
		)
	}

	s.logger.Info("Draft approved",
		zap.String("draftId", draftID),
		zap.String("letterId", letter.LetterID),
	)
	return letter, nil
}

// RejectDraft drops a draft from the queue
func (s *LetterService) RejectDraft(ctx context.Context, draftID string) error {
	if _, err := s.letters.GetDraft(ctx, draftID); err != nil {
		return err
	}
	return s.letters.DeleteDraft(ctx, draftID)
}
