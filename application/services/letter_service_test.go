package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"holdthatthought-backend/domain/entities"
	apperrors "holdthatthought-backend/pkg/errors"
)

func seedDraft(repo *fakeLetterRepo) *entities.Draft {
	draft := entities.NewDraft("upload-1", "admin-1")
	draft.Title = "Letter home"
	draft.Author = "Pvt. James"
	draft.LetterDate = "1944-06-10"
	draft.Tags = []string{"war", "family"}
	draft.PageKeys = []string{"staging/upload-1/page-1.jpg"}
	repo.drafts[draft.DraftID] = draft
	return draft
}

func TestApproveDraftPublishesLetter(t *testing.T) {
	letters := newFakeLetterRepo()
	draft := seedDraft(letters)
	svc := NewLetterService(letters, zap.NewNop())

	letter, err := svc.ApproveDraft(context.Background(), draft.DraftID)
	require.NoError(t, err)

	assert.Equal(t, "Letter home", letter.Title)
	assert.Equal(t, "1944-06-10", letter.LetterDate)
	assert.Equal(t, draft.PageKeys, letter.PageKeys)

	// Draft left the review queue, letter entered the archive
	assert.Empty(t, letters.drafts)
	require.Len(t, letters.letters, 1)
	_, err = svc.Get(context.Background(), letter.LetterID)
	assert.NoError(t, err)
}

func TestApproveFailedDraftRejected(t *testing.T) {
	letters := newFakeLetterRepo()
	draft := seedDraft(letters)
	draft.Fail("extraction failed: upstream timeout")
	svc := NewLetterService(letters, zap.NewNop())

	_, err := svc.ApproveDraft(context.Background(), draft.DraftID)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))

	// The failed draft stays visible in the queue
	assert.Len(t, letters.drafts, 1)
	assert.Empty(t, letters.letters)
}

func TestApproveUntitledDraftGetsPlaceholderTitle(t *testing.T) {
	letters := newFakeLetterRepo()
	draft := seedDraft(letters)
	draft.Title = ""
	svc := NewLetterService(letters, zap.NewNop())

	letter, err := svc.ApproveDraft(context.Background(), draft.DraftID)
	require.NoError(t, err)
	assert.Equal(t, "Untitled letter", letter.Title)
}

func TestRejectDraftRemovesIt(t *testing.T) {
	letters := newFakeLetterRepo()
	draft := seedDraft(letters)
	svc := NewLetterService(letters, zap.NewNop())

	require.NoError(t, svc.RejectDraft(context.Background(), draft.DraftID))
	assert.Empty(t, letters.drafts)

	err := svc.RejectDraft(context.Background(), draft.DraftID)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUpdateLetterAppliesPartialEdit(t *testing.T) {
	letters := newFakeLetterRepo()
	draft := seedDraft(letters)
	svc := NewLetterService(letters, zap.NewNop())

	published, err := svc.ApproveDraft(context.Background(), draft.DraftID)
	require.NoError(t, err)

	title := "Letter home, June 1944"
	date := "1944-06-11"
	updated, err := svc.Update(context.Background(), published.LetterID, UpdateLetterInput{
		Title:      &title,
		LetterDate: &date,
	})
	require.NoError(t, err)

	assert.Equal(t, "Letter home, June 1944", updated.Title)
	assert.Equal(t, "1944-06-11", updated.LetterDate)
	// Untouched fields survive
	assert.Equal(t, "Pvt. James", updated.Author)
	assert.Equal(t, []string{"war", "family"}, updated.Tags)
}
