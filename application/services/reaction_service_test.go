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

// fakeReactionRepo keeps reaction rows in a map keyed by commentID/userID
type fakeReactionRepo struct {
	rows map[string]*entities.Reaction
}

func newFakeReactionRepo() *fakeReactionRepo {
	return &fakeReactionRepo{rows: make(map[string]*entities.Reaction)}
}

func rxKey(commentID, userID string) string { return commentID + "/" + userID }

func (f *fakeReactionRepo) Get(ctx context.Context, commentID, userID string) (*entities.Reaction, error) {
	rx, ok := f.rows[rxKey(commentID, userID)]
	if !ok {
		return nil, apperrors.NewNotFoundError("reaction")
	}
	return rx, nil
}

func (f *fakeReactionRepo) Put(ctx context.Context, rx *entities.Reaction) error {
	f.rows[rxKey(rx.CommentID, rx.UserID)] = rx
	return nil
}

func (f *fakeReactionRepo) Delete(ctx context.Context, commentID, userID string) error {
	delete(f.rows, rxKey(commentID, userID))
	return nil
}

func (f *fakeReactionRepo) ListByComment(ctx context.Context, commentID string) ([]*entities.Reaction, error) {
	var out []*entities.Reaction
	for _, rx := range f.rows {
		if rx.CommentID == commentID {
			out = append(out, rx)
		}
	}
	return out, nil
}

// fakeCommentRepo holds comments keyed by itemID/commentID and enforces the
// existence guard on counter adjustment like the real repository does
type fakeCommentRepo struct {
	comments map[string]*entities.Comment
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{comments: make(map[string]*entities.Comment)}
}

func cKey(itemID, commentID string) string { return itemID + "/" + commentID }

func (f *fakeCommentRepo) Create(ctx context.Context, c *entities.Comment) error {
	f.comments[cKey(c.ItemID, c.CommentID)] = c
	return nil
}

func (f *fakeCommentRepo) GetByID(ctx context.Context, itemID, commentID string) (*entities.Comment, error) {
	c, ok := f.comments[cKey(itemID, commentID)]
	if !ok {
		return nil, apperrors.NewNotFoundError("comment")
	}
	return c, nil
}

func (f *fakeCommentRepo) ListByItem(ctx context.Context, itemID string) ([]*entities.Comment, error) {
	var out []*entities.Comment
	for _, c := range f.comments {
		if c.ItemID == itemID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCommentRepo) ListByUser(ctx context.Context, userID string) ([]*entities.Comment, error) {
	var out []*entities.Comment
	for _, c := range f.comments {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCommentRepo) Update(ctx context.Context, c *entities.Comment) error {
	f.comments[cKey(c.ItemID, c.CommentID)] = c
	return nil
}

func (f *fakeCommentRepo) AdjustReactionCount(ctx context.Context, itemID, commentID string, delta int) error {
	c, ok := f.comments[cKey(itemID, commentID)]
	if !ok {
		return apperrors.NewNotFoundError("comment")
	}
	c.ReactionCount += delta
	return nil
}

func seedComment(t *testing.T, repo *fakeCommentRepo) *entities.Comment {
	t.Helper()
	comment, err := entities.NewComment("item-1", "Letter from 1943", "author-1", "Grandma", "", "What a find!")
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), comment))
	return comment
}

func TestToggleAlternatesState(t *testing.T) {
	comments := newFakeCommentRepo()
	reactions := newFakeReactionRepo()
	svc := NewReactionService(reactions, comments, nil, zap.NewNop())
	comment := seedComment(t, comments)

	ctx := context.Background()

	for i := 0; i < 6; i++ {
		result, err := svc.Toggle(ctx, comment.CommentID, "user-1", comment.ItemID, "heart")
		require.NoError(t, err)

		wantReacted := i%2 == 0
		assert.Equal(t, wantReacted, result.Reacted, "toggle %d", i)

		_, err = reactions.Get(ctx, comment.CommentID, "user-1")
		if wantReacted {
			assert.NoError(t, err)
		} else {
			assert.True(t, apperrors.IsNotFound(err))
		}
	}
}

func TestToggleCounterEqualsNModTwo(t *testing.T) {
	for _, n := range []int{1, 2, 3, 8, 9} {
		comments := newFakeCommentRepo()
		reactions := newFakeReactionRepo()
		svc := NewReactionService(reactions, comments, nil, zap.NewNop())
		comment := seedComment(t, comments)

		ctx := context.Background()
		for i := 0; i < n; i++ {
			_, err := svc.Toggle(ctx, comment.CommentID, "user-1", comment.ItemID, "heart")
			require.NoError(t, err)
		}

		got, err := comments.GetByID(ctx, comment.ItemID, comment.CommentID)
		require.NoError(t, err)
		assert.Equal(t, n%2, got.ReactionCount, "after %d toggles", n)
	}
}

func TestToggleMissingCommentLeavesNoOrphan(t *testing.T) {
	comments := newFakeCommentRepo()
	reactions := newFakeReactionRepo()
	svc := NewReactionService(reactions, comments, nil, zap.NewNop())

	ctx := context.Background()
	_, err := svc.Toggle(ctx, "ghost-comment", "user-1", "item-1", "heart")

	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, reactions.rows, "compensating delete must remove the reaction row")
}

func TestToggleRemoveSkipsCounterWhenCommentGone(t *testing.T) {
	comments := newFakeCommentRepo()
	reactions := newFakeReactionRepo()
	svc := NewReactionService(reactions, comments, nil, zap.NewNop())
	comment := seedComment(t, comments)

	ctx := context.Background()
	_, err := svc.Toggle(ctx, comment.CommentID, "user-1", comment.ItemID, "heart")
	require.NoError(t, err)

	// Comment disappears between the toggles
	delete(comments.comments, cKey(comment.ItemID, comment.CommentID))

	result, err := svc.Toggle(ctx, comment.CommentID, "user-1", comment.ItemID, "heart")
	require.NoError(t, err)
	assert.False(t, result.Reacted)
	assert.Empty(t, reactions.rows)
}

func TestToggleTwoUsersIndependentState(t *testing.T) {
	comments := newFakeCommentRepo()
	reactions := newFakeReactionRepo()
	svc := NewReactionService(reactions, comments, nil, zap.NewNop())
	comment := seedComment(t, comments)

	ctx := context.Background()
	_, err := svc.Toggle(ctx, comment.CommentID, "user-1", comment.ItemID, "heart")
	require.NoError(t, err)
	_, err = svc.Toggle(ctx, comment.CommentID, "user-2", comment.ItemID, "heart")
	require.NoError(t, err)
	_, err = svc.Toggle(ctx, comment.CommentID, "user-1", comment.ItemID, "heart")
	require.NoError(t, err)

	got, err := comments.GetByID(ctx, comment.ItemID, comment.CommentID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ReactionCount)

	_, err = reactions.Get(ctx, comment.CommentID, "user-2")
	assert.NoError(t, err)
	_, err = reactions.Get(ctx, comment.CommentID, "user-1")
	assert.True(t, apperrors.IsNotFound(err))
}
