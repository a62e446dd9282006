package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "holdthatthought-backend/pkg/errors"
)

func newMessageFixture() (*MessageService, *fakeConversationRepo) {
	conversations := newFakeConversationRepo()
	return NewMessageService(conversations, nil, zap.NewNop()), conversations
}

func TestStartConversationIncludesCreator(t *testing.T) {
	svc, _ := newMessageFixture()

	conv, err := svc.StartConversation(context.Background(), "alice", "Reunion plans", []string{"bob"})
	require.NoError(t, err)

	assert.True(t, conv.HasParticipant("alice"))
	assert.True(t, conv.HasParticipant("bob"))
	assert.Equal(t, "alice", conv.CreatedBy)
}

func TestStartConversationNeedsAnotherParticipant(t *testing.T) {
	svc, _ := newMessageFixture()

	// Duplicates of the creator do not count as a second participant
	_, err := svc.StartConversation(context.Background(), "alice", "", []string{"alice", ""})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestSendRequiresMembership(t *testing.T) {
	svc, _ := newMessageFixture()

	conv, err := svc.StartConversation(context.Background(), "alice", "", []string{"bob"})
	require.NoError(t, err)

	_, err = svc.Send(context.Background(), conv.ConversationID, "mallory", "Mallory", "let me in")
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))

	msg, err := svc.Send(context.Background(), conv.ConversationID, "bob", "Bob", "made it home safe")
	require.NoError(t, err)
	assert.Equal(t, "made it home safe", msg.Text)
}

func TestSendSanitizesMessageText(t *testing.T) {
	svc, _ := newMessageFixture()

	conv, err := svc.StartConversation(context.Background(), "alice", "", []string{"bob"})
	require.NoError(t, err)

	msg, err := svc.Send(context.Background(), conv.ConversationID, "alice", "Alice", "<script>alert(1)</script>Hi")
	require.NoError(t, err)
	assert.Equal(t, "Hi", msg.Text)

	_, err = svc.Send(context.Background(), conv.ConversationID, "alice", "Alice", "<script>only()</script>")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestListMessagesRequiresMembershipAndHonorsLimit(t *testing.T) {
	svc, _ := newMessageFixture()

	conv, err := svc.StartConversation(context.Background(), "alice", "", []string{"bob"})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := svc.Send(context.Background(), conv.ConversationID, "alice", "Alice", fmt.Sprintf("message %d", i))
		require.NoError(t, err)
	}

	_, err = svc.ListMessages(context.Background(), conv.ConversationID, "mallory", 0)
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))

	msgs, err := svc.ListMessages(context.Background(), conv.ConversationID, "bob", 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "message 3", msgs[0].Text)
	assert.Equal(t, "message 4", msgs[1].Text)
}

func TestGetConversationForbiddenForOutsiders(t *testing.T) {
	svc, _ := newMessageFixture()

	conv, err := svc.StartConversation(context.Background(), "alice", "", []string{"bob"})
	require.NoError(t, err)

	_, err = svc.GetConversation(context.Background(), conv.ConversationID, "mallory")
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))

	got, err := svc.GetConversation(context.Background(), conv.ConversationID, "alice")
	require.NoError(t, err)
	assert.Equal(t, conv.ConversationID, got.ConversationID)
}
