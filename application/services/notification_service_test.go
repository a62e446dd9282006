package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"holdthatthought-backend/domain/entities"
	apperrors "holdthatthought-backend/pkg/errors"
)

type fakeProfileRepo struct {
	profiles map[string]*entities.Profile

	// now stands in for the wall clock so debounce windows can be
	// advanced without sleeping
	now   time.Time
	marks map[string]time.Time
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{
		profiles: make(map[string]*entities.Profile),
		now:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		marks:    make(map[string]time.Time),
	}
}

func (f *fakeProfileRepo) Get(ctx context.Context, userID string) (*entities.Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, apperrors.NewNotFoundError("profile")
	}
	return p, nil
}

func (f *fakeProfileRepo) Put(ctx context.Context, p *entities.Profile) error {
	f.profiles[p.UserID] = p
	return nil
}

func (f *fakeProfileRepo) List(ctx context.Context) ([]*entities.Profile, error) {
	var out []*entities.Profile
	for _, p := range f.profiles {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProfileRepo) IncrementCommentCount(ctx context.Context, userID string) error {
	if p, ok := f.profiles[userID]; ok {
		p.CommentCount++
	}
	return nil
}

func (f *fakeProfileRepo) UpdateLastActive(ctx context.Context, userID string, at time.Time) error {
	if p, ok := f.profiles[userID]; ok {
		p.LastActive = at
	}
	return nil
}

func (f *fakeProfileRepo) TryMarkNotified(ctx context.Context, userID string, kind entities.NotificationKind, window time.Duration) (bool, error) {
	key := userID + "/" + string(kind)
	if last, ok := f.marks[key]; ok && f.now.Sub(last) < window {
		return false, nil
	}
	f.marks[key] = f.now
	return true, nil
}

type fakeConversationRepo struct {
	conversations map[string]*entities.Conversation
	messages      map[string][]*entities.Message
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		conversations: make(map[string]*entities.Conversation),
		messages:      make(map[string][]*entities.Message),
	}
}

func (f *fakeConversationRepo) Create(ctx context.Context, conv *entities.Conversation) error {
	f.conversations[conv.ConversationID] = conv
	return nil
}

func (f *fakeConversationRepo) GetByID(ctx context.Context, conversationID string) (*entities.Conversation, error) {
	conv, ok := f.conversations[conversationID]
	if !ok {
		return nil, apperrors.NewNotFoundError("conversation")
	}
	return conv, nil
}

func (f *fakeConversationRepo) ListByUser(ctx context.Context, userID string) ([]*entities.Conversation, error) {
	var out []*entities.Conversation
	for _, conv := range f.conversations {
		if conv.HasParticipant(userID) {
			out = append(out, conv)
		}
	}
	return out, nil
}

func (f *fakeConversationRepo) AppendMessage(ctx context.Context, msg *entities.Message) error {
	if _, ok := f.conversations[msg.ConversationID]; !ok {
		return apperrors.NewNotFoundError("conversation")
	}
	f.messages[msg.ConversationID] = append(f.messages[msg.ConversationID], msg)
	f.conversations[msg.ConversationID].LastMessageAt = msg.SentAt
	return nil
}

func (f *fakeConversationRepo) ListMessages(ctx context.Context, conversationID string, limit int) ([]*entities.Message, error) {
	msgs := f.messages[conversationID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

type sentEmail struct {
	To      string
	Subject string
}

type fakeEmailSender struct {
	sent []sentEmail
}

func (f *fakeEmailSender) Send(ctx context.Context, to, subject, bodyHTML string) error {
	f.sent = append(f.sent, sentEmail{To: to, Subject: subject})
	return nil
}

func seedProfile(repo *fakeProfileRepo, userID, email string, optOut bool) *entities.Profile {
	p := entities.NewProfile(userID, email, "Member "+userID, "")
	p.EmailOptOut = optOut
	repo.profiles[userID] = p
	return p
}

func newNotificationFixture() (*NotificationService, *fakeProfileRepo, *fakeCommentRepo, *fakeConversationRepo, *fakeEmailSender) {
	profiles := newFakeProfileRepo()
	comments := newFakeCommentRepo()
	conversations := newFakeConversationRepo()
	emails := &fakeEmailSender{}
	svc := NewNotificationService(profiles, comments, conversations, emails, "https://letters.example", zap.NewNop())
	return svc, profiles, comments, conversations, emails
}

func commentInsert(userID, userName, itemID, itemTitle string) StreamInsert {
	return StreamInsert{
		PK: "COMMENT#" + itemID,
		SK: "COMMENT#abc",
		Fields: map[string]string{
			"userId":    userID,
			"userName":  userName,
			"itemId":    itemID,
			"itemTitle": itemTitle,
		},
	}
}

func TestCommentNotificationSkipsAuthor(t *testing.T) {
	svc, profiles, _, _, emails := newNotificationFixture()
	seedProfile(profiles, "author", "author@example.com", false)
	seedProfile(profiles, "reader", "reader@example.com", false)

	svc.Process(context.Background(), commentInsert("author", "Grandma", "item-1", "Letter from 1943"))

	require.Len(t, emails.sent, 1)
	assert.Equal(t, "reader@example.com", emails.sent[0].To)
	assert.Equal(t, "Grandma commented on Letter from 1943", emails.sent[0].Subject)
}

func TestCommentNotificationRespectsOptOut(t *testing.T) {
	svc, profiles, _, _, emails := newNotificationFixture()
	seedProfile(profiles, "author", "author@example.com", false)
	seedProfile(profiles, "quiet", "quiet@example.com", true)

	svc.Process(context.Background(), commentInsert("author", "Grandma", "item-1", "Letter from 1943"))

	assert.Empty(t, emails.sent)
}

func TestCommentNotificationDebounced(t *testing.T) {
	svc, profiles, _, _, emails := newNotificationFixture()
	seedProfile(profiles, "author", "author@example.com", false)
	seedProfile(profiles, "reader", "reader@example.com", false)

	record := commentInsert("author", "Grandma", "item-1", "Letter from 1943")

	svc.Process(context.Background(), record)
	svc.Process(context.Background(), record)
	require.Len(t, emails.sent, 1)

	// Inside the window the slot stays claimed
	profiles.now = profiles.now.Add(14 * time.Minute)
	svc.Process(context.Background(), record)
	require.Len(t, emails.sent, 1)

	// Once the window elapses a new email goes out
	profiles.now = profiles.now.Add(2 * time.Minute)
	svc.Process(context.Background(), record)
	assert.Len(t, emails.sent, 2)
}

func TestDebounceIsPerNotificationKind(t *testing.T) {
	svc, profiles, comments, _, emails := newNotificationFixture()
	seedProfile(profiles, "author-1", "author@example.com", false)
	seedProfile(profiles, "reactor", "reactor@example.com", false)
	comment := seedComment(t, comments)

	svc.Process(context.Background(), commentInsert("reactor", "Cousin", comment.ItemID, comment.ItemTitle))
	require.Len(t, emails.sent, 1)

	svc.Process(context.Background(), StreamInsert{
		PK: "REACTION#" + comment.CommentID,
		SK: "USER#reactor",
		Fields: map[string]string{
			"userId":    "reactor",
			"itemId":    comment.ItemID,
			"commentId": comment.CommentID,
		},
	})

	// The comment debounce slot does not block the reaction email
	require.Len(t, emails.sent, 2)
	assert.Equal(t, "author@example.com", emails.sent[1].To)
	assert.Equal(t, "Someone appreciated your comment", emails.sent[1].Subject)
}

func TestReactionNotificationSkipsSelfReaction(t *testing.T) {
	svc, profiles, comments, _, emails := newNotificationFixture()
	comment := seedComment(t, comments)
	seedProfile(profiles, comment.UserID, "author@example.com", false)

	svc.Process(context.Background(), StreamInsert{
		PK: "REACTION#" + comment.CommentID,
		SK: "USER#" + comment.UserID,
		Fields: map[string]string{
			"userId":    comment.UserID,
			"itemId":    comment.ItemID,
			"commentId": comment.CommentID,
		},
	})

	assert.Empty(t, emails.sent)
}

func TestMessageNotificationEmailsOtherParticipants(t *testing.T) {
	svc, profiles, _, conversations, emails := newNotificationFixture()
	seedProfile(profiles, "sender", "sender@example.com", false)
	seedProfile(profiles, "peer-1", "peer1@example.com", false)
	seedProfile(profiles, "peer-2", "peer2@example.com", false)

	conv, err := entities.NewConversation("sender", "Reunion plans", []string{"peer-1", "peer-2"})
	require.NoError(t, err)
	require.NoError(t, conversations.Create(context.Background(), conv))

	svc.Process(context.Background(), StreamInsert{
		PK: "CONV#" + conv.ConversationID,
		SK: "MSG#2026-03-01T12:00:00Z#m1",
		Fields: map[string]string{
			"senderId":       "sender",
			"senderName":     "Grandpa",
			"conversationId": conv.ConversationID,
		},
	})

	require.Len(t, emails.sent, 2)
	recipients := []string{emails.sent[0].To, emails.sent[1].To}
	assert.ElementsMatch(t, []string{"peer1@example.com", "peer2@example.com"}, recipients)
	assert.Equal(t, "New message from Grandpa", emails.sent[0].Subject)
}
