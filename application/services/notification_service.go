package services

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"go.uber.org/zap"

	"holdthatthought-backend/application/ports"
	"holdthatthought-backend/domain/entities"
	apperrors "holdthatthought-backend/pkg/errors"
)

// debounceWindow caps email frequency: at most one email per notification
// kind per recipient inside the window
const debounceWindow = 15 * time.Minute

// NotificationService turns stream inserts into notification emails. Sends
// are debounced through a conditional profile update so concurrent stream
// invocations cannot both email the same recipient.
type NotificationService struct {
	profiles      ports.ProfileRepository
	comments      ports.CommentRepository
	conversations ports.ConversationRepository
	emails        ports.EmailSender
	baseURL       string
	logger        *zap.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(
	profiles ports.ProfileRepository,
	comments ports.CommentRepository,
	conversations ports.ConversationRepository,
	emails ports.EmailSender,
	baseURL string,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		profiles:      profiles,
		comments:      comments,
		conversations: conversations,
		emails:        emails,
		baseURL:       strings.TrimRight(baseURL, "/"),
		logger:        logger,
	}
}

// Process sends the emails one stream insert calls for. Failures are logged
// and skipped; notification delivery is best-effort.
func (s *NotificationService) Process(ctx context.Context, record StreamInsert) {
	switch {
	case record.IsComment():
		s.notifyComment(ctx, record)
	case record.IsReaction():
		s.notifyReaction(ctx, record)
	case record.IsMessage():
		s.notifyMessage(ctx, record)
	}
}

// notifyComment emails every family member except the author
func (s *NotificationService) notifyComment(ctx context.Context, record StreamInsert) {
	authorID := record.Fields["userId"]
	authorName := record.Fields["userName"]
	itemTitle := record.Fields["itemTitle"]
	itemID := record.Fields["itemId"]

	recipients, err := s.profiles.List(ctx)
	if err != nil {
		s.logger.Warn("Failed to list profiles for comment notification", zap.Error(err))
		return
	}

	subject := fmt.Sprintf("%s commented on %s", authorName, fallback(itemTitle, "a letter"))
	body := fmt.Sprintf(
		`<p>%s left a new comment on <a href="%s/letters/%s">%s</a>.</p>`,
		html.EscapeString(authorName),
		s.baseURL, itemID,
		html.EscapeString(fallback(itemTitle, "a letter")),
	)

	for _, profile := range recipients {
		if profile.UserID == authorID {
			continue
		}
		s.send(ctx, profile, entities.NotifyComment, subject, body)
	}
}

// notifyReaction emails the author of the reacted-to comment
func (s *NotificationService) notifyReaction(ctx context.Context, record StreamInsert) {
	reactorID := record.Fields["userId"]
	itemID := record.Fields["itemId"]
	commentID := record.Fields["commentId"]

	comment, err := s.comments.GetByID(ctx, itemID, commentID)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			s.logger.Warn("Failed to load comment for reaction notification", zap.Error(err))
		}
		return
	}
	if comment.UserID == reactorID {
		return
	}

	author, err := s.profiles.Get(ctx, comment.UserID)
	if err != nil {
		return
	}

	subject := "Someone appreciated your comment"
	body := fmt.Sprintf(
		`<p>Your comment on <a href="%s/letters/%s">%s</a> got a new reaction.</p>`,
		s.baseURL, comment.ItemID,
		html.EscapeString(fallback(comment.ItemTitle, "a letter")),
	)
	s.send(ctx, author, entities.NotifyReaction, subject, body)
}

// notifyMessage emails the other participants of the conversation
func (s *NotificationService) notifyMessage(ctx context.Context, record StreamInsert) {
	senderID := record.Fields["senderId"]
	senderName := record.Fields["senderName"]
	conversationID := record.Fields["conversationId"]

	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			s.logger.Warn("Failed to load conversation for message notification", zap.Error(err))
		}
		return
	}

	subject := fmt.Sprintf("New message from %s", fallback(senderName, "a family member"))
	body := fmt.Sprintf(
		`<p>%s sent you a <a href="%s/messages/%s">new message</a>.</p>`,
		html.EscapeString(fallback(senderName, "A family member")),
		s.baseURL, conversationID,
	)

	for _, userID := range conv.ParticipantIDs {
		if userID == senderID {
			continue
		}
		profile, err := s.profiles.Get(ctx, userID)
		if err != nil {
			continue
		}
		s.send(ctx, profile, entities.NotifyMessage, subject, body)
	}
}

// send delivers one email if the recipient accepts email and the debounce
// slot is free
func (s *NotificationService) send(ctx context.Context, profile *entities.Profile, kind entities.NotificationKind, subject, body string) {
	if profile.EmailOptOut || profile.Email == "" {
		return
	}

	ok, err := s.profiles.TryMarkNotified(ctx, profile.UserID, kind, debounceWindow)
	if err != nil {
		s.logger.Warn("Debounce check failed",
			zap.String("userId", profile.UserID),
			zap.Error(err),
		)
		return
	}
	if !ok {
		return
	}

	if err := s.emails.Send(ctx, profile.Email, subject, body); err != nil {
		s.logger.Warn("Failed to send notification email",
			zap.String("userId", profile.UserID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}
}

func fallback(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
