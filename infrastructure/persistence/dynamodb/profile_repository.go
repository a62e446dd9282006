package dynamodb

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"go.uber.org/zap"

	"holdthatthought-backend/application/ports"
	"holdthatthought-backend/domain/entities"
	apperrors "holdthatthought-backend/pkg/errors"
)

// ProfileRepository implements ports.ProfileRepository using DynamoDB
type ProfileRepository struct {
	store  *Store
	logger *zap.Logger
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(store *Store, logger *zap.Logger) ports.ProfileRepository {
	return &ProfileRepository{store: store, logger: logger}
}

const profileSK = "PROFILE"

const profileIndexPK = "PROFILE"

type profileItem struct {
	PK           string `dynamodbav:"PK"` // USER#<userId>
	SK           string `dynamodbav:"SK"` // PROFILE
	GSI1PK       string `dynamodbav:"GSI1PK"`
	GSI1SK       string `dynamodbav:"GSI1SK"`
	EntityType   string `dynamodbav:"EntityType"`
	UserID       string `dynamodbav:"userId"`
	Email        string `dynamodbav:"email"`
	DisplayName  string `dynamodbav:"displayName"`
	AvatarURL    string `dynamodbav:"avatarUrl,omitempty"`
	Bio          string `dynamodbav:"bio,omitempty"`
	CommentCount int    `dynamodbav:"commentCount"`
	LastActive   string `dynamodbav:"lastActive,omitempty"`
	EmailOptOut  bool   `dynamodbav:"emailOptOut"`

	// Debounce stamps live as flat attributes so TryMarkNotified can SET
	// one conditionally without a parent map existing first
	NotifiedComment  string `dynamodbav:"lastNotified_comment,omitempty"`
	NotifiedReaction string `dynamodbav:"lastNotified_reaction,omitempty"`
	NotifiedMessage  string `dynamodbav:"lastNotified_message,omitempty"`
	CreatedAt        string `dynamodbav:"createdAt"`
	UpdatedAt        string `dynamodbav:"updatedAt"`
}

func toProfileItem(p *entities.Profile) profileItem {
	item := profileItem{
		PK:           PrefixUser + p.UserID,
		SK:           profileSK,
		GSI1PK:       profileIndexPK,
		GSI1SK:       PrefixUser + p.UserID,
		EntityType:   "PROFILE",
		UserID:       p.UserID,
		Email:        p.Email,
		DisplayName:  p.DisplayName,
		AvatarURL:    p.AvatarURL,
		Bio:          p.Bio,
		CommentCount: p.CommentCount,
		EmailOptOut:  p.EmailOptOut,
		CreatedAt:    p.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:    p.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if !p.LastActive.IsZero() {
		item.LastActive = p.LastActive.UTC().Format(time.RFC3339Nano)
	}
	if t, ok := p.LastNotified[string(entities.NotifyComment)]; ok {
		item.NotifiedComment = t.UTC().Format(time.RFC3339Nano)
	}
	if t, ok := p.LastNotified[string(entities.NotifyReaction)]; ok {
		item.NotifiedReaction = t.UTC().Format(time.RFC3339Nano)
	}
	if t, ok := p.LastNotified[string(entities.NotifyMessage)]; ok {
		item.NotifiedMessage = t.UTC().Format(time.RFC3339Nano)
	}
	return item
}

func fromProfileItem(item profileItem) *entities.Profile {
	p := &entities.Profile{
		UserID:       item.UserID,
		Email:        item.Email,
		DisplayName:  item.DisplayName,
		AvatarURL:    item.AvatarURL,
		Bio:          item.Bio,
		CommentCount: item.CommentCount,
		EmailOptOut:  item.EmailOptOut,
	}
	if item.LastActive != "" {
		p.LastActive, _ = time.Parse(time.RFC3339Nano, item.LastActive)
	}
	stamps := map[string]string{
		string(entities.NotifyComment):  item.NotifiedComment,
		string(entities.NotifyReaction): item.NotifiedReaction,
		string(entities.NotifyMessage):  item.NotifiedMessage,
	}
	for kind, s := range stamps {
		if s == "" {
			continue
		}
		if p.LastNotified == nil {
			p.LastNotified = make(map[string]time.Time)
		}
		p.LastNotified[kind], _ = time.Parse(time.RFC3339Nano, s)
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, item.CreatedAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, item.UpdatedAt)
	return p
}

// Get loads a profile by user id
func (r *ProfileRepository) Get(ctx context.Context, userID string) (*entities.Profile, error) {
	var item profileItem
	err := r.store.Get(ctx, PrefixUser+userID, profileSK, &item)
	if errors.Is(err, ErrItemNotFound) {
		return nil, apperrors.NewNotFoundError("profile")
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("get profile", err)
	}
	return fromProfileItem(item), nil
}

// Put writes the full profile row
func (r *ProfileRepository) Put(ctx context.Context, profile *entities.Profile) error {
	if err := r.store.Put(ctx, toProfileItem(profile)); err != nil {
		return apperrors.NewDatabaseError("put profile", err)
	}
	return nil
}

// List returns every profile via the sparse index partition
func (r *ProfileRepository) List(ctx context.Context) ([]*entities.Profile, error) {
	var items []profileItem
	if err := r.store.QueryIndexPrefix(ctx, profileIndexPK, "", &items); err != nil {
		return nil, apperrors.NewDatabaseError("list profiles", err)
	}

	profiles := make([]*entities.Profile, 0, len(items))
	for _, item := range items {
		profiles = append(profiles, fromProfileItem(item))
	}
	return profiles, nil
}

// IncrementCommentCount atomically bumps the denormalized counter. Missing
// profiles are skipped rather than created; the counter is advisory.
func (r *ProfileRepository) IncrementCommentCount(ctx context.Context, userID string) error {
	update := expression.Add(expression.Name("commentCount"), expression.Value(1))
	cond := expression.AttributeExists(expression.Name("PK"))
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return apperrors.NewDatabaseError("increment comment count", err)
	}

	err = r.store.Update(ctx, PrefixUser+userID, profileSK, expr)
	if errors.Is(err, ErrConditionFailed) {
		r.logger.Debug("Skipping comment count for unknown profile", zap.String("userId", userID))
		return nil
	}
	if err != nil {
		return apperrors.NewDatabaseError("increment comment count", err)
	}
	return nil
}

// UpdateLastActive stamps the profile's lastActive marker
func (r *ProfileRepository) UpdateLastActive(ctx context.Context, userID string, at time.Time) error {
	update := expression.Set(expression.Name("lastActive"), expression.Value(at.UTC().Format(time.RFC3339Nano)))
	cond := expression.AttributeExists(expression.Name("PK"))
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return apperrors.NewDatabaseError("update last active", err)
	}

	err = r.store.Update(ctx, PrefixUser+userID, profileSK, expr)
	if errors.Is(err, ErrConditionFailed) {
		return nil
	}
	if err != nil {
		return apperrors.NewDatabaseError("update last active", err)
	}
	return nil
}

// TryMarkNotified claims the debounce slot for one notification kind. It
// succeeds only when no email of that kind was recorded inside the window,
// so concurrent stream invocations cannot both send.
func (r *ProfileRepository) TryMarkNotified(ctx context.Context, userID string, kind entities.NotificationKind, window time.Duration) (bool, error) {
	now := time.Now().UTC()
	cutoff := now.Add(-window).Format(time.RFC3339Nano)
	field := expression.Name("lastNotified_" + string(kind))

	update := expression.Set(field, expression.Value(now.Format(time.RFC3339Nano)))
	cond := expression.AttributeExists(expression.Name("PK")).
		And(expression.Or(
			expression.AttributeNotExists(field),
			field.LessThan(expression.Value(cutoff)),
		))
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return false, apperrors.NewDatabaseError("mark notified", err)
	}

	err = r.store.Update(ctx, PrefixUser+userID, profileSK, expr)
	if errors.Is(err, ErrConditionFailed) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.NewDatabaseError("mark notified", err)
	}
	return true, nil
}
