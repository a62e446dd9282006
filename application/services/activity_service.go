package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"holdthatthought-backend/application/ports"
)

// StreamInsert is a decoded DynamoDB stream INSERT record. Fields holds the
// string attributes of the new image; the entrypoint does the attribute
// value conversion.
type StreamInsert struct {
	PK     string
	SK     string
	Fields map[string]string
}

// IsComment reports whether the record is a new comment row
func (r StreamInsert) IsComment() bool {
	return strings.HasPrefix(r.PK, "COMMENT#") && strings.HasPrefix(r.SK, "COMMENT#")
}

// IsReaction reports whether the record is a new reaction row
func (r StreamInsert) IsReaction() bool {
	return strings.HasPrefix(r.PK, "REACTION#")
}

// IsMessage reports whether the record is a new message row
func (r StreamInsert) IsMessage() bool {
	return strings.HasPrefix(r.PK, "CONV#") && strings.HasPrefix(r.SK, "MSG#")
}

// ActivityService maintains the denormalized activity counters on profiles
// from stream inserts. Per-record failures are logged and skipped so one bad
// record never stalls the stream.
type ActivityService struct {
	profiles ports.ProfileRepository
	logger   *zap.Logger
}

// NewActivityService creates a new activity service
func NewActivityService(profiles ports.ProfileRepository, logger *zap.Logger) *ActivityService {
	return &ActivityService{profiles: profiles, logger: logger}
}

// Process applies one stream insert to the author's profile counters
func (s *ActivityService) Process(ctx context.Context, record StreamInsert) {
	now := time.Now().UTC()

	switch {
	case record.IsComment():
		userID := record.Fields["userId"]
		if userID == "" {
			return
		}
		if err := s.profiles.IncrementCommentCount(ctx, userID); err != nil {
			s.logger.Warn("Failed to bump comment count",
				zap.String("userId", userID),
				zap.Error(err),
			)
		}
		s.touch(ctx, userID, now)

	case record.IsReaction():
		s.touch(ctx, record.Fields["userId"], now)

	case record.IsMessage():
		s.touch(ctx, record.Fields["senderId"], now)
	}
}

func (s *ActivityService) touch(ctx context.Context, userID string, at time.Time) {
	if userID == "" {
		return
	}
	if err := s.profiles.UpdateLastActive(ctx, userID, at); err != nil {
		s.logger.Warn("Failed to update last active",
			zap.String("userId", userID),
			zap.Error(err),
		)
	}
}
