package entities

import (
	"time"

	"github.com/google/uuid"

	apperrors "holdthatthought-backend/pkg/errors"
	"holdthatthought-backend/pkg/utils"
)

const (
	maxCommentLength   = 2000
	maxEditHistorySize = 5
)

// CommentEdit is a single entry in a comment's edit history
type CommentEdit struct {
	Text     string    `json:"text"`
	EditedAt time.Time `json:"editedAt"`
}

// Comment is a user comment on an archival item. Author display fields are
// denormalized onto the comment so listings never need a profile lookup.
type Comment struct {
	ItemID        string        `json:"itemId"`
	CommentID     string        `json:"commentId"`
	UserID        string        `json:"userId"`
	UserName      string        `json:"userName"`
	UserAvatar    string        `json:"userAvatar,omitempty"`
	ItemTitle     string        `json:"itemTitle,omitempty"`
	Text          string        `json:"commentText"`
	ReactionCount int           `json:"reactionCount"`
	Deleted       bool          `json:"deleted"`
	EditHistory   []CommentEdit `json:"editHistory,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// NewComment creates a comment with sanitized text
func NewComment(itemID, itemTitle, userID, userName, userAvatar, text string) (*Comment, error) {
	clean := utils.SanitizeText(text)
	if clean == "" {
		return nil, apperrors.NewValidationError("comment text is empty after sanitization")
	}
	if len(clean) > maxCommentLength {
		return nil, apperrors.NewValidationError("comment text exceeds maximum length")
	}

	now := time.Now().UTC()
	return &Comment{
		ItemID:     itemID,
		CommentID:  uuid.New().String(),
		UserID:     userID,
		UserName:   userName,
		UserAvatar: userAvatar,
		ItemTitle:  itemTitle,
		Text:       clean,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Edit replaces the comment text, pushing the previous text onto the edit
// history. History is capped: the oldest entry falls off when a sixth edit
// lands.
func (c *Comment) Edit(text string) error {
	if c.Deleted {
		return apperrors.NewConflictError("cannot edit a deleted comment")
	}

	clean := utils.SanitizeText(text)
	if clean == "" {
		return apperrors.NewValidationError("comment text is empty after sanitization")
	}
	if len(clean) > maxCommentLength {
		return apperrors.NewValidationError("comment text exceeds maximum length")
	}

	c.EditHistory = append(c.EditHistory, CommentEdit{
		Text:     c.Text,
		EditedAt: time.Now().UTC(),
	})
	if len(c.EditHistory) > maxEditHistorySize {
		c.EditHistory = c.EditHistory[len(c.EditHistory)-maxEditHistorySize:]
	}

	c.Text = clean
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// SoftDelete marks the comment deleted without removing the row
func (c *Comment) SoftDelete() {
	c.Deleted = true
	c.Text = ""
	c.UpdatedAt = time.Now().UTC()
}

// OwnedBy reports whether the comment belongs to the given user
func (c *Comment) OwnedBy(userID string) bool {
	return c.UserID == userID
}
