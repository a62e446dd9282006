package entities

import "time"

// Reaction records that a user reacted to a comment. The (CommentID, UserID)
// pair is the identity: at most one reaction per user per comment.
type Reaction struct {
	CommentID    string    `json:"commentId"`
	UserID       string    `json:"userId"`
	ItemID       string    `json:"itemId"`
	ReactionType string    `json:"reactionType"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NewReaction creates a reaction row
func NewReaction(commentID, userID, itemID, reactionType string) *Reaction {
	if reactionType == "" {
		reactionType = "heart"
	}
	return &Reaction{
		CommentID:    commentID,
		UserID:       userID,
		ItemID:       itemID,
		ReactionType: reactionType,
		CreatedAt:    time.Now().UTC(),
	}
}
