package entities

import "time"

// NotificationKind identifies an email notification category for debouncing
type NotificationKind string

const (
	NotifyComment  NotificationKind = "comment"
	NotifyReaction NotificationKind = "reaction"
	NotifyMessage  NotificationKind = "message"
)

// Profile holds a user's display data plus denormalized activity counters
// maintained by the stream processor. Counters are advisory.
type Profile struct {
	UserID       string    `json:"userId"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"displayName"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	CommentCount int       `json:"commentCount"`
	LastActive   time.Time `json:"lastActive,omitempty"`

	// LastNotified tracks the last email sent per notification kind,
	// used for the 15-minute debounce window
	LastNotified map[string]time.Time `json:"lastNotified,omitempty"`

	EmailOptOut bool      `json:"emailOptOut"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewProfile creates a profile seeded from identity claims
func NewProfile(userID, email, displayName, avatarURL string) *Profile {
	now := time.Now().UTC()
	return &Profile{
		UserID:      userID,
		Email:       email,
		DisplayName: displayName,
		AvatarURL:   avatarURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
