package entities

import (
	"time"

	"github.com/google/uuid"

	apperrors "holdthatthought-backend/pkg/errors"
	"holdthatthought-backend/pkg/utils"
)

// DraftStatus tracks an ingested draft through review
type DraftStatus string

const (
	DraftStatusReview   DraftStatus = "REVIEW"
	DraftStatusError    DraftStatus = "ERROR"
	DraftStatusApproved DraftStatus = "APPROVED"
)

// Letter is a published archival letter
type Letter struct {
	LetterID      string   `json:"letterId"`
	Title         string   `json:"title"`
	Author        string   `json:"author,omitempty"`
	Recipient     string   `json:"recipient,omitempty"`
	LetterDate    string   `json:"letterDate,omitempty"` // ISO 8601 date, may be empty
	Description   string   `json:"description,omitempty"`
	Transcription string   `json:"transcription,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	PageKeys      []string `json:"pageKeys,omitempty"` // media object keys, in page order

	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UpdateFields applies an edit to the letter's metadata, sanitizing inputs.
// Nil pointers leave the corresponding field untouched.
func (l *Letter) UpdateFields(title, author, recipient, letterDate, description, transcription *string, tags *[]string) error {
	if title != nil {
		clean := utils.SanitizeText(*title)
		if clean == "" {
			return apperrors.NewValidationError("letter title cannot be empty")
		}
		l.Title = clean
	}
	if author != nil {
		l.Author = utils.SanitizeText(*author)
	}
	if recipient != nil {
		l.Recipient = utils.SanitizeText(*recipient)
	}
	if letterDate != nil {
		if *letterDate == "" {
			l.LetterDate = ""
		} else {
			iso := utils.ExtractDate(*letterDate)
			if iso == "" {
				return apperrors.NewValidationError("letter date is not a recognizable date")
			}
			l.LetterDate = iso
		}
	}
	if description != nil {
		l.Description = utils.SanitizeText(*description)
	}
	if transcription != nil {
		l.Transcription = utils.SanitizeText(*transcription)
	}
	if tags != nil {
		l.Tags = utils.SanitizeTags(*tags)
	}

	l.UpdatedAt = time.Now().UTC()
	return nil
}

// Draft is the output of the ingestion pipeline, awaiting review
type Draft struct {
	DraftID       string      `json:"draftId"`
	UploadID      string      `json:"uploadId"`
	Status        DraftStatus `json:"status"`
	ErrorMessage  string      `json:"errorMessage,omitempty"`
	Title         string      `json:"title,omitempty"`
	Author        string      `json:"author,omitempty"`
	Recipient     string      `json:"recipient,omitempty"`
	LetterDate    string      `json:"letterDate,omitempty"`
	Description   string      `json:"description,omitempty"`
	Transcription string      `json:"transcription,omitempty"`
	Tags          []string    `json:"tags,omitempty"`
	PageKeys      []string    `json:"pageKeys,omitempty"`
	CreatedBy     string      `json:"createdBy"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// NewDraft creates an empty draft for an ingestion run
func NewDraft(uploadID, createdBy string) *Draft {
	now := time.Now().UTC()
	return &Draft{
		DraftID:   uuid.New().String(),
		UploadID:  uploadID,
		Status:    DraftStatusReview,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Fail marks the draft as failed with a message, preserving the failure
// instead of dropping it
func (d *Draft) Fail(message string) {
	d.Status = DraftStatusError
	d.ErrorMessage = message
	d.UpdatedAt = time.Now().UTC()
}

// ToLetter promotes an approved draft into a published letter
func (d *Draft) ToLetter() (*Letter, error) {
	if d.Status == DraftStatusError {
		return nil, apperrors.NewConflictError("cannot approve a failed draft")
	}

	title := d.Title
	if title == "" {
		title = "Untitled letter"
	}

	now := time.Now().UTC()
	return &Letter{
		LetterID:      uuid.New().String(),
		Title:         title,
		Author:        d.Author,
		Recipient:     d.Recipient,
		LetterDate:    d.LetterDate,
		Description:   d.Description,
		Transcription: d.Transcription,
		Tags:          d.Tags,
		PageKeys:      d.PageKeys,
		CreatedBy:     d.CreatedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}
