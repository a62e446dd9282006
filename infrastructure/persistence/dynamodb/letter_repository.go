package dynamodb

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"holdthatthought-backend/application/ports"
	"holdthatthought-backend/domain/entities"
	apperrors "holdthatthought-backend/pkg/errors"
)

// LetterRepository implements ports.LetterRepository using DynamoDB. Letters
// and drafts each live under their own partition, with a sparse GSI1
// partition ("LETTER" / "DRAFT") so the archive can be listed without a scan.
type LetterRepository struct {
	store  *Store
	logger *zap.Logger
}

// NewLetterRepository creates a new LetterRepository
func NewLetterRepository(store *Store, logger *zap.Logger) ports.LetterRepository {
	return &LetterRepository{store: store, logger: logger}
}

const (
	letterMetaSK  = "META"
	letterIndexPK = "LETTER"
	draftIndexPK  = "DRAFT"
)

type letterItem struct {
	PK            string   `dynamodbav:"PK"` // LETTER#<letterId>
	SK            string   `dynamodbav:"SK"` // META
	GSI1PK        string   `dynamodbav:"GSI1PK"`
	GSI1SK        string   `dynamodbav:"GSI1SK"`
	EntityType    string   `dynamodbav:"EntityType"`
	LetterID      string   `dynamodbav:"letterId"`
	Title         string   `dynamodbav:"title"`
	Author        string   `dynamodbav:"author,omitempty"`
	Recipient     string   `dynamodbav:"recipient,omitempty"`
	LetterDate    string   `dynamodbav:"letterDate,omitempty"`
	Description   string   `dynamodbav:"description,omitempty"`
	Transcription string   `dynamodbav:"transcription,omitempty"`
	Tags          []string `dynamodbav:"tags,omitempty"`
	PageKeys      []string `dynamodbav:"pageKeys,omitempty"`
	CreatedBy     string   `dynamodbav:"createdBy"`
	CreatedAt     string   `dynamodbav:"createdAt"`
	UpdatedAt     string   `dynamodbav:"updatedAt"`
}

type draftItem struct {
	PK            string   `dynamodbav:"PK"` // DRAFT#<draftId>
	SK            string   `dynamodbav:"SK"` // META
	GSI1PK        string   `dynamodbav:"GSI1PK"`
	GSI1SK        string   `dynamodbav:"GSI1SK"`
	EntityType    string   `dynamodbav:"EntityType"`
	DraftID       string   `dynamodbav:"draftId"`
	UploadID      string   `dynamodbav:"uploadId"`
	Status        string   `dynamodbav:"status"`
	ErrorMessage  string   `dynamodbav:"errorMessage,omitempty"`
	Title         string   `dynamodbav:"title,omitempty"`
	Author        string   `dynamodbav:"author,omitempty"`
	Recipient     string   `dynamodbav:"recipient,omitempty"`
	LetterDate    string   `dynamodbav:"letterDate,omitempty"`
	Description   string   `dynamodbav:"description,omitempty"`
	Transcription string   `dynamodbav:"transcription,omitempty"`
	Tags          []string `dynamodbav:"tags,omitempty"`
	PageKeys      []string `dynamodbav:"pageKeys,omitempty"`
	CreatedBy     string   `dynamodbav:"createdBy"`
	CreatedAt     string   `dynamodbav:"createdAt"`
	UpdatedAt     string   `dynamodbav:"updatedAt"`
}

func toLetterItem(l *entities.Letter) letterItem {
	createdAt := l.CreatedAt.UTC().Format(time.RFC3339Nano)
	return letterItem{
		PK:            PrefixLetter + l.LetterID,
		SK:            letterMetaSK,
		GSI1PK:        letterIndexPK,
		GSI1SK:        createdAt + "#" + l.LetterID,
		EntityType:    "LETTER",
		LetterID:      l.LetterID,
		Title:         l.Title,
		Author:        l.Author,
		Recipient:     l.Recipient,
		LetterDate:    l.LetterDate,
		Description:   l.Description,
		Transcription: l.Transcription,
		Tags:          l.Tags,
		PageKeys:      l.PageKeys,
		CreatedBy:     l.CreatedBy,
		CreatedAt:     createdAt,
		UpdatedAt:     l.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func fromLetterItem(item letterItem) *entities.Letter {
	l := &entities.Letter{
		LetterID:      item.LetterID,
		Title:         item.Title,
		Author:        item.Author,
		Recipient:     item.Recipient,
		LetterDate:    item.LetterDate,
		Description:   item.Description,
		Transcription: item.Transcription,
		Tags:          item.Tags,
		PageKeys:      item.PageKeys,
		CreatedBy:     item.CreatedBy,
	}
	l.CreatedAt, _ = time.Parse(time.RFC3339Nano, item.CreatedAt)
	l.UpdatedAt, _ = time.Parse(time.RFC3339Nano, item.UpdatedAt)
	return l
}

func toDraftItem(d *entities.Draft) draftItem {
	createdAt := d.CreatedAt.UTC().Format(time.RFC3339Nano)
	return draftItem{
		PK:            PrefixDraft + d.DraftID,
		SK:            letterMetaSK,
		GSI1PK:        draftIndexPK,
		GSI1SK:        createdAt + "#" + d.DraftID,
		EntityType:    "DRAFT",
		DraftID:       d.DraftID,
		UploadID:      d.UploadID,
		Status:        string(d.Status),
		ErrorMessage:  d.ErrorMessage,
		Title:         d.Title,
		Author:        d.Author,
		Recipient:     d.Recipient,
		LetterDate:    d.LetterDate,
		Description:   d.Description,
		Transcription: d.Transcription,
		Tags:          d.Tags,
		PageKeys:      d.PageKeys,
		CreatedBy:     d.CreatedBy,
		CreatedAt:     createdAt,
		UpdatedAt:     d.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func fromDraftItem(item draftItem) *entities.Draft {
	d := &entities.Draft{
		DraftID:       item.DraftID,
		UploadID:      item.UploadID,
		Status:        entities.DraftStatus(item.Status),
		ErrorMessage:  item.ErrorMessage,
		Title:         item.Title,
		Author:        item.Author,
		Recipient:     item.Recipient,
		LetterDate:    item.LetterDate,
		Description:   item.Description,
		Transcription: item.Transcription,
		Tags:          item.Tags,
		PageKeys:      item.PageKeys,
		CreatedBy:     item.CreatedBy,
	}
	d.CreatedAt, _ = time.Parse(time.RFC3339Nano, item.CreatedAt)
	d.UpdatedAt, _ = time.Parse(time.RFC3339Nano, item.UpdatedAt)
	return d
}

// PutLetter writes the full letter row
func (r *LetterRepository) PutLetter(ctx context.Context, letter *entities.Letter) error {
	if err := r.store.Put(ctx, toLetterItem(letter)); err != nil {
		return apperrors.NewDatabaseError("put letter", err)
	}
	return nil
}

// GetLetter loads one letter
func (r *LetterRepository) GetLetter(ctx context.Context, letterID string) (*entities.Letter, error) {
	var item letterItem
	err := r.store.Get(ctx, PrefixLetter+letterID, letterMetaSK, &item)
	if errors.Is(err, ErrItemNotFound) {
		return nil, apperrors.NewNotFoundError("letter")
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("get letter", err)
	}
	return fromLetterItem(item), nil
}

// ListLetters returns the archive, newest first
func (r *LetterRepository) ListLetters(ctx context.Context) ([]*entities.Letter, error) {
	var items []letterItem
	if err := r.store.QueryIndexPrefix(ctx, letterIndexPK, "", &items); err != nil {
		return nil, apperrors.NewDatabaseError("list letters", err)
	}

	letters := make([]*entities.Letter, 0, len(items))
	for _, item := range items {
		letters = append(letters, fromLetterItem(item))
	}
	sort.Slice(letters, func(i, j int) bool {
		return letters[i].CreatedAt.After(letters[j].CreatedAt)
	})
	return letters, nil
}

// DeleteLetter removes the letter row
func (r *LetterRepository) DeleteLetter(ctx context.Context, letterID string) error {
	if err := r.store.Delete(ctx, PrefixLetter+letterID, letterMetaSK); err != nil {
		return apperrors.NewDatabaseError("delete letter", err)
	}
	return nil
}

// PutDraft writes the full draft row
func (r *LetterRepository) PutDraft(ctx context.Context, draft *entities.Draft) error {
	if err := r.store.Put(ctx, toDraftItem(draft)); err != nil {
		return apperrors.NewDatabaseError("put draft", err)
	}
	return nil
}

// GetDraft loads one draft
func (r *LetterRepository) GetDraft(ctx context.Context, draftID string) (*entities.Draft, error) {
	var item draftItem
	err := r.store.Get(ctx, PrefixDraft+draftID, letterMetaSK, &item)
	if errors.Is(err, ErrItemNotFound) {
		return nil, apperrors.NewNotFoundError("draft")
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("get draft", err)
	}
	return fromDraftItem(item), nil
}

// ListDrafts returns all drafts pending review, newest first
func (r *LetterRepository) ListDrafts(ctx context.Context) ([]*entities.Draft, error) {
	var items []draftItem
	if err := r.store.QueryIndexPrefix(ctx, draftIndexPK, "", &items); err != nil {
		return nil, apperrors.NewDatabaseError("list drafts", err)
	}

	drafts := make([]*entities.Draft, 0, len(items))
	for _, item := range items {
		drafts = append(drafts, fromDraftItem(item))
	}
	sort.Slice(drafts, func(i, j int) bool {
		return drafts[i].CreatedAt.After(drafts[j].CreatedAt)
	})
	return drafts, nil
}

// DeleteDraft removes the draft row
func (r *LetterRepository) DeleteDraft(ctx context.Context, draftID string) error {
	if err := r.store.Delete(ctx, PrefixDraft+draftID, letterMetaSK); err != nil {
		return apperrors.NewDatabaseError("delete draft", err)
	}
	return nil
}
