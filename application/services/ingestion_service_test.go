package services

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"holdthatthought-backend/application/ports"
	"holdthatthought-backend/domain/entities"
	apperrors "holdthatthought-backend/pkg/errors"
)

// fakeMediaStore serves a fixed listing and counts downloads
type fakeMediaStore struct {
	objects   []ports.ObjectInfo
	content   map[string][]byte
	downloads int
}

func (f *fakeMediaStore) List(ctx context.Context, prefix string) ([]ports.ObjectInfo, error) {
	return f.objects, nil
}

func (f *fakeMediaStore) Download(ctx context.Context, key string) ([]byte, error) {
	f.downloads++
	content, ok := f.content[key]
	if !ok {
		return nil, apperrors.NewNotFoundError("object")
	}
	return content, nil
}

func (f *fakeMediaStore) Upload(ctx context.Context, key, mediaType string, body io.Reader) error {
	return nil
}

func (f *fakeMediaStore) Delete(ctx context.Context, key string) error { return nil }

func (f *fakeMediaStore) PresignUpload(ctx context.Context, key, mediaType string, expiry time.Duration) (string, error) {
	return "https://example.com/upload/" + key, nil
}

func (f *fakeMediaStore) PresignDownload(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "https://example.com/download/" + key, nil
}

// fakeExtractor records whether it was called
type fakeExtractor struct {
	called int
	result *ports.ExtractionResult
	err    error
}

func (f *fakeExtractor) Extract(ctx context.Context, doc *entities.Document) (*ports.ExtractionResult, error) {
	f.called++
	return f.result, f.err
}

// fakeLetterRepo captures persisted drafts
type fakeLetterRepo struct {
	drafts  map[string]*entities.Draft
	letters map[string]*entities.Letter
}

func newFakeLetterRepo() *fakeLetterRepo {
	return &fakeLetterRepo{
		drafts:  make(map[string]*entities.Draft),
		letters: make(map[string]*entities.Letter),
	}
}

func (f *fakeLetterRepo) PutLetter(ctx context.Context, l *entities.Letter) error {
	f.letters[l.LetterID] = l
	return nil
}

func (f *fakeLetterRepo) GetLetter(ctx context.Context, id string) (*entities.Letter, error) {
	l, ok := f.letters[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("letter")
	}
	return l, nil
}

func (f *fakeLetterRepo) ListLetters(ctx context.Context) ([]*entities.Letter, error) {
	var out []*entities.Letter
	for _, l := range f.letters {
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeLetterRepo) DeleteLetter(ctx context.Context, id string) error {
	delete(f.letters, id)
	return nil
}

func (f *fakeLetterRepo) PutDraft(ctx context.Context, d *entities.Draft) error {
	f.drafts[d.DraftID] = d
	return nil
}

func (f *fakeLetterRepo) GetDraft(ctx context.Context, id string) (*entities.Draft, error) {
	d, ok := f.drafts[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("draft")
	}
	return d, nil
}

func (f *fakeLetterRepo) ListDrafts(ctx context.Context) ([]*entities.Draft, error) {
	var out []*entities.Draft
	for _, d := range f.drafts {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeLetterRepo) DeleteDraft(ctx context.Context, id string) error {
	delete(f.drafts, id)
	return nil
}

func newIngestionFixture(media *fakeMediaStore, extractor *fakeExtractor) (*IngestionService, *fakeLetterRepo) {
	letters := newFakeLetterRepo()
	svc := NewIngestionService(media, extractor, letters, nil, nil, DefaultIngestionLimits, zap.NewNop())
	return svc, letters
}

func stagedObjects(n int, size int64) ([]ports.ObjectInfo, map[string][]byte) {
	objects := make([]ports.ObjectInfo, 0, n)
	content := make(map[string][]byte, n)
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("staging/up-1/page-%02d.txt", i)
		objects = append(objects, ports.ObjectInfo{Key: key, Size: size, MediaType: "text/plain"})
		content[key] = []byte(fmt.Sprintf("page %d text", i))
	}
	return objects, content
}

func TestIngestTooManyFilesFailsBeforeExtraction(t *testing.T) {
	objects, content := stagedObjects(21, 100)
	media := &fakeMediaStore{objects: objects, content: content}
	extractor := &fakeExtractor{}
	svc, letters := newIngestionFixture(media, extractor)

	_, err := svc.Ingest(context.Background(), "up-1", "staging/up-1/", "admin-1")

	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, err.Error(), "21")
	assert.Zero(t, extractor.called, "extraction must not run")
	assert.Zero(t, media.downloads, "nothing should be downloaded")
	assert.Empty(t, letters.drafts)
}

func TestIngestOversizeFileFailsFast(t *testing.T) {
	objects, content := stagedObjects(2, 100)
	objects[1].Size = DefaultIngestionLimits.MaxFileBytes + 1
	media := &fakeMediaStore{objects: objects, content: content}
	extractor := &fakeExtractor{}
	svc, _ := newIngestionFixture(media, extractor)

	_, err := svc.Ingest(context.Background(), "up-1", "staging/up-1/", "admin-1")

	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Zero(t, extractor.called)
	assert.Zero(t, media.downloads)
}

func TestIngestAggregateSizeFailsFast(t *testing.T) {
	// 20 files under the per-file cap but over the aggregate cap together
	objects, content := stagedObjects(20, 3<<20)
	media := &fakeMediaStore{objects: objects, content: content}
	extractor := &fakeExtractor{}
	svc, _ := newIngestionFixture(media, extractor)

	_, err := svc.Ingest(context.Background(), "up-1", "staging/up-1/", "admin-1")

	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Zero(t, extractor.called)
}

func TestIngestPersistsReviewDraft(t *testing.T) {
	objects, content := stagedObjects(2, 100)
	media := &fakeMediaStore{objects: objects, content: content}
	extractor := &fakeExtractor{result: &ports.ExtractionResult{
		Title:         "Letter from the front",
		Author:        "James",
		Recipient:     "Dorothy",
		Date:          "February 10, 2016",
		Transcription: "Dear Dorothy...",
		Tags:          []string{"War", "  family  "},
	}}
	svc, letters := newIngestionFixture(media, extractor)

	draft, err := svc.Ingest(context.Background(), "up-1", "staging/up-1/", "admin-1")

	require.NoError(t, err)
	assert.Equal(t, entities.DraftStatusReview, draft.Status)
	assert.Equal(t, "Letter from the front", draft.Title)
	assert.Equal(t, "2016-02-10", draft.LetterDate)
	assert.Equal(t, []string{"war", "family"}, draft.Tags)
	assert.Len(t, draft.PageKeys, 2)
	assert.Contains(t, letters.drafts, draft.DraftID)
}

func TestIngestExtractionFailurePersistsErrorDraft(t *testing.T) {
	objects, content := stagedObjects(1, 100)
	media := &fakeMediaStore{objects: objects, content: content}
	extractor := &fakeExtractor{err: apperrors.NewExternalError("letter extraction", assert.AnError)}
	svc, letters := newIngestionFixture(media, extractor)

	draft, err := svc.Ingest(context.Background(), "up-1", "staging/up-1/", "admin-1")

	require.NoError(t, err, "pipeline failures persist state instead of erroring")
	assert.Equal(t, entities.DraftStatusError, draft.Status)
	assert.Contains(t, draft.ErrorMessage, "extraction failed")
	assert.Contains(t, letters.drafts, draft.DraftID)
}

func TestIngestEmptyStagingRejected(t *testing.T) {
	media := &fakeMediaStore{}
	extractor := &fakeExtractor{}
	svc, _ := newIngestionFixture(media, extractor)

	_, err := svc.Ingest(context.Background(), "up-1", "staging/up-1/", "admin-1")

	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}
