package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"holdthatthought-backend/application/ports"
	"holdthatthought-backend/domain/entities"
	"holdthatthought-backend/domain/events"
	apperrors "holdthatthought-backend/pkg/errors"
	"holdthatthought-backend/pkg/utils"
)

// IngestionLimits bound what one ingestion run will accept. The checks run
// against the staging listing, before any download or model call.
type IngestionLimits struct {
	MaxFiles      int
	MaxFileBytes  int64
	MaxTotalBytes int64
}

// DefaultIngestionLimits mirror what the upload UI enforces client-side
var DefaultIngestionLimits = IngestionLimits{
	MaxFiles:      20,
	MaxFileBytes:  10 << 20,
	MaxTotalBytes: 40 << 20,
}

// IngestLocker serializes ingestion runs per staging prefix
type IngestLocker interface {
	Acquire(ctx context.Context, resource, owner string) error
	Release(ctx context.Context, resource, owner string) error
}

// IngestionService runs the letter ingestion pipeline: staged uploads are
// merged into one paginated document, sent to the extraction model, and the
// normalized result is persisted as a draft for review. Pipeline failures
// after extraction starts persist an ERROR draft instead of dropping the
// upload.
type IngestionService struct {
	media     ports.MediaStore
	extractor ports.Extractor
	letters   ports.LetterRepository
	eventBus  ports.EventBus
	locker    IngestLocker
	limits    IngestionLimits
	logger    *zap.Logger
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(
	media ports.MediaStore,
	extractor ports.Extractor,
	letters ports.LetterRepository,
	eventBus ports.EventBus,
	locker IngestLocker,
	limits IngestionLimits,
	logger *zap.Logger,
) *IngestionService {
	if limits.MaxFiles == 0 {
		limits = DefaultIngestionLimits
	}
	return &IngestionService{
		media:     media,
		extractor: extractor,
		letters:   letters,
		eventBus:  eventBus,
		locker:    locker,
		limits:    limits,
		logger:    logger,
	}
}

// Ingest runs the pipeline for the staged upload under prefix. It returns the
// persisted draft, whose status reports whether extraction succeeded.
func (s *IngestionService) Ingest(ctx context.Context, uploadID, prefix, requestedBy string) (*entities.Draft, error) {
	owner := uuid.New().String()
	if s.locker != nil {
		if err := s.locker.Acquire(ctx, prefix, owner); err != nil {
			return nil, err
		}
		defer func() {
			if err := s.locker.Release(ctx, prefix, owner); err != nil {
				s.logger.Warn("Failed to release ingest lock",
					zap.String("prefix", prefix),
					zap.Error(err),
				)
			}
		}()
	}

	objects, err := s.media.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	if err := s.checkLimits(objects); err != nil {
		return nil, err
	}

	files, err := s.download(ctx, objects)
	if err != nil {
		return nil, err
	}

	doc, err := entities.MergeFiles(files)
	if err != nil {
		return nil, err
	}

	draft := entities.NewDraft(uploadID, requestedBy)
	for _, f := range files {
		draft.PageKeys = append(draft.PageKeys, f.Key)
	}

	result, err := s.extractor.Extract(ctx, doc)
	if err != nil {
		s.logger.Error("Extraction failed, persisting failed draft",
			zap.String("uploadId", uploadID),
			zap.Error(err),
		)
		draft.Fail(fmt.Sprintf("extraction failed: %v", err))
	} else {
		applyExtraction(draft, result)
	}

	if err := s.letters.PutDraft(ctx, draft); err != nil {
		return nil, err
	}

	if s.eventBus != nil {
		event := events.NewDraftIngested(draft.DraftID, string(draft.Status))
		if pubErr := s.eventBus.Publish(ctx, event); pubErr != nil {
			s.logger.Warn("Failed to publish domain event",
				zap.String("eventType", event.GetEventType()),
				zap.Error(pubErr),
			)
		}
	}

	s.logger.Info("Ingestion finished",
		zap.String("uploadId", uploadID),
		zap.String("draftId", draft.DraftID),
		zap.String("status", string(draft.Status)),
	)
	return draft, nil
}

// checkLimits validates the staging listing before anything is downloaded or
// sent to the model
func (s *IngestionService) checkLimits(objects []ports.ObjectInfo) error {
	if len(objects) == 0 {
		return apperrors.NewValidationError("no staged files to ingest")
	}
	if len(objects) > s.limits.MaxFiles {
		return apperrors.NewValidationError(fmt.Sprintf(
			"%d staged files exceed the limit of %d", len(objects), s.limits.MaxFiles))
	}

	var total int64
	for _, obj := range objects {
		if obj.Size > s.limits.MaxFileBytes {
			return apperrors.NewValidationError(fmt.Sprintf(
				"file %s (%d bytes) exceeds the per-file limit of %d bytes",
				obj.Key, obj.Size, s.limits.MaxFileBytes))
		}
		total += obj.Size
	}
	if total > s.limits.MaxTotalBytes {
		return apperrors.NewValidationError(fmt.Sprintf(
			"staged files total %d bytes, exceeding the limit of %d bytes",
			total, s.limits.MaxTotalBytes))
	}
	return nil
}

func (s *IngestionService) download(ctx context.Context, objects []ports.ObjectInfo) ([]entities.StagedFile, error) {
	files := make([]entities.StagedFile, 0, len(objects))
	for _, obj := range objects {
		content, err := s.media.Download(ctx, obj.Key)
		if err != nil {
			return nil, err
		}
		files = append(files, entities.StagedFile{
			Key:       obj.Key,
			MediaType: obj.MediaType,
			Size:      obj.Size,
			Content:   content,
		})
	}
	return files, nil
}

// applyExtraction normalizes the model output onto the draft. A bad date is
// dropped rather than failing the draft; everything else is sanitized text.
func applyExtraction(draft *entities.Draft, result *ports.ExtractionResult) {
	draft.Title = utils.SanitizeText(result.Title)
	draft.Author = utils.SanitizeText(result.Author)
	draft.Recipient = utils.SanitizeText(result.Recipient)
	draft.LetterDate = utils.ExtractDate(result.Date)
	draft.Description = utils.SanitizeText(result.Description)
	draft.Transcription = utils.SanitizeText(result.Transcription)
	draft.Tags = utils.SanitizeTags(result.Tags)
	draft.UpdatedAt = time.Now().UTC()
}
