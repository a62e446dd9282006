package services

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"holdthatthought-backend/application/ports"
	apperrors "holdthatthought-backend/pkg/errors"
)

const presignExpiry = 15 * time.Minute

// allowedUploadTypes are the media types clients may stage for ingestion
var allowedUploadTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/tiff":      true,
	"image/webp":      true,
	"text/plain":      true,
	"application/pdf": true,
}

// MediaService hands out presigned URLs for direct-to-bucket uploads and
// downloads. Request bodies never carry file content.
type MediaService struct {
	media         ports.MediaStore
	stagingPrefix string
	logger        *zap.Logger
}

// NewMediaService creates a new media service
func NewMediaService(media ports.MediaStore, stagingPrefix string, logger *zap.Logger) *MediaService {
	return &MediaService{media: media, stagingPrefix: stagingPrefix, logger: logger}
}

// UploadTicket is a presigned upload grant
type UploadTicket struct {
	UploadID string `json:"uploadId"`
	Key      string `json:"key"`
	URL      string `json:"url"`
}

// CreateUpload opens a new staging area and returns a presigned PUT URL for
// the first file. Subsequent files for the same letter reuse the uploadId.
func (s *MediaService) CreateUpload(ctx context.Context, userID, filename, mediaType string) (*UploadTicket, error) {
	if !allowedUploadTypes[mediaType] {
		return nil, apperrors.NewValidationError(fmt.Sprintf("media type %q is not accepted", mediaType))
	}

	uploadID := uuid.New().String()
	key := s.stagedKey(uploadID, filename)
	url, err := s.media.PresignUpload(ctx, key, mediaType, presignExpiry)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Upload staged",
		zap.String("uploadId", uploadID),
		zap.String("userId", userID),
	)
	return &UploadTicket{UploadID: uploadID, Key: key, URL: url}, nil
}

// AddUploadFile returns a presigned PUT URL for another file in an existing
// staging area
func (s *MediaService) AddUploadFile(ctx context.Context, uploadID, filename, mediaType string) (*UploadTicket, error) {
	if !allowedUploadTypes[mediaType] {
		return nil, apperrors.NewValidationError(fmt.Sprintf("media type %q is not accepted", mediaType))
	}

	key := s.stagedKey(uploadID, filename)
	url, err := s.media.PresignUpload(ctx, key, mediaType, presignExpiry)
	if err != nil {
		return nil, err
	}
	return &UploadTicket{UploadID: uploadID, Key: key, URL: url}, nil
}

// DownloadURL returns a presigned GET URL for a stored object
func (s *MediaService) DownloadURL(ctx context.Context, key string) (string, error) {
	if strings.Contains(key, "..") {
		return "", apperrors.NewValidationError("invalid object key")
	}
	return s.media.PresignDownload(ctx, key, presignExpiry)
}

// StagingPrefix returns the S3 prefix holding an upload's staged files
func (s *MediaService) StagingPrefix(uploadID string) string {
	return path.Join(s.stagingPrefix, uploadID) + "/"
}

func (s *MediaService) stagedKey(uploadID, filename string) string {
	base := path.Base(filename)
	if base == "." || base == "/" || base == "" {
		base = "file"
	}
	return path.Join(s.stagingPrefix, uploadID, base)
}
