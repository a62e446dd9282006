// Package s3 implements the media store over an S3 bucket. Uploads land under
// a staging prefix until ingestion publishes them; letter pages live under
// letters/<letterId>/.
package s3

import (
	"context"
	"errors"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"holdthatthought-backend/application/ports"
	"holdthatthought-backend/domain/entities"
	apperrors "holdthatthought-backend/pkg/errors"
)

// MediaStore implements ports.MediaStore over one S3 bucket
type MediaStore struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	logger  *zap.Logger
}

// NewMediaStore creates a media store bound to bucket
func NewMediaStore(client *s3.Client, bucket string, logger *zap.Logger) *MediaStore {
	return &MediaStore{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
		logger:  logger,
	}
}

// List returns the objects under prefix with their size and media type. The
// media type comes from the key extension; S3 list output does not carry
// Content-Type.
func (m *MediaStore) List(ctx context.Context, prefix string) ([]ports.ObjectInfo, error) {
	var objects []ports.ObjectInfo

	paginator := s3.NewListObjectsV2Paginator(m.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(m.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, apperrors.NewExternalError("list staged objects", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, "/") {
				continue
			}
			objects = append(objects, ports.ObjectInfo{
				Key:       key,
				Size:      aws.ToInt64(obj.Size),
				MediaType: mediaTypeForKey(key),
			})
		}
	}
	return objects, nil
}

// Download reads one object fully into memory
func (m *MediaStore) Download(ctx context.Context, key string) ([]byte, error) {
	result, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *s3types.NoSuchKey
		if errors.As(err, &notFound) {
			return nil, apperrors.NewNotFoundError("object")
		}
		return nil, apperrors.NewExternalError("download object", err)
	}
	defer result.Body.Close()

	body, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, apperrors.NewExternalError("download object", err)
	}
	return body, nil
}

// Upload writes one object
func (m *MediaStore) Upload(ctx context.Context, key, mediaType string, body io.Reader) error {
	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(mediaType),
	})
	if err != nil {
		return apperrors.NewExternalError("upload object", err)
	}
	return nil
}

// Delete removes one object. Deleting an absent key succeeds.
func (m *MediaStore) Delete(ctx context.Context, key string) error {
	_, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return apperrors.NewExternalError("delete object", err)
	}
	return nil
}

// PresignUpload returns a time-limited PUT URL for direct client uploads
func (m *MediaStore) PresignUpload(ctx context.Context, key, mediaType string, expiry time.Duration) (string, error) {
	req, err := m.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(mediaType),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", apperrors.NewExternalError("presign upload", err)
	}
	return req.URL, nil
}

// PresignDownload returns a time-limited GET URL
func (m *MediaStore) PresignDownload(ctx context.Context, key string, expiry time.Duration) (string, error) {
	req, err := m.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", apperrors.NewExternalError("presign download", err)
	}
	return req.URL, nil
}

func mediaTypeForKey(key string) string {
	if strings.HasSuffix(key, ".pages.json") {
		return entities.PagesMediaType
	}
	if mt := mime.TypeByExtension(path.Ext(key)); mt != "" {
		if i := strings.Index(mt, ";"); i > 0 {
			mt = mt[:i]
		}
		return mt
	}
	return "application/octet-stream"
}
