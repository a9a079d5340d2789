package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/lychee-technology/pagekit"
	"go.uber.org/zap"
)

// s3API is the subset of *s3.Client the design store needs.
type s3API interface {
	manager.UploadAPIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3DesignStore writes each envelope to <prefix>/<componentID>.json.
type S3DesignStore struct {
	client   s3API
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

func NewS3DesignStore(client s3API, bucket, prefix string) (*S3DesignStore, error) {
	if client == nil {
		return nil, fmt.Errorf("s3 client cannot be nil")
	}
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket cannot be empty")
	}
	return &S3DesignStore{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
	}, nil
}

func (s *S3DesignStore) objectKey(componentID string) (string, error) {
	if componentID == "" {
		return "", pagekit.NewValidationError("componentId", "component id cannot be empty")
	}
	if strings.Contains(componentID, "..") || strings.ContainsAny(componentID, "/\\") {
		return "", pagekit.NewValidationError("componentId", "component id cannot contain path separators")
	}
	return path.Join(s.prefix, componentID+".json"), nil
}

func (s *S3DesignStore) Save(ctx context.Context, componentID string, envelope []byte) error {
	key, err := s.objectKey(componentID)
	if err != nil {
		return err
	}
	if !json.Valid(envelope) {
		return pagekit.NewInvalidJSONError(fmt.Errorf("envelope for %s is not valid JSON", componentID))
	}

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(envelope),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		zap.S().Errorw("failed to upload design", "bucket", s.bucket, "key", key, "error", err)
		return pagekit.NewSaveFailedError(componentID, err)
	}
	return nil
}

func (s *S3DesignStore) Load(ctx context.Context, componentID string) ([]byte, error) {
	key, err := s.objectKey(componentID)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, pagekit.NewDesignNotFoundError(componentID)
		}
		return nil, pagekit.NewPagekitError(pagekit.ErrorTypeStorage, pagekit.ErrCodeStorageUnavailable, "failed to load design").
			WithDetail("componentId", componentID).
			WithDetail("key", key).
			WithCause(err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read design object %s: %w", key, err)
	}
	return data, nil
}

func isS3NotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return true
		}
	}
	return false
}
