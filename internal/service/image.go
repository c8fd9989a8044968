package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/foodgram/backend/config"
)

const recipeImagePrefix = "recipes/images"

// MaxImageSize bounds a decoded recipe image.
const MaxImageSize = 5 << 20

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageStore persists recipe images and returns the URL clients load them from
type ImageStore interface {
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// DecodedImage is an image extracted from a base64 data URI
type DecodedImage struct {
	Data        []byte
	ContentType string
	Extension   string
}

// DecodeImage parses "data:image/<type>;base64,<payload>".
func DecodeImage(dataURI string) (*DecodedImage, error) {
	header, payload, ok := strings.Cut(dataURI, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, NewValidationError("image", "Upload the image as a base64 data URI.")
	}

	contentType := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	ext, known := imageExtensions[contentType]
	if !known {
		return nil, NewValidationError("image", fmt.Sprintf("Unsupported image type %q.", contentType))
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, NewValidationError("image", "The image payload is not valid base64.")
	}
	if len(data) == 0 {
		return nil, NewValidationError("image", "The submitted image is empty.")
	}
	if len(data) > MaxImageSize {
		return nil, NewValidationError("image", "The image is too large.")
	}

	return &DecodedImage{Data: data, ContentType: contentType, Extension: ext}, nil
}

// NewImageKey returns a fresh object key for a recipe image
func NewImageKey(ext string) string {
	return recipeImagePrefix + "/" + uuid.NewString() + ext
}

// S3ImageStore uploads images to the configured bucket
type S3ImageStore struct {
	s3Config *config.S3Config
	logger   *zap.Logger
}

func NewS3ImageStore(s3Config *config.S3Config, logger *zap.Logger) *S3ImageStore {
	return &S3ImageStore{s3Config: s3Config, logger: logger}
}

// Save uploads image data to S3 and returns the public URL
func (s *S3ImageStore) Save(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.s3Config.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	publicURL := s.s3Config.ObjectURL(key)
	s.logger.Info("uploaded recipe image", zap.String("url", publicURL))
	return publicURL, nil
}

// LocalImageStore writes images below a media directory served by the API itself
type LocalImageStore struct {
	root    string
	baseURL string
}

func NewLocalImageStore(root, baseURL string) *LocalImageStore {
	return &LocalImageStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *LocalImageStore) Save(_ context.Context, key string, data []byte, _ string) (string, error) {
	path := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return s.baseURL + "/" + key, nil
}
