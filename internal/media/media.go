// Package media is the file-storage collaborator: it accepts an upload and
// returns the URL it will be served from.
package media

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/tiktalkapp/tiktalk-service/internal/config"
)

type Service struct {
	client     *minio.Client
	bucketName string
	config     *config.Media
	useSSL     bool
	endpoint   string
}

// NewService connects to MinIO and makes sure the bucket exists.
func NewService(cfg *config.Config) (*Service, error) {
	client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKeyID, cfg.MinIO.SecretAccessKey, ""),
		Secure: cfg.MinIO.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	service := &Service{
		client:     client,
		bucketName: cfg.MinIO.BucketName,
		config:     &cfg.Media,
		useSSL:     cfg.MinIO.UseSSL,
		endpoint:   cfg.MinIO.Endpoint,
	}

	if err := service.ensureBucket(); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}
	return service, nil
}

func (s *Service) ensureBucket() error {
	ctx := context.Background()

	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

// ValidateContentType checks the upload against the configured allowlist.
func (s *Service) ValidateContentType(contentType string) bool {
	for _, allowed := range s.config.AllowedMimeTypes {
		if contentType == allowed {
			return true
		}
	}
	return false
}

func (s *Service) MaxFileSize() int64 {
	return s.config.MaxFileSize
}

// objectKey keeps the original extension but replaces the name with a uuid
// so uploads never collide.
func objectKey(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return "uploads/" + uuid.NewString() + ext
}

// Store uploads the file and returns its public URL.
func (s *Service) Store(ctx context.Context, r io.Reader, size int64, originalName, contentType string) (string, error) {
	if !s.ValidateContentType(contentType) {
		return "", fmt.Errorf("content type %s is not allowed", contentType)
	}
	if size > s.config.MaxFileSize {
		return "", fmt.Errorf("file exceeds maximum size of %d bytes", s.config.MaxFileSize)
	}

	key := objectKey(originalName)
	_, err := s.client.PutObject(ctx, s.bucketName, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to store file: %w", err)
	}

	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, s.bucketName, key), nil
}
