// Package s3 stores images in an S3-compatible bucket.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/imgr-dev/imgr/client/internal/service"
	"github.com/imgr-dev/imgr/shared/config"
	"github.com/imgr-dev/imgr/shared/logger"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var ErrObjectExists = errors.New("object already exists")

type Storage struct {
	client        *minio.Client
	bucket        string
	publicBaseUrl string
	log           *slog.Logger
}

var _ service.ImageStorage = (*Storage)(nil)

func New(cfg config.S3Storage, bucket, accessKey, secretKey string) (*Storage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure:       cfg.UseSSL,
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}

	base := cfg.PublicBaseUrl
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, bucket)
	}

	return &Storage{
		client:        client,
		bucket:        bucket,
		publicBaseUrl: strings.TrimSuffix(base, "/"),
		log:           logger.Component("s3"),
	}, nil
}

// Upload writes name unless it already exists and returns its public URL.
func (s *Storage) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	_, err := s.client.StatObject(ctx, s.bucket, name, minio.StatObjectOptions{})
	switch {
	case err == nil:
		return "", fmt.Errorf("%w: %s", ErrObjectExists, name)
	case minio.ToErrorResponse(err).Code != "NoSuchKey":
		return "", fmt.Errorf("failed to check object %s: %w", name, err)
	}

	info, err := s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to put object %s: %w", name, err)
	}
	s.log.Debug("object stored", "name", name, "size", info.Size, "etag", info.ETag)
	return s.PublicURL(name), nil
}

func (s *Storage) PublicURL(name string) string {
	return s.publicBaseUrl + "/" + url.PathEscape(name)
}
