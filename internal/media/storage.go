// Package media stores uploaded images and resume files in S3-compatible object storage.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"portfolio/api/internal/util"
)

// MaxUploadSize is the largest accepted upload.
const MaxUploadSize int64 = 10 << 20

var (
	ErrNotConfigured     = errors.New("media storage not configured")
	ErrEmptyUpload       = errors.New("upload is empty")
	ErrTooLarge          = errors.New("upload exceeds 10 MiB")
	ErrContentTypeDenied = errors.New("content type not allowed")
)

var allowedContentTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"image/gif":       ".gif",
	"application/pdf": ".pdf",
}

// Config holds the object storage connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

// Upload is a stored object.
type Upload struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

type objectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Storage writes uploads to a MinIO (or any S3-compatible) bucket.
type Storage struct {
	client    objectStore
	bucket    string
	publicURL string
}

// NewStorage connects to the endpoint. An empty endpoint returns (nil, nil)
// so callers can treat media uploads as disabled.
func NewStorage(cfg Config) (*Storage, error) {
	if cfg.Endpoint == "" {
		return nil, nil
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + cfg.Endpoint + "/" + cfg.Bucket
	}
	return newStorage(client, cfg.Bucket, publicURL), nil
}

func newStorage(client objectStore, bucket, publicURL string) *Storage {
	return &Storage{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	if s == nil {
		return ErrNotConfigured
	}
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Put validates and stores the content under media/<uuid><ext>. The content
// type is sniffed from the bytes; the client-declared type is not trusted.
func (s *Storage) Put(ctx context.Context, r io.Reader) (Upload, error) {
	if s == nil {
		return Upload{}, ErrNotConfigured
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return Upload{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return Upload{}, ErrEmptyUpload
	}
	if int64(len(data)) > MaxUploadSize {
		return Upload{}, ErrTooLarge
	}

	contentType, ext, err := DetectContentType(data)
	if err != nil {
		return Upload{}, err
	}

	key := "media/" + util.NewID("") + ext
	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000, immutable",
	})
	if err != nil {
		return Upload{}, fmt.Errorf("put object %s: %w", key, err)
	}

	return Upload{
		Key:         info.Key,
		URL:         s.publicURL + "/" + (&url.URL{Path: info.Key}).EscapedPath(),
		ContentType: contentType,
		Size:        info.Size,
	}, nil
}

// DetectContentType sniffs data and reports its MIME type and file extension,
// or ErrContentTypeDenied when it is not an accepted image or PDF.
func DetectContentType(data []byte) (string, string, error) {
	contentType := http.DetectContentType(data)
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	ext, ok := allowedContentTypes[contentType]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrContentTypeDenied, contentType)
	}
	return contentType, ext, nil
}
