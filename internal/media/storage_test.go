package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fakeObjectStore struct {
	buckets map[string]bool
	objects map[string][]byte
	types   map[string]string
	putErr  error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{buckets: map[string]bool{}, objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeObjectStore) BucketExists(_ context.Context, bucket string) (bool, error) {
	return f.buckets[bucket], nil
}

func (f *fakeObjectStore) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	f.buckets[bucket] = true
	return nil
}

func (f *fakeObjectStore) PutObject(_ context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	data, _ := io.ReadAll(reader)
	f.objects[object] = data
	f.types[object] = opts.ContentType
	return minio.UploadInfo{Bucket: bucket, Key: object, Size: size}, nil
}

func TestPutStoresSniffedImage(t *testing.T) {
	fake := newFakeObjectStore()
	s := newStorage(fake, "portfolio-media", "https://cdn.example.com/")

	upload, err := s.Put(context.Background(), bytes.NewReader(pngHeader))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !strings.HasPrefix(upload.Key, "media/") || !strings.HasSuffix(upload.Key, ".png") {
		t.Errorf("unexpected key %q", upload.Key)
	}
	if upload.URL != "https://cdn.example.com/"+upload.Key {
		t.Errorf("unexpected url %q", upload.URL)
	}
	if upload.ContentType != "image/png" || fake.types[upload.Key] != "image/png" {
		t.Errorf("content type = %q", upload.ContentType)
	}
	if upload.Size != int64(len(pngHeader)) {
		t.Errorf("size = %d", upload.Size)
	}
}

func TestPutRejects(t *testing.T) {
	s := newStorage(newFakeObjectStore(), "b", "http://x")

	tests := []struct {
		name string
		body []byte
		err  error
	}{
		{name: "empty", body: nil, err: ErrEmptyUpload},
		{name: "html", body: []byte("<html><script>alert(1)</script></html>"), err: ErrContentTypeDenied},
		{name: "too large", body: append(append([]byte{}, pngHeader...), make([]byte, MaxUploadSize)...), err: ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Put(context.Background(), bytes.NewReader(tt.body))
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}
		})
	}
}

func TestPutPropagatesStoreErrors(t *testing.T) {
	fake := newFakeObjectStore()
	fake.putErr = errors.New("bucket gone")
	s := newStorage(fake, "b", "http://x")
	if _, err := s.Put(context.Background(), bytes.NewReader([]byte("%PDF-1.7\n"))); err == nil {
		t.Fatal("expected error")
	}
}

func TestNilStorageNotConfigured(t *testing.T) {
	var s *Storage
	if _, err := s.Put(context.Background(), bytes.NewReader(pngHeader)); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if err := s.EnsureBucket(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestEnsureBucketCreatesOnce(t *testing.T) {
	fake := newFakeObjectStore()
	s := newStorage(fake, "portfolio-media", "http://x")
	if err := s.EnsureBucket(context.Background()); err != nil {
		t.Fatalf("EnsureBucket: %v", err)
	}
	if !fake.buckets["portfolio-media"] {
		t.Fatal("bucket not created")
	}
	if err := s.EnsureBucket(context.Background()); err != nil {
		t.Fatalf("EnsureBucket second call: %v", err)
	}
}

func TestNewStorageWithoutEndpoint(t *testing.T) {
	s, err := NewStorage(Config{})
	if err != nil || s != nil {
		t.Fatalf("expected nil storage, got %v, %v", s, err)
	}
}

func TestDetectContentType(t *testing.T) {
	ct, ext, err := DetectContentType([]byte("%PDF-1.4 resume"))
	if err != nil || ct != "application/pdf" || ext != ".pdf" {
		t.Errorf("got %q %q %v", ct, ext, err)
	}
}
