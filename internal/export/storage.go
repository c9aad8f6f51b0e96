package export

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// ObjectStorage stores export files and hands out temporary download links.
// This interface enables mocking of the storage bucket in tests.
type ObjectStorage interface {
	// Upload writes the content of r to bucket/object.
	Upload(ctx context.Context, bucket, object, contentType string, r io.Reader) error

	// SignedURL returns a GET URL for bucket/object valid until expires.
	SignedURL(ctx context.Context, bucket, object string, expires time.Time) (string, error)
}

// GCSStorage is the ObjectStorage backed by Google Cloud Storage.
// It uses Application Default Credentials; signing needs a service account
// (or the IAM signBlob permission when running on GCP).
type GCSStorage struct {
	client *storage.Client
}

// NewGCSStorage creates a storage client.
func NewGCSStorage(ctx context.Context) (*GCSStorage, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSStorage{client: client}, nil
}

// Upload implements ObjectStorage.
func (s *GCSStorage) Upload(ctx context.Context, bucket, object, contentType string, r io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("copy export to GCS writer: %w", err)
	}

	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload: %w", err)
	}
	return nil
}

// SignedURL implements ObjectStorage with a V4 signature.
func (s *GCSStorage) SignedURL(ctx context.Context, bucket, object string, expires time.Time) (string, error) {
	url, err := s.client.Bucket(bucket).SignedURL(object, &storage.SignedURLOptions{
		Method:  "GET",
		Expires: expires,
		Scheme:  storage.SigningSchemeV4,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate signed URL: %w", err)
	}
	return url, nil
}

// Download reads an object back, e.g. for the CLI to save an export locally.
func (s *GCSStorage) Download(ctx context.Context, gcsURI string) ([]byte, error) {
	bucket, object, err := ParseGCSURI(gcsURI)
	if err != nil {
		return nil, err
	}

	rc, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("Download: reading object %s/%s: %w", bucket, object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("Download: reading bytes: %w", err)
	}
	return data, nil
}

// Close releases the storage client.
func (s *GCSStorage) Close() error {
	return s.client.Close()
}

// GCSURI formats bucket/object as a gs:// URI.
func GCSURI(bucket, object string) string {
	return "gs://" + bucket + "/" + object
}

// ParseGCSURI splits "gs://bucket/path/to/file.csv" into bucket and object.
func ParseGCSURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}

var _ ObjectStorage = (*GCSStorage)(nil)
