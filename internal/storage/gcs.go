package storage

import (
	"Go_Attach/config"
	"context"
	"errors"
	"fmt"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const gcsPublicURL = "https://storage.googleapis.com/"

// GCSStore implements Store on a Google Cloud Storage bucket.
type GCSStore struct {
	client     *gcs.Client
	bucket     string
	acl        string
	baseURL    string
	extensions Extensions
}

// NewGCSStore opens a client with the service account file in
// gcloud.credentials.
func NewGCSStore(ctx context.Context, cfg config.StorageConfig) (*GCSStore, error) {
	if cfg.GCS.Bucket == "" {
		return nil, errors.New("gcloud storage requires gcloud.bucket_name")
	}
	client, err := gcs.NewClient(ctx, option.WithCredentialsFile(cfg.GCS.Credentials))
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = gcsPublicURL + cfg.GCS.Bucket + "/"
	}
	return &GCSStore{
		client:     client,
		bucket:     cfg.GCS.Bucket,
		acl:        cfg.GCS.ACL,
		baseURL:    baseURL,
		extensions: ParseExtensions(cfg.Extensions),
	}, nil
}

func (s *GCSStore) Name() string {
	return string(config.BackendGCS)
}

func (s *GCSStore) Allowed(filename string, extensions []string) bool {
	return allowed(s.extensions, filename, extensions)
}

func (s *GCSStore) Save(ctx context.Context, content []byte, filename string, opts SaveOptions) (string, error) {
	if !s.Allowed(filename, opts.Extensions) {
		return "", ErrFileNotAllowed
	}
	key, err := buildKey(ctx, filename, opts, s.Exists)
	if err != nil {
		return "", err
	}
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = opts.ContentType()
	w.ContentEncoding = opts.Headers["Content-Encoding"]
	w.ContentDisposition = opts.Headers["Content-Disposition"]
	w.CacheControl = opts.Headers["Cache-Control"]
	if s.acl != "" {
		w.PredefinedACL = s.acl
	}
	if _, err := w.Write(content); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close object: %w", err)
	}
	return key, nil
}

func (s *GCSStore) URL(location string) string {
	return joinURL(s.baseURL, location)
}

func (s *GCSStore) Delete(ctx context.Context, location string) error {
	err := s.client.Bucket(s.bucket).Object(location).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (s *GCSStore) Exists(ctx context.Context, location string) (bool, error) {
	_, err := s.client.Bucket(s.bucket).Object(location).Attrs(ctx)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("object attrs: %w", err)
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
