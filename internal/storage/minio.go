package storage

import (
	"Go_Attach/config"
	"Go_Attach/utils"
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore implements Store on any S3-compatible endpoint.
type MinioStore struct {
	client     *minio.Client
	bucket     string
	acl        string
	baseURL    string
	extensions Extensions
}

// NewMinioStore builds a Store from a MinIO client.
func NewMinioStore(client *minio.Client, cfg config.StorageConfig) *MinioStore {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = client.EndpointURL().String() + "/" + cfg.S3.Bucket + "/"
	}
	return &MinioStore{
		client:     client,
		bucket:     cfg.S3.Bucket,
		acl:        cfg.S3.ACL,
		baseURL:    baseURL,
		extensions: ParseExtensions(cfg.Extensions),
	}
}

// InitMinio connects to the S3 endpoint and creates the bucket if missing.
func InitMinio(ctx context.Context, cfg config.StorageConfig) (*MinioStore, error) {
	if cfg.S3.Bucket == "" {
		return nil, fmt.Errorf("s3 storage requires aws.bucket_name")
	}
	client, err := minio.New(cfg.S3.Endpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3.AccessKey, cfg.S3.SecretKey, ""),
		Secure: cfg.S3.UseSSL,
		Region: cfg.S3.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	exists, err := client.BucketExists(ctx, cfg.S3.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.S3.Bucket, minio.MakeBucketOptions{Region: cfg.S3.Region}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
		logger := utils.Logger()
		logger.Info().Str("bucket", cfg.S3.Bucket).Msg("created attachment bucket")
	}
	return NewMinioStore(client, cfg), nil
}

func (s *MinioStore) Name() string {
	return string(config.BackendS3)
}

func (s *MinioStore) Allowed(filename string, extensions []string) bool {
	return allowed(s.extensions, filename, extensions)
}

// Save uploads content to the bucket.
func (s *MinioStore) Save(ctx context.Context, content []byte, filename string, opts SaveOptions) (string, error) {
	if !s.Allowed(filename, opts.Extensions) {
		return "", ErrFileNotAllowed
	}
	key, err := buildKey(ctx, filename, opts, s.Exists)
	if err != nil {
		return "", err
	}
	putOpts := minio.PutObjectOptions{
		ContentType:        opts.ContentType(),
		ContentEncoding:    opts.Headers["Content-Encoding"],
		ContentDisposition: opts.Headers["Content-Disposition"],
		CacheControl:       opts.Headers["Cache-Control"],
	}
	if s.acl != "" {
		putOpts.UserMetadata = map[string]string{"x-amz-acl": s.acl}
	}
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(content), int64(len(content)), putOpts)
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return key, nil
}

func (s *MinioStore) URL(location string) string {
	return joinURL(s.baseURL, location)
}

// Delete removes an object. S3 deletes of missing keys succeed.
func (s *MinioStore) Delete(ctx context.Context, location string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, location, minio.RemoveObjectOptions{}); err != nil {
		if isMinioNotFound(err) {
			return nil
		}
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

func (s *MinioStore) Exists(ctx context.Context, location string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, location, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if isMinioNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat object: %w", err)
}

func isMinioNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}
