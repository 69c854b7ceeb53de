package storage

import (
	"Go_Attach/config"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore keeps blobs under a directory on local disk.
type LocalStore struct {
	basePath   string
	baseURL    string
	extensions Extensions
}

// NewLocalStore creates the base directory if needed.
func NewLocalStore(cfg config.StorageConfig) (*LocalStore, error) {
	if cfg.BasePath == "" {
		return nil, errors.New("local storage requires base_path")
	}
	if err := os.MkdirAll(cfg.BasePath, 0o755); err != nil {
		return nil, fmt.Errorf("create base path: %w", err)
	}
	return &LocalStore{
		basePath:   cfg.BasePath,
		baseURL:    cfg.BaseURL,
		extensions: ParseExtensions(cfg.Extensions),
	}, nil
}

func (s *LocalStore) Name() string {
	return string(config.BackendLocal)
}

func (s *LocalStore) Allowed(filename string, extensions []string) bool {
	return allowed(s.extensions, filename, extensions)
}

// Save writes content and returns its key relative to base_path.
func (s *LocalStore) Save(ctx context.Context, content []byte, filename string, opts SaveOptions) (string, error) {
	if !s.Allowed(filename, opts.Extensions) {
		return "", ErrFileNotAllowed
	}
	key, err := buildKey(ctx, filename, opts, s.Exists)
	if err != nil {
		return "", err
	}
	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("ensure folder: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	return key, nil
}

func (s *LocalStore) URL(location string) string {
	return joinURL(s.baseURL, location)
}

// Delete removes the blob. A missing file is not an error.
func (s *LocalStore) Delete(ctx context.Context, location string) error {
	if location == "" {
		return nil
	}
	if err := os.Remove(s.path(location)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

func (s *LocalStore) Exists(ctx context.Context, location string) (bool, error) {
	_, err := os.Stat(s.path(location))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (s *LocalStore) path(key string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(key))
}
