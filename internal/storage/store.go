package storage

import (
	"context"
	"errors"
)

// ErrFileNotAllowed is returned by Save when the filename extension is not
// part of the effective allow-list.
var ErrFileNotAllowed = errors.New("file extension is not allowed")

// SaveOptions describes how a blob is written.
type SaveOptions struct {
	Folder     string            // key prefix, slash separated
	Randomize  bool              // replace the name with a random one, keeping the extension
	Replace    bool              // overwrite an existing key instead of picking a free one
	Headers    map[string]string // stored with the object (Content-Type...)
	Extensions []string          // overrides the configured allow-list for this call
}

// ContentType returns the Content-Type header, if any.
func (o SaveOptions) ContentType() string {
	return o.Headers["Content-Type"]
}

// Store abstracts the blob backend holding attachments.
// Locations returned by Save are backend-relative keys; URL turns them into
// public URLs.
type Store interface {
	Save(ctx context.Context, content []byte, filename string, opts SaveOptions) (string, error)
	URL(location string) string
	Delete(ctx context.Context, location string) error
	Exists(ctx context.Context, location string) (bool, error)
	Allowed(filename string, extensions []string) bool
	Name() string
}
