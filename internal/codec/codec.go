// Package codec hashes uploaded content and optionally gzips it before storage.
package codec

import (
	"Go_Attach/model"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/klauspost/compress/gzip"
)

// GzipMimetype is advertised for compressed payloads.
const GzipMimetype = "application/x-gzip"

// GzipExtension is appended to the filename of compressed payloads.
const GzipExtension = ".gz"

// Payload is the content ready to be handed to the blob store.
type Payload struct {
	Content  []byte
	Filename string
	Mimetype string
	Hash     string
	Size     int64
	Original *model.OriginalFile
}

// SHA256 returns the lowercase hex digest of content.
func SHA256(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Process computes digest and size. With compress set, the whole buffer is
// gzipped in memory; the uploaded bytes are then described by Original.
func Process(content []byte, mimetype, filename string, compress bool) (*Payload, error) {
	if !compress {
		return &Payload{
			Content:  content,
			Filename: filename,
			Mimetype: mimetype,
			Hash:     SHA256(content),
			Size:     int64(len(content)),
		}, nil
	}
	original := &model.OriginalFile{
		Filename: filename,
		Hash:     SHA256(content),
		Mimetype: mimetype,
		Size:     int64(len(content)),
	}
	compressed, err := Gzip(content)
	if err != nil {
		return nil, err
	}
	return &Payload{
		Content:  compressed,
		Filename: filename + GzipExtension,
		Mimetype: GzipMimetype,
		Hash:     SHA256(compressed),
		Size:     int64(len(compressed)),
		Original: original,
	}, nil
}

// Gzip compresses content with the default level.
func Gzip(content []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(content); err != nil {
		_ = zw.Close()
		return nil, fmt.Errorf("gzip write: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("gzip close: %w", err)
	}
	return buf.Bytes(), nil
}
