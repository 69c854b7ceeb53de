package storage

import (
	"Go_Attach/utils"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

type existsFunc func(ctx context.Context, key string) (bool, error)

// buildKey turns a client filename into a backend key under opts.Folder.
func buildKey(ctx context.Context, filename string, opts SaveOptions, exists existsFunc) (string, error) {
	name := utils.SecureFilename(path.Base(filename))
	if opts.Randomize {
		name = randomName(name)
	}
	key := joinKey(cleanFolder(opts.Folder), name)
	if opts.Replace || opts.Randomize {
		return key, nil
	}
	return resolveName(ctx, key, exists)
}

func randomName(filename string) string {
	return uuid.NewString() + strings.ToLower(path.Ext(filename))
}

// resolveName appends _1, _2... to the base name until the key is free.
func resolveName(ctx context.Context, key string, exists existsFunc) (string, error) {
	taken, err := exists(ctx, key)
	if err != nil {
		return "", err
	}
	if !taken {
		return key, nil
	}
	dir, file := path.Split(key)
	ext := path.Ext(file)
	base := strings.TrimSuffix(file, ext)
	for i := 1; ; i++ {
		candidate := dir + fmt.Sprintf("%s_%d%s", base, i, ext)
		taken, err = exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
}

// cleanFolder normalizes a folder prefix and drops any attempt to climb out
// of the store root.
func cleanFolder(folder string) string {
	folder = strings.TrimSpace(folder)
	if folder == "" {
		return ""
	}
	parts := strings.Split(path.Clean("/"+folder), "/")
	out := parts[:0]
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			continue
		}
		out = append(out, part)
	}
	return strings.Join(out, "/")
}

func joinKey(folder, name string) string {
	if folder == "" {
		return name
	}
	return folder + "/" + name
}

// joinURL prefixes location with base, adding the separating slash if needed.
func joinURL(base, location string) string {
	if base == "" {
		return location
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + strings.TrimPrefix(location, "/")
}
