// Package blob stores uploaded files. Keys are flat file names; callers
// are expected to have sanitised them with CleanKey.
package blob

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

var (
	ErrNotFound   = errors.New("blob: not found")
	ErrInvalidKey = errors.New("blob: invalid key")
)

// Info is the metadata returned alongside an object. ContentType is empty
// when the backend does not record it.
type Info struct {
	ContentType string
	Size        int64
}

// Storage is implemented by LocalStorage and S3Storage.
type Storage interface {
	// Put stores r under key, replacing any existing object.
	Put(ctx context.Context, key string, r io.Reader, contentType string) error

	// Get opens the object. The caller must close the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, Info, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}

// CleanKey reduces name to its final path element and rejects names that
// cannot be stored as a flat key.
func CleanKey(name string) (string, error) {
	name = strings.ReplaceAll(name, `\`, "/")
	key := path.Base(path.Clean("/" + strings.TrimSpace(name)))
	if key == "" || key == "." || key == ".." || key == "/" {
		return "", ErrInvalidKey
	}
	if strings.ContainsRune(key, 0) {
		return "", ErrInvalidKey
	}
	return key, nil
}
