package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"

	"github.com/bni/bni/internal/auth/blob"
	"github.com/bni/bni/internal/auth/domain"
	"github.com/bni/bni/pkg/slogx"
)

// FileURLPrefix is the public download path for stored files.
const FileURLPrefix = "/api/files/"

const defaultContentType = "application/octet-stream"

// FileService stores uploaded files and serves them back by name.
type FileService struct {
	Storage blob.Storage
}

// Upload stores r under the base name of name, replacing any existing file
// with the same name.
func (s *FileService) Upload(ctx context.Context, name string, r io.Reader, contentType string) (domain.StoredFile, error) {
	l := slogx.FromContext(ctx)

	key, err := blob.CleanKey(name)
	if err != nil {
		return domain.StoredFile{}, NewValidationError("file", "invalid file name")
	}
	if contentType == "" {
		contentType = contentTypeFor(key)
	}

	cr := &countingReader{r: r}
	if err := s.Storage.Put(ctx, key, cr, contentType); err != nil {
		l.Error("upload failed", slog.String("file", key), slog.Any("error", err))
		return domain.StoredFile{}, fmt.Errorf("upload %s: %w", key, err)
	}

	l.Info("file uploaded", slog.String("file", key), slog.Int64("size", cr.n))
	return domain.StoredFile{
		Name:        key,
		URL:         FileURLPrefix + key,
		ContentType: contentType,
		Size:        cr.n,
	}, nil
}

// Open returns the stored file. The caller must close the reader.
func (s *FileService) Open(ctx context.Context, name string) (io.ReadCloser, domain.StoredFile, error) {
	key, err := blob.CleanKey(name)
	if err != nil {
		return nil, domain.StoredFile{}, ErrNotFound
	}

	rc, info, err := s.Storage.Get(ctx, key)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, domain.StoredFile{}, ErrNotFound
		}
		return nil, domain.StoredFile{}, fmt.Errorf("open %s: %w", key, err)
	}

	ct := info.ContentType
	if ct == "" {
		ct = contentTypeFor(key)
	}
	return rc, domain.StoredFile{
		Name:        key,
		URL:         FileURLPrefix + key,
		ContentType: ct,
		Size:        info.Size,
	}, nil
}

func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return defaultContentType
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
