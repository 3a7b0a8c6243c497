package service

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/bni/bni/internal/auth/blob"
	"github.com/stretchr/testify/require"
)

func newFileService(t *testing.T) *FileService {
	t.Helper()

	st, err := blob.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return &FileService{Storage: st}
}

func TestFileService(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("upload then open", func(t *testing.T) {
		t.Parallel()
		svc := newFileService(t)

		f, err := svc.Upload(ctx, "report.json", strings.NewReader("hello"), "")
		require.NoError(t, err)
		require.Equal(t, "report.json", f.Name)
		require.Equal(t, "/api/files/report.json", f.URL)
		require.EqualValues(t, 5, f.Size)

		rc, got, err := svc.Open(ctx, "report.json")
		require.NoError(t, err)
		defer rc.Close()

		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.Equal(t, "hello", string(body))
		require.True(t, strings.HasPrefix(got.ContentType, "application/json"))
		require.EqualValues(t, 5, got.Size)
	})

	t.Run("directory components are dropped", func(t *testing.T) {
		t.Parallel()
		svc := newFileService(t)

		f, err := svc.Upload(ctx, "../../etc/passwd", strings.NewReader("x"), "")
		require.NoError(t, err)
		require.Equal(t, "passwd", f.Name)
		require.Equal(t, "/api/files/passwd", f.URL)
	})

	t.Run("unknown extension falls back to octet-stream", func(t *testing.T) {
		t.Parallel()
		svc := newFileService(t)

		_, err := svc.Upload(ctx, "blob.zzzunknown", strings.NewReader("x"), "")
		require.NoError(t, err)

		rc, got, err := svc.Open(ctx, "blob.zzzunknown")
		require.NoError(t, err)
		_ = rc.Close()
		require.Equal(t, "application/octet-stream", got.ContentType)
	})

	t.Run("rejects unusable names", func(t *testing.T) {
		t.Parallel()
		svc := newFileService(t)

		for _, name := range []string{"", ".", "..", "/"} {
			_, err := svc.Upload(ctx, name, strings.NewReader("x"), "")
			var verr *ValidationError
			require.ErrorAs(t, err, &verr, "name %q", name)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		svc := newFileService(t)

		_, _, err := svc.Open(ctx, "nope.txt")
		require.ErrorIs(t, err, ErrNotFound)
	})
}
