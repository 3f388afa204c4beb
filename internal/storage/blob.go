package storage

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/EDWINCHENC/c-transfer-unique/internal/pkg/apperrors"
)

const chunkSize = 8 * 1024

// BlobStore keeps uploaded files on the local filesystem, one directory per
// access code. Stored names are generated tokens; user-supplied names never
// become path components.
type BlobStore struct {
	root    string
	maxSize int64
}

func NewBlobStore(root string, maxSize int64) (*BlobStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, apperrors.IOFailure("failed to create upload root", err)
	}

	return &BlobStore{root: root, maxSize: maxSize}, nil
}

// NewStoredName generates the physical filename for an upload, keeping only
// the extension of the declared original name.
func NewStoredName(originalName string) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(originalName))
}

// Path resolves the on-disk location of a stored file. The name must be a
// bare filename.
func (s *BlobStore) Path(accessCode, storedName string) (string, error) {
	if storedName == "" || filepath.Base(storedName) != storedName {
		return "", apperrors.ErrFileNotFound
	}
	if accessCode == "" || filepath.Base(accessCode) != accessCode {
		return "", apperrors.ErrFileNotFound
	}
	return filepath.Join(s.root, accessCode, storedName), nil
}

// Stat checks that a stored file exists and returns its size.
func (s *BlobStore) Stat(accessCode, storedName string) (int64, error) {
	path, err := s.Path(accessCode, storedName)
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}

	return info.Size(), nil
}

// Open returns a reader over a stored file.
func (s *BlobStore) Open(accessCode, storedName string) (*os.File, error) {
	path, err := s.Path(accessCode, storedName)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// Save streams src into a freshly named file under the access code's
// directory. The destination is opened exclusively and held for the whole
// transfer. If the stream exceeds the size cap the partial file is removed
// and ErrFileTooLarge is returned; any other failure (including context
// cancellation) also removes the partial file and reports an I/O failure.
// Nothing is registered here: the caller records the FileAccess row only
// after Save returns successfully.
func (s *BlobStore) Save(ctx context.Context, accessCode string, src io.Reader, originalName string) (string, int64, error) {
	if accessCode == "" || filepath.Base(accessCode) != accessCode {
		return "", 0, apperrors.ErrEmptyAccessCode
	}

	dir := filepath.Join(s.root, accessCode)
	// MkdirAll is race-safe: concurrent uploads to the same code may both
	// attempt creation.
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, apperrors.IOFailure("failed to create access code directory", err)
	}

	storedName := NewStoredName(originalName)
	path := filepath.Join(dir, storedName)

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, apperrors.IOFailure("failed to open destination file", err)
	}

	size, err := s.copyBounded(ctx, dst, src)
	if err != nil {
		dst.Close()
		s.discardPartial(path)
		return "", 0, err
	}

	if err := dst.Close(); err != nil {
		s.discardPartial(path)
		return "", 0, apperrors.IOFailure("failed to finalize destination file", err)
	}

	return storedName, size, nil
}

func (s *BlobStore) copyBounded(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, chunkSize)
	var written int64

	for {
		if err := ctx.Err(); err != nil {
			return written, apperrors.IOFailure("upload aborted by client", err)
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			written += int64(n)
			if written > s.maxSize {
				return written, apperrors.ErrFileTooLarge
			}
			if _, err := dst.Write(buf[:n]); err != nil {
				return written, apperrors.IOFailure("failed to write chunk", err)
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, apperrors.IOFailure("failed to read upload stream", readErr)
		}
	}
}

func (s *BlobStore) discardPartial(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Error("failed to remove partial upload", "path", path, "error", err)
	}
}

// Remove deletes a stored file and prunes the access code directory when it
// ends up empty. A file already gone or a non-empty directory is not an
// error.
func (s *BlobStore) Remove(accessCode, storedName string) error {
	path, err := s.Path(accessCode, storedName)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			slog.Warn("stored file already absent", "file", storedName, "access_code", accessCode)
			return nil
		}
		return apperrors.IOFailure("failed to remove stored file", err)
	}

	// Best-effort prune; os.Remove refuses non-empty directories.
	dir := filepath.Dir(path)
	if err := os.Remove(dir); err != nil && !os.IsNotExist(err) {
		slog.Debug("access code directory kept", "dir", dir, "error", err)
	}

	return nil
}
