package service

import (
	"context"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/EDWINCHENC/c-transfer-unique/internal/model"
	"github.com/EDWINCHENC/c-transfer-unique/internal/pkg/apperrors"
	"github.com/EDWINCHENC/c-transfer-unique/internal/repository"
	"github.com/EDWINCHENC/c-transfer-unique/internal/storage"
)

// UploadResult is returned after a file is stored and registered.
type UploadResult struct {
	Filename         string `json:"filename"`
	OriginalFilename string `json:"original_filename"`
	Size             int64  `json:"size"`
}

// FileInfo describes a stored file resolved for download.
type FileInfo struct {
	Path        string
	Size        int64
	ContentType string
	DisplayName string
}

// RelayService orchestrates quota checks, message persistence and blob
// storage. It is the only entry point the HTTP layer calls.
type RelayService struct {
	messages repository.MessageRepository
	files    repository.FileAccessRepository
	blobs    *storage.BlobStore
	quota    *QuotaPolicy
	locks    originLocks
}

func NewRelayService(
	messages repository.MessageRepository,
	files repository.FileAccessRepository,
	blobs *storage.BlobStore,
	quota *QuotaPolicy,
) *RelayService {
	return &RelayService{
		messages: messages,
		files:    files,
		blobs:    blobs,
		quota:    quota,
	}
}

// CreateMessage runs the quota gate and the insert as one atomic unit: the
// per-origin lock prevents two concurrent requests from the same IP from
// both passing the check, and the repository re-counts inside the insert
// transaction.
func (s *RelayService) CreateMessage(ctx context.Context, accessCode, msgType, content string, filename *string, originIP string) (*model.Message, error) {
	if strings.TrimSpace(accessCode) == "" {
		return nil, apperrors.ErrEmptyAccessCode
	}
	if content == "" {
		return nil, apperrors.ErrEmptyContent
	}

	unlock := s.locks.Lock(originIP)
	defer unlock()

	msg := &model.Message{
		Type:       msgType,
		Content:    content,
		Filename:   filename,
		CreatedAt:  s.quota.CreatedAt(),
		AccessCode: accessCode,
		CreatorIP:  originIP,
	}

	err := s.messages.CreateWithQuota(ctx, msg, s.quota.WindowStart(), s.quota.Limit)
	if apperrors.Is(err, apperrors.CodeQuotaExceeded) {
		slog.Warn("daily creation limit reached", "ip", originIP, "limit", s.quota.Limit)
		return nil, err
	}
	if err != nil {
		slog.Error("failed to create message", "ip", originIP, "error", err)
		return nil, apperrors.ErrStorageFailed(err)
	}

	slog.Info("message created", "id", msg.ID, "type", msg.Type, "ip", originIP)
	return msg, nil
}

// ListMessages returns all messages under the code, newest first. Knowledge
// of the code is the only authorization.
func (s *RelayService) ListMessages(ctx context.Context, accessCode string) ([]model.Message, error) {
	if strings.TrimSpace(accessCode) == "" {
		return nil, apperrors.ErrEmptyAccessCode
	}

	messages, err := s.messages.ListByCode(ctx, accessCode)
	if err != nil {
		slog.Error("failed to list messages", "access_code", accessCode, "error", err)
		return nil, apperrors.ErrStorageFailed(err)
	}

	if messages == nil {
		// An unknown code is an empty list, not null.
		messages = []model.Message{}
	}

	return messages, nil
}

// UploadFile streams the source into the blob store and registers the
// FileAccess row once the bytes are durable. The caller is expected to
// create a message referencing the returned stored filename afterwards; an
// uploaded but never-referenced blob is an acceptable orphan.
func (s *RelayService) UploadFile(ctx context.Context, accessCode string, src io.Reader, originalName string) (*UploadResult, error) {
	if strings.TrimSpace(accessCode) == "" {
		return nil, apperrors.ErrEmptyAccessCode
	}

	storedName, size, err := s.blobs.Save(ctx, accessCode, src, originalName)
	if err != nil {
		if apperrors.Is(err, apperrors.CodeTooLarge) {
			slog.Warn("upload rejected, file too large", "original", originalName, "access_code", accessCode)
		} else {
			slog.Error("upload failed", "original", originalName, "access_code", accessCode, "error", err)
		}
		return nil, err
	}

	if _, err := s.files.Register(ctx, accessCode, storedName); err != nil {
		// Registration failed: the blob is unreachable without the row, so
		// remove it rather than leak it.
		if rmErr := s.blobs.Remove(accessCode, storedName); rmErr != nil {
			slog.Error("failed to clean up unregistered blob", "file", storedName, "error", rmErr)
		}
		slog.Error("failed to register file access", "file", storedName, "error", err)
		return nil, apperrors.ErrStorageFailed(err)
	}

	slog.Info("file uploaded", "stored", storedName, "original", originalName, "size", size, "access_code", accessCode)

	return &UploadResult{
		Filename:         storedName,
		OriginalFilename: originalName,
		Size:             size,
	}, nil
}

// FetchFile authorizes a download through the FileAccess index and then
// checks the disk. A missing row and a row whose file is gone from disk are
// logged as different conditions but both surface as not found.
func (s *RelayService) FetchFile(ctx context.Context, accessCode, storedName string) (*FileInfo, error) {
	if _, err := s.files.Lookup(ctx, accessCode, storedName); err != nil {
		if apperrors.Is(err, apperrors.CodeNotFound) {
			slog.Warn("file access denied", "file", storedName, "access_code", accessCode)
			return nil, err
		}
		slog.Error("file access lookup failed", "file", storedName, "error", err)
		return nil, apperrors.ErrStorageFailed(err)
	}

	size, err := s.blobs.Stat(accessCode, storedName)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Error("registered file missing on disk", "file", storedName, "access_code", accessCode)
			return nil, apperrors.ErrFileNotFound
		}
		slog.Error("failed to stat stored file", "file", storedName, "error", err)
		return nil, apperrors.IOFailure("failed to read stored file", err)
	}

	path, err := s.blobs.Path(accessCode, storedName)
	if err != nil {
		return nil, err
	}

	return &FileInfo{
		Path:        path,
		Size:        size,
		ContentType: contentTypeFor(storedName),
		DisplayName: s.displayName(ctx, accessCode, storedName),
	}, nil
}

// displayName recovers the original filename from the message that
// references the blob; uploads not yet referenced fall back to the stored
// name.
func (s *RelayService) displayName(ctx context.Context, accessCode, storedName string) string {
	msg, err := s.messages.FindByBlob(ctx, accessCode, storedName)
	if err != nil {
		slog.Warn("display name lookup failed", "file", storedName, "error", err)
		return storedName
	}
	if msg != nil && msg.Filename != nil && *msg.Filename != "" {
		return *msg.Filename
	}
	return storedName
}

// DeleteMessage removes a message and, for file-bearing types, its blob and
// FileAccess row. A blob already gone from disk never blocks removal of the
// message record.
func (s *RelayService) DeleteMessage(ctx context.Context, id uint, accessCode string) error {
	msg, err := s.messages.GetByID(ctx, id, accessCode)
	if err != nil {
		if apperrors.Is(err, apperrors.CodeNotFound) {
			return err
		}
		slog.Error("failed to load message for deletion", "id", id, "error", err)
		return apperrors.ErrStorageFailed(err)
	}

	if msg.HasBlob() {
		if err := s.files.Delete(ctx, accessCode, msg.Content); err != nil {
			slog.Error("failed to delete file access row", "file", msg.Content, "error", err)
		}
		if err := s.blobs.Remove(accessCode, msg.Content); err != nil {
			slog.Error("failed to delete stored file", "file", msg.Content, "error", err)
		}
	}

	if err := s.messages.DeleteByID(ctx, id, accessCode); err != nil {
		if apperrors.Is(err, apperrors.CodeNotFound) {
			return err
		}
		slog.Error("failed to delete message", "id", id, "error", err)
		return apperrors.ErrStorageFailed(err)
	}

	slog.Info("message deleted", "id", id, "access_code", accessCode)
	return nil
}

func contentTypeFor(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	// Media types commonly relayed; not all of them are in the mime
	// package's builtin table.
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".mp4":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".txt":
		return "text/plain; charset=utf-8"
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
