package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/EDWINCHENC/c-transfer-unique/internal/model"
	"github.com/EDWINCHENC/c-transfer-unique/internal/pkg/apperrors"
	"github.com/EDWINCHENC/c-transfer-unique/internal/repository"
	"github.com/EDWINCHENC/c-transfer-unique/internal/storage"
)

type relayFixture struct {
	relay *RelayService
	blobs *storage.BlobStore
	quota *QuotaPolicy
	root  string
}

func newRelayFixture(t *testing.T, limit int) *relayFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&model.Message{}, &model.FileAccess{}))

	root := t.TempDir()
	blobs, err := storage.NewBlobStore(root, 1024*1024)
	require.NoError(t, err)

	quota := NewQuotaPolicy(limit)
	relay := NewRelayService(
		repository.NewMessageRepository(db),
		repository.NewFileAccessRepository(db),
		blobs,
		quota,
	)

	return &relayFixture{relay: relay, blobs: blobs, quota: quota, root: root}
}

func TestRelayService_CreateAndListOrdering(t *testing.T) {
	fx := newRelayFixture(t, 100)
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, RelayTimezone)
	fx.quota.Now = func() time.Time { return now }

	_, err := fx.relay.CreateMessage(ctx, "abc", model.TypeText, "A", nil, "10.0.0.1")
	require.NoError(t, err)

	now = now.Add(time.Second)
	_, err = fx.relay.CreateMessage(ctx, "abc", model.TypeText, "B", nil, "10.0.0.1")
	require.NoError(t, err)

	_, err = fx.relay.CreateMessage(ctx, "other", model.TypeText, "C", nil, "10.0.0.1")
	require.NoError(t, err)

	messages, err := fx.relay.ListMessages(ctx, "abc")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "B", messages[0].Content)
	assert.Equal(t, "A", messages[1].Content)
}

func TestRelayService_CreateValidation(t *testing.T) {
	fx := newRelayFixture(t, 5)
	ctx := context.Background()

	_, err := fx.relay.CreateMessage(ctx, "", model.TypeText, "hi", nil, "10.0.0.1")
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidArgument))

	_, err = fx.relay.CreateMessage(ctx, "abc", model.TypeText, "", nil, "10.0.0.1")
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidArgument))
}

func TestRelayService_QuotaDeniesConcurrentOverAdmission(t *testing.T) {
	const limit = 5
	fx := newRelayFixture(t, limit)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make(chan error, 20)

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := fx.relay.CreateMessage(ctx, "abc", model.TypeText, fmt.Sprintf("msg-%d", n), nil, "10.0.0.1")
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var ok, denied int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case apperrors.Is(err, apperrors.CodeQuotaExceeded):
			denied++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, limit, ok)
	assert.Equal(t, 20-limit, denied)
}

func TestRelayService_QuotaIsPerOrigin(t *testing.T) {
	fx := newRelayFixture(t, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := fx.relay.CreateMessage(ctx, "abc", model.TypeText, "x", nil, "10.0.0.1")
		require.NoError(t, err)
	}

	_, err := fx.relay.CreateMessage(ctx, "abc", model.TypeText, "x", nil, "10.0.0.1")
	assert.True(t, apperrors.Is(err, apperrors.CodeQuotaExceeded))

	_, err = fx.relay.CreateMessage(ctx, "abc", model.TypeText, "x", nil, "10.0.0.2")
	assert.NoError(t, err)
}

func TestRelayService_UploadFetchRoundTrip(t *testing.T) {
	fx := newRelayFixture(t, 100)
	ctx := context.Background()
	content := []byte("binary file content")

	result, err := fx.relay.UploadFile(ctx, "abc", bytes.NewReader(content), "report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", result.OriginalFilename)
	assert.Equal(t, int64(len(content)), result.Size)

	// Reference the upload from a message, as the two-step contract expects.
	original := "report.pdf"
	_, err = fx.relay.CreateMessage(ctx, "abc", model.TypeFile, result.Filename, &original, "10.0.0.1")
	require.NoError(t, err)

	info, err := fx.relay.FetchFile(ctx, "abc", result.Filename)
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), info.Size)
	assert.Equal(t, "application/pdf", info.ContentType)
	assert.Equal(t, "report.pdf", info.DisplayName)
}

func TestRelayService_FetchWrongCode(t *testing.T) {
	fx := newRelayFixture(t, 100)
	ctx := context.Background()

	result, err := fx.relay.UploadFile(ctx, "abc", bytes.NewReader([]byte("data")), "x.bin")
	require.NoError(t, err)

	_, err = fx.relay.FetchFile(ctx, "wrong", result.Filename)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))

	_, err = fx.relay.FetchFile(ctx, "abc", "unknown.bin")
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestRelayService_FetchRegisteredButMissingOnDisk(t *testing.T) {
	fx := newRelayFixture(t, 100)
	ctx := context.Background()

	result, err := fx.relay.UploadFile(ctx, "abc", bytes.NewReader([]byte("data")), "x.bin")
	require.NoError(t, err)

	// Simulate disk loss behind the index's back.
	path, err := fx.blobs.Path("abc", result.Filename)
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	_, err = fx.relay.FetchFile(ctx, "abc", result.Filename)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestRelayService_UploadTooLargeLeavesNothing(t *testing.T) {
	fx := newRelayFixture(t, 100)
	ctx := context.Background()

	big := make([]byte, 1024*1024+1)
	_, err := fx.relay.UploadFile(ctx, "abc", bytes.NewReader(big), "big.bin")
	assert.True(t, apperrors.Is(err, apperrors.CodeTooLarge))

	// No message, no reachable file.
	messages, err := fx.relay.ListMessages(ctx, "abc")
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestRelayService_DeleteFileMessage(t *testing.T) {
	fx := newRelayFixture(t, 100)
	ctx := context.Background()

	result, err := fx.relay.UploadFile(ctx, "abc", bytes.NewReader([]byte("data")), "x.bin")
	require.NoError(t, err)

	original := "x.bin"
	msg, err := fx.relay.CreateMessage(ctx, "abc", model.TypeFile, result.Filename, &original, "10.0.0.1")
	require.NoError(t, err)

	require.NoError(t, fx.relay.DeleteMessage(ctx, msg.ID, "abc"))

	// Blob and index are gone.
	_, err = fx.relay.FetchFile(ctx, "abc", result.Filename)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))

	_, err = fx.blobs.Stat("abc", result.Filename)
	assert.True(t, os.IsNotExist(err))

	// Second delete reports not found, never crashes.
	err = fx.relay.DeleteMessage(ctx, msg.ID, "abc")
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestRelayService_DeleteWithBlobAlreadyGone(t *testing.T) {
	fx := newRelayFixture(t, 100)
	ctx := context.Background()

	result, err := fx.relay.UploadFile(ctx, "abc", bytes.NewReader([]byte("data")), "x.bin")
	require.NoError(t, err)

	original := "x.bin"
	msg, err := fx.relay.CreateMessage(ctx, "abc", model.TypeFile, result.Filename, &original, "10.0.0.1")
	require.NoError(t, err)

	path, err := fx.blobs.Path("abc", result.Filename)
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	// A missing file on disk must not block removal of the message record.
	require.NoError(t, fx.relay.DeleteMessage(ctx, msg.ID, "abc"))

	messages, err := fx.relay.ListMessages(ctx, "abc")
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestRelayService_DeleteWrongCode(t *testing.T) {
	fx := newRelayFixture(t, 100)
	ctx := context.Background()

	msg, err := fx.relay.CreateMessage(ctx, "abc", model.TypeText, "hi", nil, "10.0.0.1")
	require.NoError(t, err)

	err = fx.relay.DeleteMessage(ctx, msg.ID, "wrong")
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))

	// Still listed under the right code.
	messages, err := fx.relay.ListMessages(ctx, "abc")
	require.NoError(t, err)
	assert.Len(t, messages, 1)
}

func TestRelayService_DisplayNameFallsBackToStoredName(t *testing.T) {
	fx := newRelayFixture(t, 100)
	ctx := context.Background()

	// Uploaded but not yet referenced by any message.
	result, err := fx.relay.UploadFile(ctx, "abc", bytes.NewReader([]byte("data")), "orig.txt")
	require.NoError(t, err)

	info, err := fx.relay.FetchFile(ctx, "abc", result.Filename)
	require.NoError(t, err)
	assert.Equal(t, result.Filename, info.DisplayName)
}
