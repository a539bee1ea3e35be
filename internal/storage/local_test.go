package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lgulliver/pdfbinder/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStorage(t *testing.T) *LocalStorage {
	storage, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return storage
}

func setupTestWorkspace(t *testing.T, storage *LocalStorage) types.Workspace {
	ws, err := storage.Resolve(uuid.NewString())
	require.NoError(t, err)
	return ws
}

func createTempFile(t *testing.T) string {
	f, err := os.CreateTemp(t.TempDir(), "not-a-dir")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

func TestNewLocalStorage(t *testing.T) {
	tests := []struct {
		name        string
		basePath    string
		shouldError bool
	}{
		{
			name:        "valid path",
			basePath:    t.TempDir(),
			shouldError: false,
		},
		{
			name:        "non-existent path",
			basePath:    filepath.Join(t.TempDir(), "nested", "path"),
			shouldError: false,
		},
		{
			name:        "invalid path (file instead of directory)",
			basePath:    createTempFile(t),
			shouldError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, err := NewLocalStorage(tt.basePath)

			if tt.shouldError {
				assert.Error(t, err)
				assert.Nil(t, storage)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, storage)

				info, err := os.Stat(tt.basePath)
				assert.NoError(t, err)
				assert.True(t, info.IsDir())
			}
		})
	}
}

func TestLocalStorage_Resolve(t *testing.T) {
	storage := setupTestStorage(t)

	id := uuid.NewString()
	ws, err := storage.Resolve(id)
	require.NoError(t, err)
	assert.Equal(t, id, ws.SessionID)
	assert.Equal(t, filepath.Join(storage.basePath, id), ws.Dir)

	_, err = os.Stat(ws.Dir)
	assert.True(t, os.IsNotExist(err), "resolve must not create the workspace")

	for _, bad := range []string{"", "..", "../etc", "not-a-uuid"} {
		_, err := storage.Resolve(bad)
		assert.ErrorIs(t, err, ErrInvalidSession, bad)
	}
}

func TestLocalStorage_ListMissingWorkspace(t *testing.T) {
	storage := setupTestStorage(t)
	ws := setupTestWorkspace(t, storage)

	docs, err := storage.List(context.Background(), ws)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestLocalStorage_ListSortsAndFilters(t *testing.T) {
	storage := setupTestStorage(t)
	ws := setupTestWorkspace(t, storage)
	ctx := context.Background()

	for _, name := range []string{
		"10_j.pdf", "2_b.pdf", "1_a.pdf", "2_b.pdf.png",
		"notes.txt", "3_c.txt", ".upload-123", "x_y.pdf",
	} {
		_, err := storage.Store(ctx, ws, name, strings.NewReader("data"))
		require.NoError(t, err)
	}
	require.NoError(t, os.Mkdir(filepath.Join(ws.Dir, "4_dir.pdf"), 0o700))

	docs, err := storage.List(ctx, ws)
	require.NoError(t, err)

	require.Len(t, docs, 3)
	assert.Equal(t, []int{1, 2, 10}, types.Indices(docs))
	assert.Equal(t, "a.pdf", docs[0].OriginalName)
	assert.False(t, docs[0].HasThumbnail)
	assert.True(t, docs[1].HasThumbnail)
	assert.Equal(t, int64(4), docs[2].Size)
}

func TestLocalStorage_StoreAndOpen(t *testing.T) {
	storage := setupTestStorage(t)
	ws := setupTestWorkspace(t, storage)
	ctx := context.Background()

	n, err := storage.Store(ctx, ws, "1_a.pdf", strings.NewReader("hello world"))
	require.NoError(t, err)
	assert.Equal(t, int64(11), n)

	f, err := storage.Open(ctx, ws, "1_a.pdf")
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	entries, err := os.ReadDir(ws.Dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files may be left behind")

	_, err = storage.Open(ctx, ws, "2_missing.pdf")
	assert.True(t, IsNotExist(err))
}

func TestLocalStorage_RejectsUnsafeNames(t *testing.T) {
	storage := setupTestStorage(t)
	ws := setupTestWorkspace(t, storage)
	ctx := context.Background()

	for _, name := range []string{"", ".", "..", "../1_a.pdf", "a/b.pdf", `a\b.pdf`} {
		_, err := storage.Store(ctx, ws, name, strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrInvalidName, name)

		_, err = storage.Exists(ctx, ws, name)
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
}

func TestLocalStorage_RenameRefusesOverwrite(t *testing.T) {
	storage := setupTestStorage(t)
	ws := setupTestWorkspace(t, storage)
	ctx := context.Background()

	_, err := storage.Store(ctx, ws, "1_a.pdf", strings.NewReader("a"))
	require.NoError(t, err)
	_, err = storage.Store(ctx, ws, "2_b.pdf", strings.NewReader("b"))
	require.NoError(t, err)

	err = storage.Rename(ctx, ws, "1_a.pdf", "2_b.pdf")
	assert.ErrorIs(t, err, ErrTargetExists)

	require.NoError(t, storage.Rename(ctx, ws, "2_b.pdf", "3_b.pdf"))
	exists, err := storage.Exists(ctx, ws, "3_b.pdf")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = storage.Exists(ctx, ws, "2_b.pdf")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.NoError(t, storage.Rename(ctx, ws, "1_a.pdf", "1_a.pdf"))
}

func TestLocalStorage_RemoveMissingIsNoop(t *testing.T) {
	storage := setupTestStorage(t)
	ws := setupTestWorkspace(t, storage)

	assert.NoError(t, storage.Remove(context.Background(), ws, "1_a.pdf"))
}

func TestLocalStorage_Purge(t *testing.T) {
	storage := setupTestStorage(t)
	ws := setupTestWorkspace(t, storage)
	ctx := context.Background()

	_, err := storage.Store(ctx, ws, "1_a.pdf", strings.NewReader("a"))
	require.NoError(t, err)
	_, err = storage.Store(ctx, ws, "1_a.pdf.png", strings.NewReader("png"))
	require.NoError(t, err)

	require.NoError(t, storage.Purge(ctx, ws))
	_, err = os.Stat(ws.Dir)
	assert.True(t, os.IsNotExist(err))

	// Purging twice is the same as purging once
	require.NoError(t, storage.Purge(ctx, ws))

	err = storage.Purge(ctx, types.Workspace{SessionID: "x", Dir: t.TempDir()})
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestLocalStorage_ListStale(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	fresh := setupTestWorkspace(t, storage)
	old := setupTestWorkspace(t, storage)
	for _, ws := range []types.Workspace{fresh, old} {
		_, err := storage.Store(ctx, ws, "1_a.pdf", strings.NewReader("a"))
		require.NoError(t, err)
	}
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(old.Dir, past, past))

	// Directories that are not session workspaces are never reported
	require.NoError(t, os.Mkdir(filepath.Join(storage.basePath, "lost+found"), 0o700))

	stale, err := storage.ListStale(ctx, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, old.SessionID, stale[0].SessionID)

	modified, err := storage.LastModified(ctx, old)
	require.NoError(t, err)
	assert.WithinDuration(t, past, modified, time.Second)

	modified, err = storage.LastModified(ctx, setupTestWorkspace(t, storage))
	require.NoError(t, err)
	assert.True(t, modified.IsZero())
}

func TestLocalStorage_ContextCancelled(t *testing.T) {
	storage := setupTestStorage(t)
	ws := setupTestWorkspace(t, storage)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := storage.Store(ctx, ws, "1_a.pdf", strings.NewReader("a"))
	assert.ErrorIs(t, err, context.Canceled)

	_, err = storage.List(ctx, ws)
	assert.ErrorIs(t, err, context.Canceled)
}
