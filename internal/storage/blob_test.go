package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"reviewhub/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_PutAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, "/uploads/")
	require.NoError(t, err)
	ctx := context.Background()

	url, err := store.Put(ctx, "2024/abc.png", bytes.NewReader([]byte("png")), 3, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/2024/abc.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "2024", "abc.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	entries, err := os.ReadDir(filepath.Join(dir, "2024"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files are left behind")

	require.NoError(t, store.Delete(ctx, "2024/abc.png"))
	_, err = os.Stat(filepath.Join(dir, "2024", "abc.png"))
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, store.Delete(ctx, "2024/abc.png"), "deleting twice is fine")
}

func TestFileStore_RejectsEscapingKeys(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "")
	require.NoError(t, err)

	for _, key := range []string{"", "../evil.png", "/etc/passwd", `a\b.png`, "a/../../b.png"} {
		_, err := store.Put(context.Background(), key, bytes.NewReader(nil), 0, "")
		assert.Error(t, err, key)
	}
}

func TestNew_SelectsBackend(t *testing.T) {
	store, err := New(&config.Config{UploadBackend: "local", UploadDir: t.TempDir(), UploadPublicPrefix: "/static"})
	require.NoError(t, err)
	fs, ok := store.(*FileStore)
	require.True(t, ok)
	assert.Equal(t, "/static", fs.prefix)

	_, err = New(&config.Config{UploadBackend: "ftp"})
	assert.Error(t, err)
}
