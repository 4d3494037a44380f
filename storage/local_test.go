package storage

import (
	"bytes"
	"context"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

// fileHeader builds an uploaded file the way net/http would hand it over.
func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["image"][0]
}

func TestLocalStoreUploadAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "/static/uploads/")
	require.NoError(t, err)

	ref, err := store.Upload(context.Background(), "posts", fileHeader(t, "photo.gif", pngHeader))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "/static/uploads/posts/"))
	// the extension follows the sniffed content, not the client's file name
	assert.True(t, strings.HasSuffix(ref, ".png"))

	onDisk := filepath.Join(dir, "posts", filepath.Base(ref))
	data, err := os.ReadFile(onDisk)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)

	require.NoError(t, store.Delete(context.Background(), ref))
	_, err = os.Stat(onDisk)
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	assert.NoError(t, store.Delete(context.Background(), ref))
}

func TestLocalStoreRejectsNonImages(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/static/uploads")
	require.NoError(t, err)

	_, err = store.Upload(context.Background(), "users", fileHeader(t, "evil.png", []byte("#!/bin/sh\necho hi\n")))
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestLocalStoreRejectsOversizedUploads(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/static/uploads")
	require.NoError(t, err)

	big := append(append([]byte{}, pngHeader...), make([]byte, MaxImageSize)...)
	_, err = store.Upload(context.Background(), "users", fileHeader(t, "big.png", big))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestLocalStoreDeleteRejectsForeignRefs(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/static/uploads")
	require.NoError(t, err)

	for _, ref := range []string{
		"https://example.com/a.png",
		"/static/uploads/",
		"/static/uploads/../../etc/passwd",
	} {
		assert.ErrorIs(t, store.Delete(context.Background(), ref), ErrForeignRef, ref)
	}
}

func TestDetectImage(t *testing.T) {
	mt, err := DetectImage(bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "image/png", mt.String())

	_, err = DetectImage(strings.NewReader("plain text"))
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestObjectKeyIgnoresClientNames(t *testing.T) {
	a := objectKey("/posts/", ".png")
	b := objectKey("posts", ".png")
	assert.True(t, strings.HasPrefix(a, "posts/"))
	assert.NotEqual(t, a, b)
}

func TestNewSelectsDriver(t *testing.T) {
	_, err := New(testConfig("ftp"))
	assert.Error(t, err)

	store, err := New(testConfig("local"))
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)
}
