package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreUploadAndPresign(t *testing.T) {
	store := NewLocalStore(t.TempDir(), 1)

	locator, size, err := store.Upload(strings.NewReader("hello"), "report.pdf", 12, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)
	assert.True(t, strings.HasPrefix(locator, "projects/12/"))
	assert.True(t, strings.HasSuffix(locator, ".pdf"))

	url := store.Presign(locator, 15*time.Minute)
	assert.NotEmpty(t, url)
	assert.True(t, strings.HasPrefix(url, "file://"))
}

func TestLocalStoreSizeLimit(t *testing.T) {
	store := NewLocalStore(t.TempDir(), 1)
	tooBig := strings.NewReader(strings.Repeat("x", 1024*1024+1))

	_, _, err := store.Upload(tooBig, "huge.pdf", 1, "application/pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum size")
}

func TestLocalStoreDelete(t *testing.T) {
	store := NewLocalStore(t.TempDir(), 1)

	locator, _, err := store.Upload(strings.NewReader("data"), "photo.jpg", 3, "image/jpeg")
	require.NoError(t, err)

	assert.True(t, store.Delete(locator))
	assert.False(t, store.Delete(locator), "second delete finds nothing")
	assert.Empty(t, store.Presign(locator, time.Minute), "deleted blob no longer presigns")
}

func TestLocalStoreUniqueLocators(t *testing.T) {
	store := NewLocalStore(t.TempDir(), 1)

	a, _, err := store.Upload(strings.NewReader("one"), "same.pdf", 1, "application/pdf")
	require.NoError(t, err)
	b, _, err := store.Upload(strings.NewReader("two"), "same.pdf", 1, "application/pdf")
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "identical filenames must not collide")
}
