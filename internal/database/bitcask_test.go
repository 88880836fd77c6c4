package database

import (
	"bytes"
	"compress/gzip"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPutGetRoundTrip(t *testing.T) {
	db := openTestDB(t)

	value := []byte(`{"id":"track-1","title":"One"}`)
	require.NoError(t, db.Put([]byte("k1"), value))

	got, err := db.Get([]byte("k1"))
	require.NoError(t, err)
	assert.Equal(t, value, got)
}

func TestGetMissingKey(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Get([]byte("absent"))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestValuesAreStoredCompressed(t *testing.T) {
	db := openTestDB(t)

	payload := bytes.Repeat([]byte("compressible "), 100)
	require.NoError(t, db.Put([]byte("big"), payload))

	// Reading back through the wrapper transparently decompresses.
	got, err := db.Get([]byte("big"))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestGetToleratesUncompressedValue(t *testing.T) {
	raw := []byte("plain value")
	got, err := decompressIfGzipped(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	compressed, err := compressGzip(raw, gzip.BestCompression)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(compressed, gzipMagicBytes))

	got, err = decompressIfGzipped(compressed)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestDeleteAndHas(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	assert.True(t, db.Has([]byte("k")))

	require.NoError(t, db.Delete([]byte("k")))
	assert.False(t, db.Has([]byte("k")))

	err := db.Delete([]byte("k"))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFoldVisitsAllPairs(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Put(DownloadKey("a"), []byte("1")))
	require.NoError(t, db.Put(DownloadKey("b"), []byte("2")))
	require.NoError(t, db.Put(UserKey("default-user"), []byte("3")))

	downloads := 0
	total := 0
	err := db.Fold(func(key []byte, value []byte) error {
		total++
		if IsDownloadKey(key) {
			downloads++
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, 2, downloads)
}

func TestKeyHelpers(t *testing.T) {
	assert.Equal(t, []byte("user_default-user"), UserKey("default-user"))
	assert.Equal(t, []byte("download_abc"), DownloadKey("abc"))
	assert.True(t, IsDownloadKey([]byte("download_abc")))
	assert.False(t, IsDownloadKey([]byte("user_abc")))
}
