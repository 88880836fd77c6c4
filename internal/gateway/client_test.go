package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/models"
)

type fakeDetails struct {
	media map[string]models.MediaDescriptor
}

func (f *fakeDetails) FetchDetails(ctx context.Context, id string) (*models.MediaDescriptor, error) {
	if m, ok := f.media[id]; ok {
		return &m, nil
	}
	return nil, nil
}

func rowsJSON(rows ...models.DownloadRow) string {
	b, _ := json.Marshal(rows)
	return string(b)
}

func TestSaveDownloadPostsWireShape(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/downloads", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"id":"row-1"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, srv.Client(), nil, 0)
	media := models.MediaDescriptor{
		ID:    "track-1",
		Title: "One",
		Kind:  models.KindMusic,
		Metadata: models.MediaMetadata{
			DurationSeconds: 200,
			FileSizeBytes:   8_000_000,
			StreamingURL:    "https://cdn.example.org/1.mp3",
		},
		ThumbnailURL: "https://cdn.example.org/1.jpg",
	}

	ok := c.SaveDownload(context.Background(), media, models.QualityMedium)
	assert.True(t, ok)

	// POST body is camelCase.
	assert.Equal(t, "track-1", got["mediaId"])
	assert.Equal(t, "medium", got["quality"])
	assert.Equal(t, "https://cdn.example.org/1.mp3", got["streamingUrl"])
	assert.Equal(t, float64(200), got["duration"])
	assert.Equal(t, float64(8_000_000), got["fileSize"])
	assert.Equal(t, "mp3", got["format"])
}

func TestSaveDownloadFailureReportsFalse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, srv.Client(), nil, 0)
	assert.False(t, c.SaveDownload(context.Background(), models.MediaDescriptor{ID: "x"}, models.QualityHigh))

	// Unreachable server also reports false.
	srv.Close()
	assert.False(t, c.SaveDownload(context.Background(), models.MediaDescriptor{ID: "x"}, models.QualityHigh))
}

func TestListDownloadsRehydratesDescriptors(t *testing.T) {
	rows := rowsJSON(models.DownloadRow{
		MediaID:         "track-1",
		Title:           "One",
		Kind:            models.KindMusic,
		Quality:         models.QualityMedium,
		StreamingURL:    "https://cdn.example.org/1.mp3",
		DurationSeconds: 200,
		FileSizeBytes:   8_000_000,
		Format:          "mp3",
		DownloadDate:    time.Now().UTC(),
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(rows))
	}))
	defer srv.Close()

	c := New(srv.URL, srv.Client(), nil, 0)
	items := c.ListDownloads(context.Background())
	require.Len(t, items, 1)

	m := items[0]
	assert.True(t, m.Downloaded)
	assert.Equal(t, []models.Quality{models.QualityMedium}, m.AvailableQualities)
	assert.Equal(t, "https://cdn.example.org/1.mp3", m.Metadata.StreamingURL)
}

func TestListDownloadsFailureYieldsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, srv.Client(), nil, 0)
	assert.Empty(t, c.ListDownloads(context.Background()))
}

func TestSaveLocalResolvesViaDetails(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"success":true,"id":"row-1"}`))
	}))
	defer srv.Close()

	details := &fakeDetails{media: map[string]models.MediaDescriptor{
		"track-1": {ID: "track-1", Title: "One", Metadata: models.MediaMetadata{StreamingURL: "u"}},
	}}
	c := New(srv.URL, srv.Client(), details, 0)

	ok, err := c.SaveLocal(context.Background(), "track-1", models.QualityHigh)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "track-1", got["mediaId"])

	// Unknown media saves nothing and reports false without error.
	ok, err = c.SaveLocal(context.Background(), "ghost", models.QualityHigh)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStorageAccounting(t *testing.T) {
	rows := rowsJSON(
		models.DownloadRow{MediaID: "a", FileSizeBytes: 3_000_000, Quality: models.QualityHigh},
		models.DownloadRow{MediaID: "b", FileSizeBytes: 2_000_000, Quality: models.QualityHigh},
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rows))
	}))
	defer srv.Close()

	c := New(srv.URL, srv.Client(), nil, 10_000_000)
	ctx := context.Background()

	assert.Equal(t, int64(5_000_000), c.UsedStorage(ctx))
	assert.Equal(t, int64(5_000_000), c.AvailableStorage(ctx))
	assert.True(t, c.IsDownloaded(ctx, "a"))
	assert.False(t, c.IsDownloaded(ctx, "z"))
	assert.Equal(t, 100, c.DownloadProgress(ctx, "a"))
	assert.Equal(t, 0, c.DownloadProgress(ctx, "z"))
}

func TestAvailableStorageFloorsAtZero(t *testing.T) {
	rows := rowsJSON(models.DownloadRow{MediaID: "a", FileSizeBytes: 9_000_000, Quality: models.QualityHigh})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rows))
	}))
	defer srv.Close()

	c := New(srv.URL, srv.Client(), nil, 1_000_000)
	assert.Equal(t, int64(0), c.AvailableStorage(context.Background()))
}
