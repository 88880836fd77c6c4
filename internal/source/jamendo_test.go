package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/models"
)

func newJamendoTestServer(t *testing.T, handler http.HandlerFunc) (*Jamendo, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	j := &Jamendo{
		BaseURL:  srv.URL,
		ClientID: "test-client",
		Limit:    20,
		Client:   srv.Client(),
	}
	return j, srv
}

func TestJamendoFetchCatalogMapping(t *testing.T) {
	j, _ := newJamendoTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-client", r.URL.Query().Get("client_id"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[
			{"id":168,"name":"J'm'e FPM","artist_name":"TriFace","duration":183,
			 "audio":"https://cdn.example.org/168.mp3","image":"https://cdn.example.org/168.jpg"}
		]}`))
	})

	items, err := j.FetchCatalog(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)

	m := items[0]
	assert.Equal(t, "168", m.ID)
	assert.Equal(t, "TriFace - J'm'e FPM", m.Title)
	assert.Equal(t, models.KindMusic, m.Kind)
	assert.Equal(t, 183, m.Metadata.DurationSeconds)
	// Estimated at 320 kbps: duration * 320000 / 8.
	assert.Equal(t, int64(183)*40000, m.Metadata.FileSizeBytes)
	assert.Equal(t, "mp3", m.Metadata.Format)
	assert.Equal(t, "https://cdn.example.org/168.mp3", m.Metadata.StreamingURL)
	assert.Equal(t, "https://cdn.example.org/168.jpg", m.ThumbnailURL)
	assert.False(t, m.Downloaded)
	assert.Equal(t, []models.Quality{models.QualityMedium, models.QualityHigh}, m.AvailableQualities)
}

func TestJamendoMissingImageGetsPlaceholder(t *testing.T) {
	j, _ := newJamendoTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"id":"9","name":"Untitled","duration":60,"audio":"https://cdn.example.org/9.mp3"}]}`))
	})

	items, err := j.FetchCatalog(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.PlaceholderThumbnail, items[0].ThumbnailURL)
	// No artist name: title stays bare.
	assert.Equal(t, "Untitled", items[0].Title)
}

func TestJamendoSearchPassesQuery(t *testing.T) {
	j, _ := newJamendoTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "piano", r.URL.Query().Get("search"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[]}`))
	})

	items, err := j.SearchCatalog(context.Background(), "piano")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestJamendoFetchDetailsNotFound(t *testing.T) {
	j, _ := newJamendoTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "404404", r.URL.Query().Get("id"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[]}`))
	})

	m, err := j.FetchDetails(context.Background(), "404404")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestJamendoServerErrorSurfaces(t *testing.T) {
	j, _ := newJamendoTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := j.FetchCatalog(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadStatus)
}
