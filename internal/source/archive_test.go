package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/models"
)

// archiveFixture serves advancedsearch and metadata endpoints from canned
// JSON keyed by item identifier.
func newArchiveTestServer(t *testing.T, searchJSON string, metadataByID map[string]string) *Archive {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/advancedsearch.php"):
			fmt.Fprint(w, searchJSON)
		case strings.HasPrefix(r.URL.Path, "/metadata/"):
			id := strings.TrimPrefix(r.URL.Path, "/metadata/")
			body, ok := metadataByID[id]
			if !ok {
				http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
				return
			}
			fmt.Fprint(w, body)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return &Archive{BaseURL: srv.URL, Limit: 20, Client: srv.Client()}
}

func TestArchiveFetchCatalogDropsUnplayable(t *testing.T) {
	search := `{"response":{"docs":[
		{"identifier":"gd1977","title":"Cornell Show","creator":"Grateful Dead","date":"1977-05-08"},
		{"identifier":"noaudio","title":"Empty Item"}
	]}}`
	metadata := map[string]string{
		"gd1977": `{"files":[
			{"name":"track01_64kbps.mp3","format":"MP3"},
			{"name":"track01.mp3","format":"VBR MP3"},
			{"name":"cover.jpg","format":"JPEG"}
		]}`,
		"noaudio": `{"files":[{"name":"notes.txt","format":"Text"}]}`,
	}
	a := newArchiveTestServer(t, search, metadata)

	items, err := a.FetchCatalog(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)

	m := items[0]
	assert.Equal(t, "gd1977", m.ID)
	assert.Equal(t, "Grateful Dead - Cornell Show (1977-05-08)", m.Title)
	assert.Equal(t, models.KindMusic, m.Kind)
	assert.Equal(t, archiveDefaultDuration, m.Metadata.DurationSeconds)
	assert.Equal(t, archiveDefaultFileSize, m.Metadata.FileSizeBytes)
	// The 64kbps transcode is skipped in favor of the VBR file.
	assert.Contains(t, m.Metadata.StreamingURL, "/download/gd1977/track01.mp3")
	assert.Contains(t, m.ThumbnailURL, "/download/gd1977/cover.jpg")
	assert.Equal(t, []models.Quality{models.QualityHigh}, m.AvailableQualities)
}

func TestArchiveFetchCatalogMissingCreatorAndDate(t *testing.T) {
	search := `{"response":{"docs":[{"identifier":"anon","title":"Mystery Tape"}]}}`
	metadata := map[string]string{
		"anon": `{"files":[{"name":"tape.mp3","format":"MP3"}]}`,
	}
	a := newArchiveTestServer(t, search, metadata)

	items, err := a.FetchCatalog(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Unknown Artist - Mystery Tape (Unknown Date)", items[0].Title)
	assert.Equal(t, models.PlaceholderThumbnail, items[0].ThumbnailURL)
}

func TestArchiveSearchKeepsUnresolvedItems(t *testing.T) {
	search := `{"response":{"docs":[
		{"identifier":"hit","title":"Resolvable","length":"245.7"},
		{"identifier":"miss","title":"Unresolvable"}
	]}}`
	metadata := map[string]string{
		"hit": `{"files":[{"name":"set1.mp3","format":"VBR MP3"}]}`,
	}
	a := newArchiveTestServer(t, search, metadata)

	items, err := a.SearchCatalog(context.Background(), "dead")
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "hit", items[0].ID)
	assert.Equal(t, 245, items[0].Metadata.DurationSeconds)
	assert.True(t, items[0].Playable())

	// Search results without a resolvable MP3 survive, unplayable.
	assert.Equal(t, "miss", items[1].ID)
	assert.False(t, items[1].Playable())
	assert.Equal(t, archiveDefaultDuration, items[1].Metadata.DurationSeconds)
}

func TestArchiveFetchDetails(t *testing.T) {
	metadata := map[string]string{
		"gd1977": `{
			"files":[
				{"name":"sample_clip.mp3","format":"MP3"},
				{"name":"full_show.mp3","format":"VBR MP3"},
				{"name":"poster.png","format":"PNG"}
			],
			"metadata":{"title":["Cornell 5/8/77"],"length":["5112"]}
		}`,
	}
	a := newArchiveTestServer(t, `{"response":{"docs":[]}}`, metadata)

	m, err := a.FetchDetails(context.Background(), "gd1977")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "Cornell 5/8/77", m.Title)
	assert.Equal(t, 5112, m.Metadata.DurationSeconds)
	// Sample clips never win the file selection.
	assert.Contains(t, m.Metadata.StreamingURL, "full_show.mp3")
	assert.Contains(t, m.ThumbnailURL, "poster.png")
}

func TestArchiveFetchDetailsNoPlayableFile(t *testing.T) {
	metadata := map[string]string{
		"textonly": `{"files":[{"name":"notes.txt","format":"Text"}],"metadata":{"title":"Nothing"}}`,
	}
	a := newArchiveTestServer(t, `{"response":{"docs":[]}}`, metadata)

	m, err := a.FetchDetails(context.Background(), "textonly")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestFlexStringForms(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"plain"`, "plain"},
		{`["first","second"]`, "first"},
		{`[]`, ""},
		{`245.7`, "245.7"},
		{`null`, ""},
		{`{"unexpected":true}`, ""},
	}
	for _, tt := range tests {
		var f flexString
		if err := f.UnmarshalJSON([]byte(tt.input)); err != nil {
			t.Errorf("UnmarshalJSON(%s) returned error: %v", tt.input, err)
			continue
		}
		if string(f) != tt.want {
			t.Errorf("UnmarshalJSON(%s) = %q, want %q", tt.input, f, tt.want)
		}
	}
}

func TestParseSeconds(t *testing.T) {
	tests := []struct {
		input    string
		fallback int
		want     int
	}{
		{"", 180, 180},
		{"245", 180, 245},
		{"245.7", 180, 245},
		{"0", 180, 180},
		{"-3", 180, 180},
		{"abc", 180, 180},
	}
	for _, tt := range tests {
		if got := parseSeconds(tt.input, tt.fallback); got != tt.want {
			t.Errorf("parseSeconds(%q, %d) = %d, want %d", tt.input, tt.fallback, got, tt.want)
		}
	}
}
