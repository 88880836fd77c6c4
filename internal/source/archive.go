package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/models"
)

// Defaults applied when the archive metadata omits a value. Live recordings
// rarely carry reliable sizes, so the estimates keep storage accounting sane.
const (
	archiveDefaultDuration = 180
	archiveDefaultFileSize = int64(10) * 1024 * 1024
)

type archiveSearchDoc struct {
	Identifier string     `json:"identifier"`
	Title      string     `json:"title"`
	Creator    flexString `json:"creator"`
	Date       string     `json:"date"`
	Length     flexString `json:"length"`
}

type archiveSearchResponse struct {
	Response struct {
		Docs []archiveSearchDoc `json:"docs"`
	} `json:"response"`
}

type archiveFile struct {
	Name   string     `json:"name"`
	Format string     `json:"format"`
	Length flexString `json:"length"`
}

type archiveMetadataResponse struct {
	Files    []archiveFile `json:"files"`
	Metadata struct {
		Title  flexString `json:"title"`
		Length flexString `json:"length"`
	} `json:"metadata"`
}

// flexString decodes a JSON field that may be a string, an array of strings or
// a bare number, all of which the archive's endpoints produce for item fields.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		if len(arr) > 0 {
			*f = flexString(arr[0])
		} else {
			*f = ""
		}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexString(n.String())
		return nil
	}
	*f = ""
	return nil
}

// Archive is the content source adapter for the Internet Archive's live music
// collection.
type Archive struct {
	BaseURL string
	Limit   int
	Client  *http.Client
}

// NewArchive builds an Internet Archive adapter from config.
func NewArchive(cfg models.Config, client *http.Client) *Archive {
	return &Archive{
		BaseURL: cfg.ArchiveBaseURL,
		Limit:   cfg.CatalogLimit,
		Client:  client,
	}
}

// Name implements ContentSource.
func (a *Archive) Name() string { return "archive" }

// FetchCatalog lists the most-downloaded live recordings. Items without a
// resolvable MP3 are dropped from the catalog.
func (a *Archive) FetchCatalog(ctx context.Context) ([]models.MediaDescriptor, error) {
	values := url.Values{}
	values.Set("q", "collection:(etree) AND format:(MP3)")
	values.Set("fl[]", "identifier,title,creator,date,format")
	values.Set("output", "json")
	values.Set("rows", strconv.Itoa(a.Limit))
	values.Set("sort[]", "-downloads")

	var resp archiveSearchResponse
	searchURL := fmt.Sprintf("%s/advancedsearch.php?%s", a.BaseURL, values.Encode())
	if err := getJSON(ctx, a.Client, searchURL, &resp); err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}

	items := a.resolveAll(ctx, resp.Response.Docs, func(doc archiveSearchDoc, details *archiveItemDetails) models.MediaDescriptor {
		creator := string(doc.Creator)
		if creator == "" {
			creator = "Unknown Artist"
		}
		date := doc.Date
		if date == "" {
			date = "Unknown Date"
		}
		title := fmt.Sprintf("%s - %s (%s)", creator, doc.Title, date)
		return a.descriptor(doc.Identifier, title, archiveDefaultDuration, details)
	})

	// Catalog entries must be playable.
	playable := items[:0]
	for _, m := range items {
		if m.Playable() {
			playable = append(playable, m)
		}
	}
	log.WithField("count", len(playable)).Debug("Archive catalog fetched")
	return playable, nil
}

// SearchCatalog runs a free-text search across the audio collection. Unlike
// the catalog listing, unplayable results are kept so the caller still sees
// matches whose files could not be resolved.
func (a *Archive) SearchCatalog(ctx context.Context, query string) ([]models.MediaDescriptor, error) {
	values := url.Values{}
	values.Set("q", fmt.Sprintf("mediatype:(audio) AND format:(MP3) AND (%s)", query))
	values.Set("fl[]", "identifier,title,length,description,format")
	values.Set("output", "json")
	values.Set("rows", strconv.Itoa(a.Limit))

	var resp archiveSearchResponse
	searchURL := fmt.Sprintf("%s/advancedsearch.php?%s", a.BaseURL, values.Encode())
	if err := getJSON(ctx, a.Client, searchURL, &resp); err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}

	items := a.resolveAll(ctx, resp.Response.Docs, func(doc archiveSearchDoc, details *archiveItemDetails) models.MediaDescriptor {
		return a.descriptor(doc.Identifier, doc.Title, parseSeconds(string(doc.Length), archiveDefaultDuration), details)
	})
	return items, nil
}

// FetchDetails resolves a single item. A metadata response without a playable
// MP3 is a clean not-found.
func (a *Archive) FetchDetails(ctx context.Context, id string) (*models.MediaDescriptor, error) {
	var meta archiveMetadataResponse
	metaURL := fmt.Sprintf("%s/metadata/%s", a.BaseURL, url.PathEscape(id))
	if err := getJSON(ctx, a.Client, metaURL, &meta); err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}

	details := a.pickFiles(id, meta.Files)
	if details == nil {
		return nil, nil
	}

	title := string(meta.Metadata.Title)
	if title == "" {
		title = "Unknown Title"
	}
	duration := parseSeconds(string(meta.Metadata.Length), archiveDefaultDuration)
	m := a.descriptor(id, title, duration, details)
	return &m, nil
}

type archiveItemDetails struct {
	MP3URL       string
	ThumbnailURL string
}

// resolveAll fetches per-item file details concurrently, preserving doc order.
func (a *Archive) resolveAll(ctx context.Context, docs []archiveSearchDoc, build func(archiveSearchDoc, *archiveItemDetails) models.MediaDescriptor) []models.MediaDescriptor {
	items := make([]models.MediaDescriptor, len(docs))
	var wg sync.WaitGroup
	for i, doc := range docs {
		wg.Add(1)
		go func(i int, doc archiveSearchDoc) {
			defer wg.Done()
			details := a.fetchItemDetails(ctx, doc.Identifier)
			items[i] = build(doc, details)
		}(i, doc)
	}
	wg.Wait()
	return items
}

// fetchItemDetails finds the playable MP3 and artwork for an item. Failures
// resolve to nil; the caller decides whether unplayable items survive.
func (a *Archive) fetchItemDetails(ctx context.Context, id string) *archiveItemDetails {
	var meta archiveMetadataResponse
	metaURL := fmt.Sprintf("%s/metadata/%s", a.BaseURL, url.PathEscape(id))
	if err := getJSON(ctx, a.Client, metaURL, &meta); err != nil {
		log.WithError(err).WithField("item", id).Debug("Archive item details unavailable")
		return nil
	}
	return a.pickFiles(id, meta.Files)
}

// pickFiles selects the first acceptable MP3 (skipping 64kbps transcodes and
// sample clips) and the first jpg/png as artwork.
func (a *Archive) pickFiles(id string, files []archiveFile) *archiveItemDetails {
	var mp3 *archiveFile
	for i := range files {
		f := &files[i]
		format := strings.ToLower(f.Format)
		name := strings.ToLower(f.Name)
		if (format == "vbr mp3" || format == "mp3") &&
			!strings.Contains(name, "64kbps") &&
			!strings.Contains(name, "sample") {
			mp3 = f
			break
		}
	}
	if mp3 == nil {
		return nil
	}

	details := &archiveItemDetails{
		MP3URL: fmt.Sprintf("%s/download/%s/%s", a.BaseURL, url.PathEscape(id), url.PathEscape(mp3.Name)),
	}
	for _, f := range files {
		name := strings.ToLower(f.Name)
		if strings.HasSuffix(name, ".jpg") || strings.HasSuffix(name, ".png") {
			details.ThumbnailURL = fmt.Sprintf("%s/download/%s/%s", a.BaseURL, url.PathEscape(id), url.PathEscape(f.Name))
			break
		}
	}
	return details
}

func (a *Archive) descriptor(id, title string, duration int, details *archiveItemDetails) models.MediaDescriptor {
	streamingURL := ""
	thumbnail := models.PlaceholderThumbnail
	if details != nil {
		streamingURL = details.MP3URL
		if details.ThumbnailURL != "" {
			thumbnail = details.ThumbnailURL
		}
	}
	return models.MediaDescriptor{
		ID:    id,
		Title: title,
		Kind:  models.KindMusic,
		Metadata: models.MediaMetadata{
			DurationSeconds: duration,
			Quality:         models.QualityHigh,
			FileSizeBytes:   archiveDefaultFileSize,
			Format:          "mp3",
			StreamingURL:    streamingURL,
		},
		ThumbnailURL:       thumbnail,
		AvailableQualities: []models.Quality{models.QualityHigh},
	}
}

// parseSeconds parses a duration that may arrive as "123", "123.45" or empty.
func parseSeconds(s string, fallback int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
