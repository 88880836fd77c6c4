package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/models"
)

// jamendoTrack is one row of the Jamendo /tracks response.
type jamendoTrack struct {
	ID         json.Number `json:"id"`
	Name       string      `json:"name"`
	ArtistName string      `json:"artist_name"`
	Duration   int         `json:"duration"`
	Audio      string      `json:"audio"`
	Image      string      `json:"image"`
}

type jamendoResponse struct {
	Results []jamendoTrack `json:"results"`
}

// Jamendo is the content source adapter for the Jamendo track API.
type Jamendo struct {
	BaseURL  string
	ClientID string
	Limit    int
	Client   *http.Client
}

// NewJamendo builds a Jamendo adapter from config.
func NewJamendo(cfg models.Config, client *http.Client) *Jamendo {
	return &Jamendo{
		BaseURL:  cfg.JamendoBaseURL,
		ClientID: cfg.JamendoClientID,
		Limit:    cfg.CatalogLimit,
		Client:   client,
	}
}

// Name implements ContentSource.
func (j *Jamendo) Name() string { return "jamendo" }

// jamendoStreamBitrate is the nominal MP3 bitrate Jamendo streams at, used to
// estimate a file size when the API provides none.
const jamendoStreamBitrate = 320000

func (j *Jamendo) tracksURL(extra url.Values) string {
	values := url.Values{}
	values.Set("client_id", j.ClientID)
	values.Set("format", "json")
	values.Set("limit", strconv.Itoa(j.Limit))
	for k, vs := range extra {
		for _, v := range vs {
			values.Add(k, v)
		}
	}
	return fmt.Sprintf("%s/tracks/?%s", j.BaseURL, values.Encode())
}

// FetchCatalog returns the default track listing.
func (j *Jamendo) FetchCatalog(ctx context.Context) ([]models.MediaDescriptor, error) {
	return j.fetch(ctx, nil)
}

// SearchCatalog returns tracks matching the free-text query.
func (j *Jamendo) SearchCatalog(ctx context.Context, query string) ([]models.MediaDescriptor, error) {
	return j.fetch(ctx, url.Values{"search": {query}})
}

// FetchDetails looks up a single track by id. A clean empty result means the
// track does not exist and returns (nil, nil).
func (j *Jamendo) FetchDetails(ctx context.Context, id string) (*models.MediaDescriptor, error) {
	items, err := j.fetch(ctx, url.Values{"id": {id}})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	m := items[0]
	return &m, nil
}

func (j *Jamendo) fetch(ctx context.Context, extra url.Values) ([]models.MediaDescriptor, error) {
	var resp jamendoResponse
	if err := getJSON(ctx, j.Client, j.tracksURL(extra), &resp); err != nil {
		return nil, fmt.Errorf("jamendo: %w", err)
	}

	items := make([]models.MediaDescriptor, 0, len(resp.Results))
	for _, track := range resp.Results {
		items = append(items, track.toDescriptor())
	}
	log.WithField("count", len(items)).Debug("Jamendo catalog fetched")
	return items, nil
}

func (t jamendoTrack) toDescriptor() models.MediaDescriptor {
	title := t.Name
	if t.ArtistName != "" {
		title = fmt.Sprintf("%s - %s", t.ArtistName, t.Name)
	}
	thumbnail := t.Image
	if thumbnail == "" {
		thumbnail = models.PlaceholderThumbnail
	}
	return models.MediaDescriptor{
		ID:    t.ID.String(),
		Title: title,
		Kind:  models.KindMusic,
		Metadata: models.MediaMetadata{
			DurationSeconds: t.Duration,
			Quality:         models.QualityHigh,
			FileSizeBytes:   int64(t.Duration) * jamendoStreamBitrate / 8,
			Format:          "mp3",
			StreamingURL:    t.Audio,
		},
		ThumbnailURL:       thumbnail,
		AvailableQualities: []models.Quality{models.QualityMedium, models.QualityHigh},
	}
}
