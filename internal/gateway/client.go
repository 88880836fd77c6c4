package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/models"
)

// DetailsFetcher resolves a media id into its descriptor so SaveLocal can
// snapshot the full metadata. The composite content source satisfies this.
type DetailsFetcher interface {
	FetchDetails(ctx context.Context, id string) (*models.MediaDescriptor, error)
}

// Client talks to the record store over HTTP and doubles as the media
// service's local library: what has been saved through the gateway is what
// counts as downloaded. Failures degrade rather than propagate: a failed
// write reports false and a failed read reports an empty library.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Details    DetailsFetcher
	QuotaBytes int64
}

// New builds a gateway client.
func New(baseURL string, httpClient *http.Client, details DetailsFetcher, quotaBytes int64) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: httpClient,
		Details:    details,
		QuotaBytes: quotaBytes,
	}
}

// SaveDownload posts a download record. Any transport or status failure
// reports false.
func (c *Client) SaveDownload(ctx context.Context, media models.MediaDescriptor, quality models.Quality) bool {
	body, err := json.Marshal(models.RequestFromDescriptor(media, quality))
	if err != nil {
		log.WithError(err).Error("Failed to encode download record")
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/downloads", bytes.NewReader(body))
	if err != nil {
		log.WithError(err).Error("Failed to build download request")
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		log.WithError(err).Warn("Download record save failed")
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.WithField("status", resp.StatusCode).Warn("Download record save rejected")
		return false
	}
	log.WithField("media", media.ID).Debug("Download record saved")
	return true
}

// ListDownloads fetches the saved records, newest first, re-hydrated as
// descriptors flagged downloaded and narrowed to their recorded quality.
// Failures yield an empty list.
func (c *Client) ListDownloads(ctx context.Context) []models.MediaDescriptor {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/downloads", nil)
	if err != nil {
		log.WithError(err).Error("Failed to build downloads request")
		return nil
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		log.WithError(err).Warn("Downloads fetch failed")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.WithField("status", resp.StatusCode).Warn("Downloads fetch rejected")
		return nil
	}

	var rows []models.DownloadRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		log.WithError(err).Warn("Failed to decode downloads response")
		return nil
	}

	items := make([]models.MediaDescriptor, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.ToDescriptor())
	}
	return items
}

// --- Local library capability ---

// ListLocal returns everything saved through the gateway.
func (c *Client) ListLocal(ctx context.Context) []models.MediaDescriptor {
	return c.ListDownloads(ctx)
}

// SaveLocal resolves the media and records it as downloaded at the given
// quality.
func (c *Client) SaveLocal(ctx context.Context, mediaID string, quality models.Quality) (bool, error) {
	media, err := c.Details.FetchDetails(ctx, mediaID)
	if err != nil {
		return false, fmt.Errorf("error resolving media %s: %w", mediaID, err)
	}
	if media == nil {
		return false, nil
	}
	return c.SaveDownload(ctx, *media, quality), nil
}

// IsDownloaded reports whether a record exists for the media id.
func (c *Client) IsDownloaded(ctx context.Context, mediaID string) bool {
	for _, m := range c.ListDownloads(ctx) {
		if m.ID == mediaID {
			return true
		}
	}
	return false
}

// UsedStorage sums the recorded file sizes.
func (c *Client) UsedStorage(ctx context.Context) int64 {
	var used int64
	for _, m := range c.ListDownloads(ctx) {
		used += m.Metadata.FileSizeBytes
	}
	return used
}

// AvailableStorage is the configured quota minus what the records claim,
// floored at zero.
func (c *Client) AvailableStorage(ctx context.Context) int64 {
	available := c.QuotaBytes - c.UsedStorage(ctx)
	if available < 0 {
		return 0
	}
	return available
}

// DownloadProgress reports 100 for saved media and 0 otherwise. Saves are a
// single record write, so there are no intermediate values.
func (c *Client) DownloadProgress(ctx context.Context, mediaID string) int {
	if c.IsDownloaded(ctx, mediaID) {
		return 100
	}
	return 0
}

// CancelDownload is accepted but does nothing: the record store is
// append-only and a save either happened or it did not.
func (c *Client) CancelDownload(ctx context.Context, mediaID string) {
	log.WithField("media", mediaID).Debug("Cancel requested; downloads are not cancellable")
}
