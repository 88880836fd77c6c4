package service

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/models"
)

// Errors the orchestrator can return.
var (
	ErrNotFound            = errors.New("media not found")
	ErrQualityUnavailable  = errors.New("quality not available for this media")
	ErrInsufficientStorage = errors.New("insufficient storage space")
)

// OnlineCatalog is the remote side of the library, usually the composite
// content source.
type OnlineCatalog interface {
	FetchCatalog(ctx context.Context) ([]models.MediaDescriptor, error)
	SearchCatalog(ctx context.Context, query string) ([]models.MediaDescriptor, error)
	FetchDetails(ctx context.Context, id string) (*models.MediaDescriptor, error)
}

// LocalLibrary is the downloaded side of the library, implemented by the
// persistence gateway.
type LocalLibrary interface {
	ListLocal(ctx context.Context) []models.MediaDescriptor
	SaveLocal(ctx context.Context, mediaID string, quality models.Quality) (bool, error)
	AvailableStorage(ctx context.Context) int64
	DownloadProgress(ctx context.Context, mediaID string) int
	CancelDownload(ctx context.Context, mediaID string)
}

// StreamingPort is the playback side, implemented by the streaming adapter.
type StreamingPort interface {
	StartPlayback(ctx context.Context, mediaID string, quality models.Quality) error
	PausePlayback()
	ResumePlayback()
	AvailableQualities(mediaID string) []models.Quality
	ChangePlaybackQuality(quality models.Quality)
	StreamHealth() models.StreamHealth
}

// MediaService orchestrates the catalogs, the local library and playback.
type MediaService struct {
	online    OnlineCatalog
	local     LocalLibrary
	streaming StreamingPort
}

// New wires the service with its three collaborators.
func New(online OnlineCatalog, local LocalLibrary, streaming StreamingPort) *MediaService {
	return &MediaService{
		online:    online,
		local:     local,
		streaming: streaming,
	}
}

// GetAllMedia merges the online catalog with the local library. Items present
// in both keep the local version; ordering follows first appearance, online
// items before local-only ones.
func (s *MediaService) GetAllMedia(ctx context.Context) []models.MediaDescriptor {
	online, err := s.online.FetchCatalog(ctx)
	if err != nil {
		log.WithError(err).Warn("Online catalog unavailable, serving local library only")
	}
	local := s.local.ListLocal(ctx)

	index := make(map[string]int, len(online))
	merged := make([]models.MediaDescriptor, 0, len(online)+len(local))
	for _, m := range online {
		if i, seen := index[m.ID]; seen {
			merged[i] = m
			continue
		}
		index[m.ID] = len(merged)
		merged = append(merged, m)
	}
	for _, m := range local {
		if i, seen := index[m.ID]; seen {
			merged[i] = m
			continue
		}
		index[m.ID] = len(merged)
		merged = append(merged, m)
	}
	return merged
}

// GetMediaByID checks the local library first, then asks the online catalog.
func (s *MediaService) GetMediaByID(ctx context.Context, id string) (*models.MediaDescriptor, error) {
	for _, m := range s.local.ListLocal(ctx) {
		if m.ID == id {
			found := m
			return &found, nil
		}
	}

	m, err := s.online.FetchDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotFound
	}
	return m, nil
}

// SearchMedia searches the online catalogs, optionally filtered to one kind.
func (s *MediaService) SearchMedia(ctx context.Context, query string, kind models.MediaKind) ([]models.MediaDescriptor, error) {
	results, err := s.online.SearchCatalog(ctx, query)
	if err != nil {
		return nil, err
	}
	if kind == "" {
		return results, nil
	}
	filtered := results[:0]
	for _, m := range results {
		if m.Kind == kind {
			filtered = append(filtered, m)
		}
	}
	return filtered, nil
}

// DownloadMedia saves a media item to the local library after a storage
// check. The check reads available space without reserving it; a concurrent
// save can still push usage past the quota.
func (s *MediaService) DownloadMedia(ctx context.Context, mediaID string, quality models.Quality) (bool, error) {
	media, err := s.GetMediaByID(ctx, mediaID)
	if err != nil {
		return false, err
	}

	if media.Metadata.FileSizeBytes > s.local.AvailableStorage(ctx) {
		return false, ErrInsufficientStorage
	}

	return s.local.SaveLocal(ctx, mediaID, quality)
}

// CancelDownload delegates to the local library.
func (s *MediaService) CancelDownload(ctx context.Context, mediaID string) {
	s.local.CancelDownload(ctx, mediaID)
}

// DownloadProgress delegates to the local library.
func (s *MediaService) DownloadProgress(ctx context.Context, mediaID string) int {
	return s.local.DownloadProgress(ctx, mediaID)
}

// StartPlayback begins playback. When quality is empty, a tier is inferred
// from the current connection speed. The chosen tier must be one the
// descriptor advertises before the streaming adapter is involved.
func (s *MediaService) StartPlayback(ctx context.Context, mediaID string, quality models.Quality) error {
	media, err := s.GetMediaByID(ctx, mediaID)
	if err != nil {
		return err
	}

	if quality == "" {
		speed := s.ConnectionSpeed()
		quality = models.OptimalQualityForSpeed(speed)
		log.WithFields(log.Fields{
			"speedMbps": speed,
			"quality":   quality,
		}).Debug("Inferred playback quality from connection speed")
	}

	if !media.CanPlayAt(quality) {
		return fmt.Errorf("%w: %s", ErrQualityUnavailable, quality)
	}

	return s.streaming.StartPlayback(ctx, mediaID, quality)
}

// PausePlayback delegates to the streaming adapter.
func (s *MediaService) PausePlayback() {
	s.streaming.PausePlayback()
}

// ResumePlayback delegates to the streaming adapter.
func (s *MediaService) ResumePlayback() {
	s.streaming.ResumePlayback()
}

// AvailableQualities reports the tiers the streaming pipeline offers for the
// item. Note this asks the streaming side, not the catalog descriptor, so the
// answer reflects what playback can deliver rather than what the catalog
// advertises.
func (s *MediaService) AvailableQualities(mediaID string) []models.Quality {
	return s.streaming.AvailableQualities(mediaID)
}

// SetPlaybackQuality validates the tier against the descriptor and then asks
// the streaming adapter to switch.
func (s *MediaService) SetPlaybackQuality(ctx context.Context, mediaID string, quality models.Quality) error {
	media, err := s.GetMediaByID(ctx, mediaID)
	if err != nil {
		return err
	}
	if !media.CanPlayAt(quality) {
		return fmt.Errorf("%w: %s", ErrQualityUnavailable, quality)
	}
	s.streaming.ChangePlaybackQuality(quality)
	return nil
}

// ConnectionSpeed estimates the connection in Mbps from the stream health
// bitrate. It is a proxy measurement: the stream's own bitrate stands in for
// a real bandwidth probe.
func (s *MediaService) ConnectionSpeed() float64 {
	return float64(s.streaming.StreamHealth().BitrateBPS) / 1e6
}

// IsOnline reports whether any online catalog is reachable. An empty but
// successful catalog still counts as online.
func (s *MediaService) IsOnline(ctx context.Context) bool {
	_, err := s.online.FetchCatalog(ctx)
	return err == nil
}
