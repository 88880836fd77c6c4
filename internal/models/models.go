package models

import (
	"fmt"
	"time"
)

// MediaKind classifies what a descriptor points at. Only music is produced by
// the shipped content sources, but the wire contract carries all three.
type MediaKind string

const (
	KindMovie MediaKind = "movie"
	KindShow  MediaKind = "show"
	KindMusic MediaKind = "music"
)

// Quality is a discrete playback fidelity tier, ordered low < medium < high < ultra.
type Quality string

const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
	QualityUltra  Quality = "ultra"
)

// qualityRanks orders the tiers. Unknown values rank 0, below low.
var qualityRanks = map[Quality]int{
	QualityLow:    1,
	QualityMedium: 2,
	QualityHigh:   3,
	QualityUltra:  4,
}

// Rank returns the ordering position of the quality tier, 0 for unknown values.
func (q Quality) Rank() int {
	return qualityRanks[q]
}

// Valid reports whether q is one of the four known tiers.
func (q Quality) Valid() bool {
	return q.Rank() > 0
}

// ParseQuality converts a user-supplied string into a Quality.
func ParseQuality(s string) (Quality, error) {
	q := Quality(s)
	if !q.Valid() {
		return "", fmt.Errorf("unknown quality %q (expected low, medium, high or ultra)", s)
	}
	return q, nil
}

// OptimalQualityForSpeed infers a playback tier from a connection speed in
// Mbps: >=25 ultra, >=10 high, >=5 medium, otherwise low.
func OptimalQualityForSpeed(speedMbps float64) Quality {
	switch {
	case speedMbps >= 25:
		return QualityUltra
	case speedMbps >= 10:
		return QualityHigh
	case speedMbps >= 5:
		return QualityMedium
	default:
		return QualityLow
	}
}

type (
	// MediaMetadata carries the playback-relevant attributes of a descriptor.
	// An empty StreamingURL means the item is not currently playable.
	MediaMetadata struct {
		DurationSeconds int     `json:"durationSeconds"`
		Quality         Quality `json:"quality"`
		FileSizeBytes   int64   `json:"fileSizeBytes"`
		Format          string  `json:"format"`
		StreamingURL    string  `json:"streamingUrl,omitempty"`
	}

	// MediaDescriptor is the canonical representation of a catalog item,
	// independent of which source produced it. It is treated as immutable:
	// the With* constructors return copies, so descriptors can be shared
	// across the service's merge paths without aliasing surprises.
	MediaDescriptor struct {
		ID                 string        `json:"id"`
		Title              string        `json:"title"`
		Kind               MediaKind     `json:"kind"`
		Metadata           MediaMetadata `json:"metadata"`
		ThumbnailURL       string        `json:"thumbnailUrl"`
		Downloaded         bool          `json:"downloaded"`
		AvailableQualities []Quality     `json:"availableQualities"`
	}

	// UserPreferences holds the persisted per-user settings.
	UserPreferences struct {
		PreferredQuality Quality `json:"preferredQuality"`
	}

	// UserProfile is the single local user. Multi-user is out of scope.
	UserProfile struct {
		ID          string          `json:"id"`
		Username    string          `json:"username"`
		Preferences UserPreferences `json:"preferences"`
	}

	// StreamHealth is a coarse snapshot of the active stream session.
	StreamHealth struct {
		BitrateBPS    int  `json:"bitrate"` // bits per second
		Buffering     bool `json:"buffering"`
		DroppedFrames int  `json:"droppedFrames"` // video only, always 0 for audio
		LatencyMS     int  `json:"latency"`
	}

	// DownloadRow is a persisted download record as returned by
	// GET /api/downloads. Field names follow the record store's columns.
	DownloadRow struct {
		MediaID         string    `json:"media_id"`
		Title           string    `json:"title"`
		Kind            MediaKind `json:"type"`
		Quality         Quality   `json:"quality"`
		StreamingURL    string    `json:"streaming_url"`
		ThumbnailURL    string    `json:"thumbnail_url"`
		DurationSeconds int       `json:"duration"`
		FileSizeBytes   int64     `json:"file_size"`
		Format          string    `json:"format"`
		DownloadDate    time.Time `json:"download_date"`
	}

	// DownloadRequest is the POST /api/downloads body. The write side of the
	// wire contract uses camelCase while the read side uses snake_case; both
	// shapes are kept verbatim so either end can change independently.
	DownloadRequest struct {
		MediaID         string    `json:"mediaId"`
		Title           string    `json:"title"`
		Kind            MediaKind `json:"type"`
		Quality         Quality   `json:"quality"`
		StreamingURL    string    `json:"streamingUrl"`
		ThumbnailURL    string    `json:"thumbnailUrl"`
		DurationSeconds int       `json:"duration"`
		FileSizeBytes   int64     `json:"fileSize"`
		Format          string    `json:"format"`
	}

	// Config is the application configuration loaded from config.toml.
	Config struct {
		// Paths
		DatabasePath   string `toml:"DatabasePath"`
		BleveIndexPath string `toml:"BleveIndexPath"`

		// Content sources
		Source          string `toml:"Source"` // jamendo, archive or all
		JamendoBaseURL  string `toml:"JamendoBaseUrl"`
		JamendoClientID string `toml:"JamendoClientId"`
		ArchiveBaseURL  string `toml:"ArchiveBaseUrl"`
		CatalogLimit    int    `toml:"CatalogLimit"`

		// Persistence gateway / record store
		GatewayURL        string `toml:"GatewayUrl"`
		ListenAddr        string `toml:"ListenAddr"`
		StorageQuotaBytes int64  `toml:"StorageQuotaBytes"`

		// API behavior
		HTTPTimeoutSec int  `toml:"HttpTimeoutSec"`
		LogApiRequests bool `toml:"LogApiRequests"`
	}
)

// DefaultUserID identifies the bootstrap profile created on first use.
const DefaultUserID = "default-user"

// PlaceholderThumbnail is used when a catalog provides no artwork.
const PlaceholderThumbnail = "/api/placeholder/400/225"

// CanPlayAt reports whether the descriptor can be played at the given quality.
func (m MediaDescriptor) CanPlayAt(q Quality) bool {
	for _, have := range m.AvailableQualities {
		if have == q {
			return true
		}
	}
	return false
}

// Playable reports whether a streaming URL is known for the item.
func (m MediaDescriptor) Playable() bool {
	return m.Metadata.StreamingURL != ""
}

// WithDownloaded returns a copy of the descriptor with the downloaded flag set.
func (m MediaDescriptor) WithDownloaded(downloaded bool) MediaDescriptor {
	out := m.clone()
	out.Downloaded = downloaded
	return out
}

// WithQualities returns a copy of the descriptor restricted to the given
// quality tiers.
func (m MediaDescriptor) WithQualities(qualities ...Quality) MediaDescriptor {
	out := m.clone()
	out.AvailableQualities = append([]Quality(nil), qualities...)
	return out
}

// clone copies the descriptor including its quality slice so callers never
// share backing arrays.
func (m MediaDescriptor) clone() MediaDescriptor {
	out := m
	out.AvailableQualities = append([]Quality(nil), m.AvailableQualities...)
	return out
}

// Format returns the container format, defaulting to mp3 when unset.
func (m MediaDescriptor) Format() string {
	if m.Metadata.Format == "" {
		return "mp3"
	}
	return m.Metadata.Format
}

// RequestFromDescriptor serializes a descriptor plus the chosen quality into
// the POST body for the record store.
func RequestFromDescriptor(m MediaDescriptor, quality Quality) DownloadRequest {
	return DownloadRequest{
		MediaID:         m.ID,
		Title:           m.Title,
		Kind:            m.Kind,
		Quality:         quality,
		StreamingURL:    m.Metadata.StreamingURL,
		ThumbnailURL:    m.ThumbnailURL,
		DurationSeconds: m.Metadata.DurationSeconds,
		FileSizeBytes:   m.Metadata.FileSizeBytes,
		Format:          m.Format(),
	}
}

// ToDescriptor re-hydrates a persisted row into a descriptor. Downloaded items
// come back flagged and narrowed to the single quality recorded at save time.
func (r DownloadRow) ToDescriptor() MediaDescriptor {
	quality := r.Quality
	if !quality.Valid() {
		quality = QualityHigh
	}
	kind := r.Kind
	if kind == "" {
		kind = KindMusic
	}
	format := r.Format
	if format == "" {
		format = "mp3"
	}
	thumbnail := r.ThumbnailURL
	if thumbnail == "" {
		thumbnail = PlaceholderThumbnail
	}
	return MediaDescriptor{
		ID:    r.MediaID,
		Title: r.Title,
		Kind:  kind,
		Metadata: MediaMetadata{
			DurationSeconds: r.DurationSeconds,
			Quality:         quality,
			FileSizeBytes:   r.FileSizeBytes,
			Format:          format,
			StreamingURL:    r.StreamingURL,
		},
		ThumbnailURL:       thumbnail,
		Downloaded:         true,
		AvailableQualities: []Quality{quality},
	}
}
