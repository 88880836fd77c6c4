package streaming

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/models"
)

// ErrNoStream is returned when an item has no streaming URL to play.
var ErrNoStream = errors.New("no streaming URL available")

// DetailsFetcher resolves a media id into its full descriptor. The composite
// content source satisfies this.
type DetailsFetcher interface {
	FetchDetails(ctx context.Context, id string) (*models.MediaDescriptor, error)
}

// HealthProbe reports the health of the active stream. The default probe
// returns a fixed 320 kbps snapshot; a real transport can substitute its own.
type HealthProbe func() models.StreamHealth

func defaultHealthProbe() models.StreamHealth {
	return models.StreamHealth{
		BitrateBPS:    320000,
		Buffering:     false,
		DroppedFrames: 0,
		LatencyMS:     0,
	}
}

// session state machine: idle -> playing <-> paused, stop returns to idle
// with the position reset.
type sessionState int

const (
	stateIdle sessionState = iota
	statePlaying
	statePaused
)

// Adapter manages at most one playback session over a Player primitive.
// Starting playback while a session exists stops and replaces it.
type Adapter struct {
	mu      sync.Mutex
	details DetailsFetcher
	player  Player
	probe   HealthProbe

	state     sessionState
	sessionID string
	mediaID   string
	quality   models.Quality
}

// NewAdapter builds a playback adapter. player defaults to the clock player
// and probe to the fixed health snapshot when nil.
func NewAdapter(details DetailsFetcher, player Player, probe HealthProbe) *Adapter {
	if player == nil {
		player = NewClockPlayer()
	}
	if probe == nil {
		probe = defaultHealthProbe
	}
	return &Adapter{
		details: details,
		player:  player,
		probe:   probe,
	}
}

// StartPlayback resolves the item and begins a new session, replacing any
// session in progress. Items without a streaming URL fail with ErrNoStream.
func (a *Adapter) StartPlayback(ctx context.Context, mediaID string, quality models.Quality) error {
	media, err := a.details.FetchDetails(ctx, mediaID)
	if err != nil {
		return err
	}
	if media == nil || !media.Playable() {
		return ErrNoStream
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != stateIdle {
		log.WithField("media", a.mediaID).Debug("Replacing active playback session")
		a.player.Pause()
		a.player.Seek(0)
	}

	a.sessionID = uuid.NewString()
	a.mediaID = mediaID
	a.quality = quality
	a.player.Bind(media.Metadata.StreamingURL, time.Duration(media.Metadata.DurationSeconds)*time.Second)
	a.player.Play()
	a.state = statePlaying

	log.WithFields(log.Fields{
		"session": a.sessionID,
		"media":   mediaID,
		"quality": quality,
	}).Info("Playback started")
	return nil
}

// PausePlayback pauses the active session. A no-op when idle.
func (a *Adapter) PausePlayback() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != statePlaying {
		return
	}
	a.player.Pause()
	a.state = statePaused
}

// ResumePlayback resumes a paused session. A no-op when idle.
func (a *Adapter) ResumePlayback() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != statePaused {
		return
	}
	a.player.Play()
	a.state = statePlaying
}

// StopPlayback ends the session and resets the position to zero.
func (a *Adapter) StopPlayback() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == stateIdle {
		return
	}
	a.player.Pause()
	a.player.Seek(0)
	a.state = stateIdle
	a.sessionID = ""
	a.mediaID = ""
	log.Debug("Playback stopped")
}

// CurrentPlaybackTime returns the playhead position in seconds, 0 when idle.
func (a *Adapter) CurrentPlaybackTime() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == stateIdle {
		return 0
	}
	return a.player.CurrentTime().Seconds()
}

// Duration returns the stream duration in seconds, 0 when idle.
func (a *Adapter) Duration() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == stateIdle {
		return 0
	}
	return a.player.Duration().Seconds()
}

// BufferStatus returns how much of the stream is buffered as a percentage.
// Unknown or zero duration reports 0 rather than dividing by it.
func (a *Adapter) BufferStatus() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == stateIdle {
		return 0
	}
	duration := a.player.Duration()
	if duration <= 0 {
		return 0
	}
	return a.player.BufferedEnd().Seconds() / duration.Seconds() * 100
}

// AvailableQualities reports the tiers the streaming pipeline can deliver.
// The transport renegotiates nothing today, so this is the single tier it
// actually streams at regardless of what the catalog advertises.
func (a *Adapter) AvailableQualities(mediaID string) []models.Quality {
	return []models.Quality{models.QualityHigh}
}

// ChangePlaybackQuality records the requested quality for the session. The
// underlying stream is not renegotiated.
func (a *Adapter) ChangePlaybackQuality(quality models.Quality) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == stateIdle {
		return
	}
	a.quality = quality
	log.WithFields(log.Fields{
		"session": a.sessionID,
		"quality": quality,
	}).Debug("Playback quality updated")
}

// StreamHealth returns the current stream health snapshot.
func (a *Adapter) StreamHealth() models.StreamHealth {
	return a.probe()
}

// NowPlaying reports the active session, if any.
func (a *Adapter) NowPlaying() (sessionID, mediaID string, quality models.Quality, active bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == stateIdle {
		return "", "", "", false
	}
	return a.sessionID, a.mediaID, a.quality, true
}
