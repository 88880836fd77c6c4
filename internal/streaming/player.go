package streaming

import (
	"sync"
	"time"
)

// Player is the playback primitive the session adapter drives. Implementations
// are not required to be safe for concurrent use; the adapter serializes
// access.
type Player interface {
	// Bind loads a stream URL, replacing whatever was loaded before.
	Bind(url string, duration time.Duration)
	Play()
	Pause()
	Seek(t time.Duration)
	CurrentTime() time.Duration
	Duration() time.Duration
	// BufferedEnd reports how far ahead of the start the buffer reaches.
	BufferedEnd() time.Duration
}

// clockPlayer is the shipped Player: it advances the playhead by wall clock
// while playing, clamps at the known duration and reports a full buffer. It
// stands in for a real audio output, which a desktop build would supply.
type clockPlayer struct {
	mu       sync.Mutex
	url      string
	duration time.Duration
	playing  bool
	position time.Duration
	lastTick time.Time
}

// NewClockPlayer returns a Player that simulates playback in real time.
func NewClockPlayer() Player {
	return &clockPlayer{}
}

func (p *clockPlayer) Bind(url string, duration time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
	p.duration = duration
	p.playing = false
	p.position = 0
}

func (p *clockPlayer) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.url == "" || p.playing {
		return
	}
	p.playing = true
	p.lastTick = time.Now()
}

func (p *clockPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advanceLocked()
	p.playing = false
}

func (p *clockPlayer) Seek(t time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advanceLocked()
	if t < 0 {
		t = 0
	}
	if p.duration > 0 && t > p.duration {
		t = p.duration
	}
	p.position = t
}

func (p *clockPlayer) CurrentTime() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advanceLocked()
	return p.position
}

func (p *clockPlayer) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

func (p *clockPlayer) BufferedEnd() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

// advanceLocked moves the playhead forward by the elapsed wall time.
// Callers must hold the mutex.
func (p *clockPlayer) advanceLocked() {
	if !p.playing {
		return
	}
	now := time.Now()
	p.position += now.Sub(p.lastTick)
	p.lastTick = now
	if p.duration > 0 && p.position >= p.duration {
		p.position = p.duration
		p.playing = false
	}
}
