package models

import (
	"testing"
)

func TestOptimalQualityForSpeed(t *testing.T) {
	tests := []struct {
		name  string
		speed float64
		want  Quality
	}{
		{"Zero", 0, QualityLow},
		{"JustBelowMedium", 4.9, QualityLow},
		{"MediumBoundary", 5.0, QualityMedium},
		{"JustBelowHigh", 9.9, QualityMedium},
		{"HighBoundary", 10.0, QualityHigh},
		{"JustBelowUltra", 24.9, QualityHigh},
		{"UltraBoundary", 25.0, QualityUltra},
		{"WellAboveUltra", 100, QualityUltra},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OptimalQualityForSpeed(tt.speed); got != tt.want {
				t.Errorf("OptimalQualityForSpeed(%v) = %v, want %v", tt.speed, got, tt.want)
			}
		})
	}
}

func TestParseQuality(t *testing.T) {
	tests := []struct {
		input   string
		want    Quality
		wantErr bool
	}{
		{"low", QualityLow, false},
		{"medium", QualityMedium, false},
		{"high", QualityHigh, false},
		{"ultra", QualityUltra, false},
		{"HIGH", "", true},
		{"4k", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseQuality(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseQuality(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseQuality(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestQualityRankOrdering(t *testing.T) {
	ordered := []Quality{QualityLow, QualityMedium, QualityHigh, QualityUltra}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1].Rank() >= ordered[i].Rank() {
			t.Errorf("expected %v to rank below %v", ordered[i-1], ordered[i])
		}
	}
	if Quality("bogus").Rank() != 0 {
		t.Errorf("unknown quality should rank 0, got %d", Quality("bogus").Rank())
	}
}

func TestCanPlayAt(t *testing.T) {
	m := MediaDescriptor{
		ID:                 "track-1",
		AvailableQualities: []Quality{QualityMedium, QualityHigh},
	}
	if !m.CanPlayAt(QualityMedium) || !m.CanPlayAt(QualityHigh) {
		t.Error("expected medium and high to be playable")
	}
	if m.CanPlayAt(QualityLow) || m.CanPlayAt(QualityUltra) {
		t.Error("expected low and ultra to be unplayable")
	}
}

func TestWithQualitiesDoesNotMutateReceiver(t *testing.T) {
	original := MediaDescriptor{
		ID:                 "track-1",
		AvailableQualities: []Quality{QualityMedium, QualityHigh},
	}
	restricted := original.WithQualities(QualityLow)

	if len(original.AvailableQualities) != 2 {
		t.Fatalf("receiver qualities changed: %v", original.AvailableQualities)
	}
	if len(restricted.AvailableQualities) != 1 || restricted.AvailableQualities[0] != QualityLow {
		t.Fatalf("unexpected copy qualities: %v", restricted.AvailableQualities)
	}

	// The copy must own its slice.
	restricted.AvailableQualities[0] = QualityUltra
	if original.AvailableQualities[0] != QualityMedium {
		t.Error("copy shares backing array with receiver")
	}
}

func TestWithDownloadedReturnsCopy(t *testing.T) {
	original := MediaDescriptor{ID: "track-1"}
	flagged := original.WithDownloaded(true)
	if original.Downloaded {
		t.Error("receiver downloaded flag changed")
	}
	if !flagged.Downloaded {
		t.Error("copy downloaded flag not set")
	}
}

func TestDownloadRowToDescriptorDefaults(t *testing.T) {
	row := DownloadRow{MediaID: "track-1", Title: "Untitled"}
	m := row.ToDescriptor()

	if !m.Downloaded {
		t.Error("re-hydrated descriptor should be flagged downloaded")
	}
	if m.Kind != KindMusic {
		t.Errorf("kind default = %v, want music", m.Kind)
	}
	if m.Metadata.Quality != QualityHigh {
		t.Errorf("quality default = %v, want high", m.Metadata.Quality)
	}
	if m.Metadata.Format != "mp3" {
		t.Errorf("format default = %v, want mp3", m.Metadata.Format)
	}
	if m.ThumbnailURL != PlaceholderThumbnail {
		t.Errorf("thumbnail default = %v", m.ThumbnailURL)
	}
	if len(m.AvailableQualities) != 1 || m.AvailableQualities[0] != QualityHigh {
		t.Errorf("qualities = %v, want [high]", m.AvailableQualities)
	}
}

func TestRequestFromDescriptor(t *testing.T) {
	m := MediaDescriptor{
		ID:    "track-9",
		Title: "Nine",
		Kind:  KindMusic,
		Metadata: MediaMetadata{
			DurationSeconds: 240,
			FileSizeBytes:   9_600_000,
			StreamingURL:    "https://example.org/9.mp3",
		},
		ThumbnailURL: "https://example.org/9.jpg",
	}
	req := RequestFromDescriptor(m, QualityMedium)
	if req.MediaID != "track-9" || req.Quality != QualityMedium {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.Format != "mp3" {
		t.Errorf("format fallback = %q, want mp3", req.Format)
	}
	if req.DurationSeconds != 240 || req.FileSizeBytes != 9_600_000 {
		t.Errorf("metadata not carried over: %+v", req)
	}
}
