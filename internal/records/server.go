package records

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/zeebo/blake3"

	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/database"
	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/models"
)

// envelope wraps a stored row with a checksum of its serialized form so
// corruption is detected on read instead of being served.
type envelope struct {
	Checksum string          `json:"checksum"`
	Row      json.RawMessage `json:"row"`
}

// Store is the download record store. Rows are append-only: there is no
// update or delete, and saving the same media twice produces two rows.
type Store struct {
	db *database.DB
}

// NewStore builds a record store over an open database.
func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

// Add persists a new download record and returns its row id.
func (s *Store) Add(req models.DownloadRequest) (string, error) {
	row := models.DownloadRow{
		MediaID:         req.MediaID,
		Title:           req.Title,
		Kind:            req.Kind,
		Quality:         req.Quality,
		StreamingURL:    req.StreamingURL,
		ThumbnailURL:    req.ThumbnailURL,
		DurationSeconds: req.DurationSeconds,
		FileSizeBytes:   req.FileSizeBytes,
		Format:          req.Format,
		DownloadDate:    time.Now().UTC(),
	}

	payload, err := json.Marshal(row)
	if err != nil {
		return "", fmt.Errorf("error encoding download row: %w", err)
	}

	sum := blake3.Sum256(payload)
	env, err := json.Marshal(envelope{
		Checksum: hex.EncodeToString(sum[:]),
		Row:      payload,
	})
	if err != nil {
		return "", fmt.Errorf("error encoding row envelope: %w", err)
	}

	rowID := uuid.NewString()
	if err := s.db.Put(database.DownloadKey(rowID), env); err != nil {
		return "", fmt.Errorf("error storing download record: %w", err)
	}
	log.WithFields(log.Fields{"row": rowID, "media": req.MediaID}).Debug("Download record stored")
	return rowID, nil
}

// List returns all readable rows, newest first. Rows whose checksum no longer
// matches their payload are skipped and logged.
func (s *Store) List() ([]models.DownloadRow, error) {
	var rows []models.DownloadRow
	err := s.db.Fold(func(key []byte, value []byte) error {
		if !database.IsDownloadKey(key) {
			return nil
		}

		var env envelope
		if err := json.Unmarshal(value, &env); err != nil {
			log.WithError(err).Warnf("Skipping unreadable download record %s", string(key))
			return nil
		}

		sum := blake3.Sum256(env.Row)
		if hex.EncodeToString(sum[:]) != env.Checksum {
			log.Warnf("Skipping download record %s with checksum mismatch", string(key))
			return nil
		}

		var row models.DownloadRow
		if err := json.Unmarshal(env.Row, &row); err != nil {
			log.WithError(err).Warnf("Skipping undecodable download record %s", string(key))
			return nil
		}
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error reading download records: %w", err)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].DownloadDate.After(rows[j].DownloadDate)
	})
	return rows, nil
}

// Server exposes the record store over HTTP at /api/downloads.
type Server struct {
	store *Store
}

// NewServer builds the HTTP surface over a record store.
func NewServer(store *Store) *Server {
	return &Server{store: store}
}

// Handler returns the route mux for the record API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/downloads", s.handleDownloads)
	return mux
}

func (s *Server) handleDownloads(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleList(w, r)
	case http.MethodPost:
		s.handleAdd(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.List()
	if err != nil {
		log.WithError(err).Error("Failed to list download records")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to fetch downloads"})
		return
	}
	if rows == nil {
		rows = []models.DownloadRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req models.DownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.MediaID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "mediaId is required"})
		return
	}

	rowID, err := s.store.Add(req)
	if err != nil {
		log.WithError(err).Error("Failed to store download record")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save download"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"id":      rowID,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Error("Failed to encode JSON response")
	}
}
