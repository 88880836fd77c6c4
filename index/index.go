package index

import (
	"log"
	"os"
	"time"

	"github.com/blevesearch/bleve/v2"

	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/helpers"
	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/models"
)

const defaultIndexPath = "media-library.bleve"

// Item is a download record as indexed for full-text search. All fields are
// indexed and searchable by their lowercase JSON tag names (e.g. query
// '+quality:high' or '+kind:music').
type Item struct {
	ID           string    `json:"id"`      // media id of the saved record
	Title        string    `json:"title"`   // display title at save time
	Slug         string    `json:"slug"`    // filesystem-friendly form of the title
	Kind         string    `json:"kind"`    // movie, show or music
	Quality      string    `json:"quality"` // tier recorded at save time
	Format       string    `json:"format"`
	DurationSec  float64   `json:"durationSec,omitempty"`
	FileSizeKB   float64   `json:"fileSizeKB,omitempty"`
	DownloadDate time.Time `json:"downloadDate,omitempty"`
}

// ItemFromRow converts a persisted download row into its index document.
func ItemFromRow(row models.DownloadRow) Item {
	return Item{
		ID:           row.MediaID,
		Title:        row.Title,
		Slug:         helpers.ConvertToSlug(row.Title),
		Kind:         string(row.Kind),
		Quality:      string(row.Quality),
		Format:       row.Format,
		DurationSec:  float64(row.DurationSeconds),
		FileSizeKB:   float64(row.FileSizeBytes) / 1024,
		DownloadDate: row.DownloadDate,
	}
}

// OpenOrCreateIndex opens an existing Bleve index or creates a new one if it doesn't exist.
func OpenOrCreateIndex(indexPath string) (bleve.Index, error) {
	if indexPath == "" {
		indexPath = defaultIndexPath
	}

	index, err := bleve.Open(indexPath)
	if err == bleve.ErrorIndexPathDoesNotExist {
		log.Printf("Creating new index at: %s", indexPath)
		mapping := bleve.NewIndexMapping()
		index, err = bleve.New(indexPath, mapping)
		if err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	} else {
		log.Printf("Opened existing index at: %s", indexPath)
	}
	return index, nil
}

// IndexItem adds or updates an item in the Bleve index.
func IndexItem(index bleve.Index, item Item) error {
	return index.Index(item.ID, item)
}

// SearchIndex performs a search query against the index.
func SearchIndex(index bleve.Index, query string) (*bleve.SearchResult, error) {
	searchQuery := bleve.NewQueryStringQuery(query)
	searchRequest := bleve.NewSearchRequest(searchQuery)
	searchRequest.Fields = []string{"*"} // Request all stored fields
	searchResults, err := index.Search(searchRequest)
	if err != nil {
		return nil, err
	}
	return searchResults, nil
}

// DeleteIndex removes the index directory. Use with caution!
func DeleteIndex(indexPath string) error {
	if indexPath == "" {
		indexPath = defaultIndexPath
	}
	log.Printf("Attempting to delete index at: %s", indexPath)
	return os.RemoveAll(indexPath)
}
