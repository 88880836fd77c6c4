package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/models"
)

// Errors shared by the catalog adapters.
var (
	ErrRequestFailed = errors.New("catalog request failed")
	ErrBadStatus     = errors.New("catalog returned unexpected status")
)

// ContentSource is the port every online catalog implements. Adapters report
// failures as errors; the policy of treating a broken catalog as an empty one
// belongs to the composite, not to the leaves. FetchDetails returns (nil, nil)
// when the catalog answered cleanly but has no such item.
type ContentSource interface {
	// Name identifies the catalog in logs and error messages.
	Name() string
	FetchCatalog(ctx context.Context) ([]models.MediaDescriptor, error)
	SearchCatalog(ctx context.Context, query string) ([]models.MediaDescriptor, error)
	FetchDetails(ctx context.Context, id string) (*models.MediaDescriptor, error)
}

// getJSON performs a GET request and decodes the JSON response into out.
func getJSON(ctx context.Context, client *http.Client, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("error creating request for %s: %w", url, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: %d from %s", ErrBadStatus, resp.StatusCode, url)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding response from %s: %w", url, err)
	}
	return nil
}
