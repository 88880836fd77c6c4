package source

import (
	"context"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/hippolytevalicon/music-library-hexagonal-architecture/internal/models"
)

// Composite fans requests out to several catalogs and concatenates the
// results in member order. A failing member contributes an empty slice; the
// composite itself only errors when every member failed, so one broken
// catalog never hides the others.
type Composite struct {
	Sources []ContentSource
}

// NewComposite builds a composite over the given members. Order matters:
// results are concatenated and details lookups probe members in this order.
func NewComposite(sources ...ContentSource) *Composite {
	return &Composite{Sources: sources}
}

// Name implements ContentSource.
func (c *Composite) Name() string { return "composite" }

// FetchCatalog queries every member concurrently.
func (c *Composite) FetchCatalog(ctx context.Context) ([]models.MediaDescriptor, error) {
	return c.fanOut(ctx, func(ctx context.Context, s ContentSource) ([]models.MediaDescriptor, error) {
		return s.FetchCatalog(ctx)
	})
}

// SearchCatalog queries every member concurrently.
func (c *Composite) SearchCatalog(ctx context.Context, query string) ([]models.MediaDescriptor, error) {
	return c.fanOut(ctx, func(ctx context.Context, s ContentSource) ([]models.MediaDescriptor, error) {
		return s.SearchCatalog(ctx, query)
	})
}

// FetchDetails probes members sequentially and returns the first hit. A
// member error is treated the same as a miss.
func (c *Composite) FetchDetails(ctx context.Context, id string) (*models.MediaDescriptor, error) {
	for _, s := range c.Sources {
		m, err := s.FetchDetails(ctx, id)
		if err != nil {
			log.WithError(err).WithField("source", s.Name()).Warn("Details lookup failed, trying next source")
			continue
		}
		if m != nil {
			return m, nil
		}
	}
	return nil, nil
}

func (c *Composite) fanOut(ctx context.Context, fetch func(context.Context, ContentSource) ([]models.MediaDescriptor, error)) ([]models.MediaDescriptor, error) {
	results := make([][]models.MediaDescriptor, len(c.Sources))
	errs := make([]error, len(c.Sources))

	var wg sync.WaitGroup
	for i, s := range c.Sources {
		wg.Add(1)
		go func(i int, s ContentSource) {
			defer wg.Done()
			items, err := fetch(ctx, s)
			if err != nil {
				log.WithError(err).WithField("source", s.Name()).Warn("Catalog fetch failed")
				errs[i] = err
				return
			}
			results[i] = items
		}(i, s)
	}
	wg.Wait()

	failed := 0
	var merged []models.MediaDescriptor
	for i := range c.Sources {
		if errs[i] != nil {
			failed++
			continue
		}
		merged = append(merged, results[i]...)
	}

	if len(c.Sources) > 0 && failed == len(c.Sources) {
		return nil, errors.Join(errs...)
	}
	return merged, nil
}
