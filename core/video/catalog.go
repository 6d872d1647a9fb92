package video

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Video is the catalog metadata of one hosted asset.
type Video struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Length       int       `json:"length"`
	DateUploaded time.Time `json:"dateUploaded"`
	Thumbnail    string    `json:"thumbnail,omitempty"`
	Status       int       `json:"status"`
}

// Listing is one complete fetch of the upstream catalog.
type Listing struct {
	Videos      []Video
	TotalCount  int
	CurrentPage int
}

// Fetcher loads the full catalog from the video host.
type Fetcher interface {
	FetchVideos(ctx context.Context) (Listing, error)
}

// UpstreamError reports a failed call to a third party API. Only the
// endpoint and status are kept; upstream bodies are never surfaced.
type UpstreamError struct {
	Endpoint string
	Status   int
	Err      error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream %s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("upstream %s: status %d", e.Endpoint, e.Status)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// CatalogResult is what List returns. Timestamp is when the returned
// listing was fetched from upstream.
type CatalogResult struct {
	Videos      []Video
	Cached      bool
	Timestamp   time.Time
	TotalCount  int
	CurrentPage int
}

type entry struct {
	listing Listing
	at      time.Time
}

// Cache holds a single catalog entry. Concurrent misses share one upstream
// fetch and the entry is replaced only after a successful one.
type Cache struct {
	log     logrus.FieldLogger
	fetcher Fetcher
	ttl     time.Duration
	now     func() time.Time

	mu    sync.RWMutex
	entry *entry
	group singleflight.Group
}

func NewCache(log logrus.FieldLogger, fetcher Fetcher, ttl time.Duration, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		log:     log,
		fetcher: fetcher,
		ttl:     ttl,
		now:     now,
	}
}

func (c *Cache) current() *entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entry
}

func (c *Cache) fresh(e *entry) bool {
	return e != nil && c.now().Sub(e.at) < c.ttl
}

// List returns the cached catalog while it is younger than the TTL and
// refreshes it otherwise. A failed refresh leaves the previous entry in
// place and returns an *UpstreamError.
func (c *Cache) List(ctx context.Context) (CatalogResult, error) {
	if e := c.current(); c.fresh(e) {
		return CatalogResult{
			Videos:      e.listing.Videos,
			Cached:      true,
			Timestamp:   e.at,
			TotalCount:  e.listing.TotalCount,
			CurrentPage: e.listing.CurrentPage,
		}, nil
	}

	v, err, shared := c.group.Do("catalog", func() (interface{}, error) {
		if e := c.current(); c.fresh(e) {
			return e, nil
		}

		l, err := c.fetcher.FetchVideos(ctx)
		if err != nil {
			return nil, err
		}

		e := &entry{listing: l, at: c.now()}
		c.mu.Lock()
		c.entry = e
		c.mu.Unlock()

		c.log.WithFields(logrus.Fields{
			"videos": len(l.Videos),
			"total":  l.TotalCount,
		}).Info("video catalog refreshed")
		return e, nil
	})
	if err != nil {
		fields := logrus.Fields{"shared": shared, "error": err}
		var ue *UpstreamError
		if errors.As(err, &ue) {
			fields["endpoint"] = ue.Endpoint
			fields["status"] = ue.Status
		}
		c.log.WithFields(fields).Warn("video catalog refresh failed")
		return CatalogResult{}, err
	}

	e := v.(*entry)
	return CatalogResult{
		Videos:      e.listing.Videos,
		Cached:      false,
		Timestamp:   e.at,
		TotalCount:  e.listing.TotalCount,
		CurrentPage: e.listing.CurrentPage,
	}, nil
}
