package fetcher

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"jdscraper/pkg/extract"
	"jdscraper/pkg/listing"
	"jdscraper/pkg/logger"
	"jdscraper/pkg/ratelimit"
	"jdscraper/pkg/storage"
)

// Item is one media download request: a source URL plus the sanitized
// key its file name is derived from.
type Item struct {
	URL    string
	Key    string
	Record listing.Record
}

// Result is the outcome of one download attempt. Path is the reserved
// on-disk location, valid only when Err is nil.
type Result struct {
	Item     Item
	Path     string
	Size     int64
	Err      error
	Duration time.Duration
}

// Downloader fetches raw media bytes. *Client is the production
// implementation; tests substitute scripted ones.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Fetcher downloads media in fixed-size batches.
//
// Each batch is dispatched concurrently and awaited in full before the
// next batch starts, bounding open connections without a dynamic
// scheduler. A failed item is logged and skipped; it never aborts its
// siblings and is never retried. File names are reserved through the
// storage manager before any network work begins, so concurrent
// downloads with colliding keys cannot clobber each other.
type Fetcher struct {
	client    Downloader
	store     *storage.Manager
	limiter   ratelimit.Limiter
	batchSize int
	logger    logger.Logger
}

// New creates a fetcher. limiter may be nil to disable request pacing.
func New(client Downloader, store *storage.Manager, limiter ratelimit.Limiter, batchSize int, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.GetLogger()
	}
	if batchSize <= 0 {
		batchSize = 5
	}
	return &Fetcher{
		client:    client,
		store:     store,
		limiter:   limiter,
		batchSize: batchSize,
		logger:    log,
	}
}

// BatchSize returns the configured batch width.
func (f *Fetcher) BatchSize() int {
	return f.batchSize
}

// FetchAll downloads every item, preserving input order in the result
// slice. Items are processed in batches of the configured size, each
// batch fully settled before the next begins.
func (f *Fetcher) FetchAll(ctx context.Context, items []Item) []Result {
	results := make([]Result, len(items))

	for start := 0; start < len(items); start += f.batchSize {
		end := start + f.batchSize
		if end > len(items) {
			end = len(items)
		}

		f.logger.DebugWithFields("Dispatching media batch", map[string]interface{}{
			"batch_start": start,
			"batch_size":  end - start,
			"total":       len(items),
		})

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = f.fetchOne(ctx, items[i])
			}(i)
		}
		wg.Wait()
	}

	return results
}

// fetchOne reserves a name, downloads, and saves a single item.
func (f *Fetcher) fetchOne(ctx context.Context, item Item) Result {
	start := time.Now()
	result := Result{Item: item}

	path, err := f.store.Reserve(item.Key, ExtensionFromURL(item.URL))
	if err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		logger.LogMediaFetch(item.Key, item.URL, 0, false, err)
		return result
	}
	result.Path = path

	if f.limiter != nil && !f.limiter.Allow() {
		f.limiter.Wait()
	}

	data, err := f.client.Download(ctx, item.URL)
	if err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		logger.LogMediaFetch(item.Key, item.URL, 0, false, err)
		if derr := f.store.Discard(path); derr != nil {
			f.logger.WithError(derr).Warn("Failed to discard placeholder after fetch failure")
		}
		return result
	}

	if err := f.store.Save(path, bytes.NewReader(data)); err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		logger.LogMediaFetch(item.Key, item.URL, 0, false, err)
		if derr := f.store.Discard(path); derr != nil {
			f.logger.WithError(derr).Warn("Failed to discard placeholder after save failure")
		}
		return result
	}

	result.Size = int64(len(data))
	result.Duration = time.Since(start)
	logger.LogMediaFetch(item.Key, item.URL, result.Size, true, nil)
	return result
}

// ItemsFromRecords derives a download item per record that carries an
// image reference. The key combines shop and listing name, the same
// derivation the on-disk media directory is organized by.
func ItemsFromRecords(records []listing.Record) []Item {
	items := make([]Item, 0, len(records))
	for _, rec := range records {
		if rec.ImageURL == "" {
			continue
		}
		items = append(items, Item{
			URL:    rec.ImageURL,
			Key:    MediaKey(rec.Shop, rec.Name),
			Record: rec,
		})
	}
	return items
}

// MediaKey derives the file name key for a listing's media.
func MediaKey(shop, name string) string {
	key := extract.SanitizeName(strings.TrimSpace(shop + " " + name))
	if key == "" {
		key = "listing"
	}
	return key
}

// ExtensionFromURL takes the extension from the URL's trailing path
// segment, dropping any query string. Unrecognizable URLs fall back to
// jpg, the storefront's dominant format.
func ExtensionFromURL(rawURL string) string {
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		path = u.Path
	}
	if i := strings.LastIndex(path, "/"); i >= 0 {
		path = path[i+1:]
	}
	if i := strings.LastIndex(path, "."); i >= 0 && i < len(path)-1 {
		return path[i+1:]
	}
	return "jpg"
}
