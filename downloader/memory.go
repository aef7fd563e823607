package downloader

import (
	"context"
	"sync"
	"time"
)

// Keeps fetched bodies in memory per URL, each until its TTL runs
// out. Failed fetches are not remembered.
type MemoryDownloader struct {
	// Performs the actual request. Defaults to HTTPGet.
	Fetch func(ctx context.Context, url string, headers map[string]string, options GetOptions) ([]byte, error)

	TimeNow func() time.Time

	mu      sync.Mutex
	fetched map[string]cachedBody
}

type cachedBody struct {
	body    []byte
	expires time.Time
}

func NewMemoryDownloader() *MemoryDownloader {
	return &MemoryDownloader{
		Fetch:   HTTPGet,
		TimeNow: time.Now,
		fetched: map[string]cachedBody{},
	}
}

func (d *MemoryDownloader) Get(
	ctx context.Context,
	url string,
	headers map[string]string,
	options GetOptions,
) ([]byte, error) {
	if options.Cache {
		if body, ok := d.cached(url); ok {
			return body, nil
		}
	}

	// Fetched without the lock held
	body, err := d.Fetch(ctx, url, headers, options)
	if err != nil {
		return nil, err
	}

	if options.Cache {
		d.mu.Lock()
		d.fetched[url] = cachedBody{body: body, expires: d.TimeNow().Add(options.CacheTTL)}
		d.mu.Unlock()
	}

	return body, nil
}

func (d *MemoryDownloader) cached(url string) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry, found := d.fetched[url]
	if !found || !entry.expires.After(d.TimeNow()) {
		return nil, false
	}
	return entry.body, true
}

// Forgets everything fetched so far.
func (d *MemoryDownloader) Purge() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.fetched = map[string]cachedBody{}
}
