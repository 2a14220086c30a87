package fetch

import (
	"context"
	"sync"
	"time"
)

// DefaultCacheTTL is how long fetched postings are reused.
const DefaultCacheTTL = time.Hour

// TextFetcher returns the text behind a URL.
type TextFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

type cacheEntry struct {
	text    string
	expires time.Time
}

// CachedFetcher memoizes successful fetches for a TTL. Failures are not cached.
type CachedFetcher struct {
	next    TextFetcher
	ttl     time.Duration
	now     func() time.Time
	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewCachedFetcher wraps next with an in-process cache.
func NewCachedFetcher(next TextFetcher, ttl time.Duration) *CachedFetcher {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedFetcher{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// Fetch returns a cached text if fresh, otherwise fetches and stores it.
func (f *CachedFetcher) Fetch(ctx context.Context, urlStr string) (string, error) {
	now := f.now()

	f.mu.Lock()
	if e, ok := f.entries[urlStr]; ok && now.Before(e.expires) {
		f.mu.Unlock()
		return e.text, nil
	}
	f.mu.Unlock()

	text, err := f.next.Fetch(ctx, urlStr)
	if err != nil {
		return "", err
	}

	f.mu.Lock()
	f.evictExpired(now)
	f.entries[urlStr] = cacheEntry{text: text, expires: now.Add(f.ttl)}
	f.mu.Unlock()
	return text, nil
}

// Invalidate drops urlStr from the cache.
func (f *CachedFetcher) Invalidate(urlStr string) {
	f.mu.Lock()
	delete(f.entries, urlStr)
	f.mu.Unlock()
}

func (f *CachedFetcher) evictExpired(now time.Time) {
	for k, e := range f.entries {
		if !now.Before(e.expires) {
			delete(f.entries, k)
		}
	}
}
