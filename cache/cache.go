// Package cache is koffetch's response cache, grounded on
// github.com/aofei/air's coffer.go: a checksum-keyed, in-memory store backed
// by github.com/VictoriaMetrics/fastcache, generalized from caching minified
// asset bytes on disk to caching fetched HTTP response bodies by request
// URL.
package cache

import (
	"crypto/sha256"
	"net/http"
	"sync"
	"time"

	"github.com/VictoriaMetrics/fastcache"
)

// Meta is the subset of response metadata the cache stores alongside a
// body.
type Meta struct {
	StatusCode int
	Header     http.Header
}

// entryMeta is the bookkeeping kept outside fastcache's byte store (fastcache
// only stores []byte blobs, the same constraint coffer.asset works around by
// keeping a parallel sync.Map of *asset alongside the checksum-keyed byte
// cache).
type entryMeta struct {
	meta     Meta
	storedAt time.Time
}

// Store is a checksum-keyed, in-memory response cache.
type Store struct {
	bytes *fastcache.Cache

	mu    sync.Mutex
	metas map[string]entryMeta
}

// New returns a Store with the given maximum memory footprint in bytes,
// mirroring coffer's CofferMaxMemoryBytes-sized fastcache.New call.
func New(maxBytes int) *Store {
	return &Store{
		bytes: fastcache.New(maxBytes),
		metas: make(map[string]entryMeta),
	}
}

func checksum(url string) string {
	sum := sha256.Sum256([]byte(url))
	return string(sum[:])
}

// Get returns the cached body and metadata for url. When hasMaxAge is true
// (a Custom cache policy's max_age_seconds), an entry older than maxAge is
// treated as a miss.
func (s *Store) Get(url string, maxAge time.Duration, hasMaxAge bool) (body string, meta Meta, found bool) {
	key := checksum(url)

	s.mu.Lock()
	em, ok := s.metas[key]
	s.mu.Unlock()
	if !ok {
		return "", Meta{}, false
	}

	if hasMaxAge && time.Since(em.storedAt) > maxAge {
		return "", Meta{}, false
	}

	b := s.bytes.Get(nil, []byte(key))
	if b == nil {
		return "", Meta{}, false
	}

	return string(b), em.meta, true
}

// Put stores body and meta for url.
func (s *Store) Put(url, body string, meta Meta) {
	key := checksum(url)
	s.bytes.Set([]byte(key), []byte(body))

	s.mu.Lock()
	s.metas[key] = entryMeta{meta: meta, storedAt: time.Now()}
	s.mu.Unlock()
}

// Del removes any cached entry for url.
func (s *Store) Del(url string) {
	key := checksum(url)
	s.bytes.Del([]byte(key))

	s.mu.Lock()
	delete(s.metas, key)
	s.mu.Unlock()
}
