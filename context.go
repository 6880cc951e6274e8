package koffetch

import "github.com/trieloff/koffetch/log"

// Default configuration values (spec §3).
const (
	DefaultChunkSize      = 255
	DefaultMaxConcurrency = 5
)

// cacheMode is the internal discriminant for CachePolicy.
type cacheMode uint8

const (
	cacheModeDefault cacheMode = iota
	cacheModeNoCache
	cacheModeCacheOnly
	cacheModeCacheElseLoad
	cacheModeCustom
)

// CachePolicy is the declarative per-request caching intent communicated to
// the HTTPClient (spec §3, §4.D).
type CachePolicy struct {
	mode                 cacheMode
	customMaxAgeSeconds  int
	customIgnoreServerCC bool
	customMaxAgeSet      bool
}

// CacheDefault lets the HTTP client decide caching behavior on its own.
var CacheDefault = CachePolicy{mode: cacheModeDefault}

// CacheNoCache always goes to the network and never reads or writes the
// cache.
var CacheNoCache = CachePolicy{mode: cacheModeNoCache}

// CacheOnly serves only from the cache and fails with DocumentNotFound on a
// miss.
var CacheOnly = CachePolicy{mode: cacheModeCacheOnly}

// CacheElseLoad serves from the cache on a hit, otherwise fetches and
// populates the cache.
var CacheElseLoad = CachePolicy{mode: cacheModeCacheElseLoad}

// CacheCustom builds a Custom cache policy. maxAgeSeconds <= 0 means no
// explicit max-age override. ignoreServerCacheControl, when true, tells the
// HTTP client to disregard the server's own Cache-Control response headers.
func CacheCustom(maxAgeSeconds int, ignoreServerCacheControl bool) CachePolicy {
	return CachePolicy{
		mode:                 cacheModeCustom,
		customMaxAgeSeconds:  maxAgeSeconds,
		customMaxAgeSet:      maxAgeSeconds > 0,
		customIgnoreServerCC: ignoreServerCacheControl,
	}
}

// maxAge returns the configured max-age in seconds, and whether one was set
// at all (a Default/NoCache/CacheOnly/CacheElseLoad policy never sets one).
func (p CachePolicy) maxAge() (seconds int, ok bool) {
	if p.mode == cacheModeCustom && p.customMaxAgeSet {
		return p.customMaxAgeSeconds, true
	}
	return 0, false
}

func (p CachePolicy) ignoreServerCacheControl() bool {
	return p.mode == cacheModeCustom && p.customIgnoreServerCC
}

// Context is the per-pipeline configuration bundle described in spec §3.
// Every operator on Pipeline returns a Pipeline wrapping a new Context;
// Context itself is never mutated in place once handed to a Pipeline the
// caller can still observe.
type Context struct {
	ChunkSize      int
	CachePolicy    CachePolicy
	SheetName      string
	MaxConcurrency int
	RateLimit      float64 // requests/sec for Follow; 0 = unlimited

	HTTPClient HTTPClient
	HTMLParser HTMLParser
	Logger     *log.Logger

	allowedHosts *hostSet
}

// newDefaultContext returns a Context populated with spec-mandated defaults.
func newDefaultContext() *Context {
	return &Context{
		ChunkSize:      DefaultChunkSize,
		CachePolicy:    CacheDefault,
		MaxConcurrency: DefaultMaxConcurrency,
		HTTPClient:     NewDefaultHTTPClient(nil, nil),
		HTMLParser:     NewDefaultHTMLParser(),
		Logger:         log.Nop(),
		allowedHosts:   newHostSet(),
	}
}

// clone returns a copy of c suitable for handing to a child Pipeline: the
// allowedHosts set is deep-copied (copy-on-write per spec §3 Ownership);
// collaborators (HTTPClient, HTMLParser, Logger) are shared by reference.
func (c *Context) clone() *Context {
	cp := *c
	cp.allowedHosts = c.allowedHosts.clone()
	return &cp
}
