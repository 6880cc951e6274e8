package koffetch

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/trieloff/koffetch/cache"
)

// ResponseMeta exposes the parts of an HTTP response the core needs to
// interpret: the status code and header access. It mirrors the shape of
// spec §4.D's response_meta.
type ResponseMeta struct {
	StatusCode int
	Header     http.Header
}

// Successful reports whether the response's status code is in the 2xx
// range.
func (m ResponseMeta) Successful() bool {
	return m.StatusCode >= 200 && m.StatusCode < 300
}

// HTTPClient is the collaborator interface the core consumes for all
// network I/O (spec §6). Implementations must convert transport-level
// failures into a *Error with Kind == KindNetwork, and must not swallow
// non-2xx responses — the status code is returned for the caller to
// interpret.
type HTTPClient interface {
	Fetch(ctx context.Context, url string, policy CachePolicy) (body string, meta ResponseMeta, err error)
}

// defaultHTTPClient is the default HTTPClient, backed by net/http for
// transport and an optional fastcache-backed response cache (see the
// cache package) for CacheOnly/CacheElseLoad/Custom policies.
type defaultHTTPClient struct {
	client *http.Client
	cache  *cache.Store
}

// NewDefaultHTTPClient returns the default HTTPClient implementation. store
// may be nil, in which case every cache policy other than NoCache behaves
// like Default (no caching).
func NewDefaultHTTPClient(client *http.Client, store *cache.Store) HTTPClient {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &defaultHTTPClient{client: client, cache: store}
}

// Fetch implements HTTPClient.
func (c *defaultHTTPClient) Fetch(ctx context.Context, target string, policy CachePolicy) (string, ResponseMeta, error) {
	if c.cache != nil && policy.mode != cacheModeNoCache && policy.mode != cacheModeDefault {
		seconds, hasMaxAge := policy.maxAge()
		if body, meta, ok := c.cache.Get(target, time.Duration(seconds)*time.Second, hasMaxAge); ok {
			return body, ResponseMeta{StatusCode: meta.StatusCode, Header: meta.Header}, nil
		}
		if policy.mode == cacheModeCacheOnly {
			return "", ResponseMeta{}, newError(KindDocumentNotFound, "cache miss under CacheOnly policy", nil)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", ResponseMeta{}, networkError(err)
	}
	if policy.ignoreServerCacheControl() {
		req.Header.Set("Cache-Control", "no-cache")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ResponseMeta{}, ctx.Err()
		}
		return "", ResponseMeta{}, networkError(err)
	}
	defer resp.Body.Close()

	buf := sharedBufferPool.Get()
	defer sharedBufferPool.Put(buf)

	if _, err := io.Copy(buf, resp.Body); err != nil {
		return "", ResponseMeta{}, networkError(err)
	}
	body := buf.String()

	meta := ResponseMeta{StatusCode: resp.StatusCode, Header: resp.Header}

	if c.cache != nil && meta.Successful() && policy.mode != cacheModeNoCache && policy.mode != cacheModeDefault {
		c.cache.Put(target, body, cache.Meta{StatusCode: meta.StatusCode, Header: meta.Header})
	}

	return body, meta, nil
}
