package koffetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

// fakeHTTPClient is an in-memory HTTPClient double keyed by exact target
// URL, used throughout the test suite so no test touches the network.
type fakeHTTPClient struct {
	mu      sync.Mutex
	pages   map[string]fakeResponse
	calls   []string
	failing map[string]error
}

type fakeResponse struct {
	body   string
	status int
}

func newFakeHTTPClient() *fakeHTTPClient {
	return &fakeHTTPClient{
		pages:   make(map[string]fakeResponse),
		failing: make(map[string]error),
	}
}

func (f *fakeHTTPClient) set(url, body string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[url] = fakeResponse{body: body, status: status}
}

func (f *fakeHTTPClient) fail(url string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[url] = err
}

func (f *fakeHTTPClient) Fetch(ctx context.Context, url string, policy CachePolicy) (string, ResponseMeta, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	if err, ok := f.failing[url]; ok {
		f.mu.Unlock()
		return "", ResponseMeta{}, err
	}
	resp, ok := f.pages[url]
	f.mu.Unlock()
	if !ok {
		return "", ResponseMeta{}, networkError(fmt.Errorf("no fake response registered for %s", url))
	}
	status := resp.status
	if status == 0 {
		status = http.StatusOK
	}
	return resp.body, ResponseMeta{StatusCode: status, Header: http.Header{}}, nil
}

func (f *fakeHTTPClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeHTMLParser is an HTMLParser double that records the source it was
// given and returns a nil handle, so Follow tests don't need a real HTML
// tree to assert against.
type fakeHTMLParser struct {
	mu      sync.Mutex
	parsed  []string
	failing map[string]error
}

func newFakeHTMLParser() *fakeHTMLParser {
	return &fakeHTMLParser{failing: make(map[string]error)}
}

func (f *fakeHTMLParser) Parse(src string) (DocumentHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.parsed = append(f.parsed, src)
	if err, ok := f.failing[src]; ok {
		return nil, err
	}
	return nil, nil
}

// pageEnvelope renders a minimal index envelope JSON body from raw entry
// JSON objects, mirroring the wire shape decode.go expects.
func pageEnvelope(total, offset, limit int, entries ...string) string {
	return fmt.Sprintf(
		`{"total":%d,"offset":%d,"limit":%d,"data":[%s]}`,
		total, offset, limit, strings.Join(entries, ","),
	)
}

// openWithClient builds a Pipeline against rawURL whose Context uses client
// as its HTTPClient (and parser, if non-nil, as its HTMLParser), replacing
// the defaults newDefaultContext would otherwise install.
func openWithClient(rawURL string, client HTTPClient, parser HTMLParser) (*Pipeline, error) {
	p, err := Open(rawURL)
	if err != nil {
		return nil, err
	}
	p.ctx.HTTPClient = client
	if parser != nil {
		p.ctx.HTMLParser = parser
	}
	return p, nil
}
