package koffetch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowAttachesParsedDocument(t *testing.T) {
	client := newFakeHTTPClient()
	parser := newFakeHTMLParser()
	p, err := openWithClient("https://example.com/index.json", client, parser)
	require.NoError(t, err)
	p = p.Chunks(10)

	client.set(pageURL(t, "https://example.com/index.json", 0, 10, ""),
		pageEnvelope(1, 0, 10, `{"doc":"https://example.com/page.html"}`), 0)
	client.set("https://example.com/page.html", "<html><body>hi</body></html>", 0)

	entries, err := p.Follow("doc").AllEntries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)

	_, isDoc := entries[0]["doc"].(DocumentValue)
	assert.True(t, isDoc)
	_, hasError := entries[0]["doc_error"]
	assert.False(t, hasError)
}

func TestFollowMissingFieldProducesPerEntryError(t *testing.T) {
	client := newFakeHTTPClient()
	p, err := openWithClient("https://example.com/index.json", client, newFakeHTMLParser())
	require.NoError(t, err)
	p = p.Chunks(10)

	client.set(pageURL(t, "https://example.com/index.json", 0, 10, ""),
		pageEnvelope(1, 0, 10, `{"title":"no url here"}`), 0)

	entries, err := p.Follow("doc").AllEntries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)

	assert.Equal(t, NullValue{}, entries[0]["doc"])
	msg, ok := entries[0]["doc_error"].(StringValue)
	require.True(t, ok)
	assert.Equal(t, "Missing or invalid URL", string(msg))
}

func TestFollowDeniesDisallowedHost(t *testing.T) {
	client := newFakeHTTPClient()
	p, err := openWithClient("https://example.com/index.json", client, newFakeHTMLParser())
	require.NoError(t, err)
	p = p.Chunks(10)

	client.set(pageURL(t, "https://example.com/index.json", 0, 10, ""),
		pageEnvelope(1, 0, 10, `{"doc":"https://evil.example/page.html"}`), 0)

	entries, err := p.Follow("doc").AllEntries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)

	msg, ok := entries[0]["doc_error"].(StringValue)
	require.True(t, ok)
	assert.Contains(t, string(msg), "is not allowed for document following")
	assert.Equal(t, NullValue{}, entries[0]["doc"])
}

func TestFollowAllowExtendsHostList(t *testing.T) {
	client := newFakeHTTPClient()
	parser := newFakeHTMLParser()
	p, err := openWithClient("https://example.com/index.json", client, parser)
	require.NoError(t, err)
	p = p.Chunks(10).Allow("evil.example")

	client.set(pageURL(t, "https://example.com/index.json", 0, 10, ""),
		pageEnvelope(1, 0, 10, `{"doc":"https://evil.example/page.html"}`), 0)
	client.set("https://evil.example/page.html", "<html></html>", 0)

	entries, err := p.Follow("doc").AllEntries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)

	_, isDoc := entries[0]["doc"].(DocumentValue)
	assert.True(t, isDoc)
}

func TestFollowNetworkErrorProducesPerEntryError(t *testing.T) {
	client := newFakeHTTPClient()
	p, err := openWithClient("https://example.com/index.json", client, newFakeHTMLParser())
	require.NoError(t, err)
	p = p.Chunks(10)

	client.set(pageURL(t, "https://example.com/index.json", 0, 10, ""),
		pageEnvelope(1, 0, 10, `{"doc":"https://example.com/page.html"}`), 0)
	client.fail("https://example.com/page.html", networkError(assertableErr{"connection refused"}))

	entries, err := p.Follow("doc").AllEntries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)

	msg, ok := entries[0]["doc_error"].(StringValue)
	require.True(t, ok)
	assert.Contains(t, string(msg), "Network error")
}

func TestFollowWithDestFieldPreservesSourceField(t *testing.T) {
	client := newFakeHTTPClient()
	parser := newFakeHTMLParser()
	p, err := openWithClient("https://example.com/index.json", client, parser)
	require.NoError(t, err)
	p = p.Chunks(10)

	client.set(pageURL(t, "https://example.com/index.json", 0, 10, ""),
		pageEnvelope(1, 0, 10, `{"link":"https://example.com/page.html"}`), 0)
	client.set("https://example.com/page.html", "<html></html>", 0)

	entries, err := p.Follow("link", WithDestField("page")).AllEntries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)

	link, ok := entries[0].String("link")
	require.True(t, ok)
	assert.Equal(t, "https://example.com/page.html", link)

	_, isDoc := entries[0]["page"].(DocumentValue)
	assert.True(t, isDoc)
}

// assertableErr is a minimal error type for constructing fake network
// failures without importing errors in every test.
type assertableErr struct{ msg string }

func (e assertableErr) Error() string { return e.msg }
