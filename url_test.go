package koffetch

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateURLAcceptsHTTPAndHTTPS(t *testing.T) {
	assert.NoError(t, validateURL("http://example.com/index.json", false))
	assert.NoError(t, validateURL("https://example.com/index.json", false))
}

func TestValidateURLRejectsEmptyAndWhitespace(t *testing.T) {
	assert.Error(t, validateURL("", false))
	assert.Error(t, validateURL("   ", false))
}

func TestValidateURLRejectsNonHTTPScheme(t *testing.T) {
	assert.Error(t, validateURL("ftp://example.com/file", false))
	assert.Error(t, validateURL("javascript:alert(1)", false))
}

func TestValidateURLRejectsAbsolutePathUnlessFromFollow(t *testing.T) {
	assert.Error(t, validateURL("/a/b", false))
	assert.NoError(t, validateURL("/a/b", true))
}

func TestValidateURLRejectsMalformed(t *testing.T) {
	assert.Error(t, validateURL("://missing-scheme", false))
	assert.Error(t, validateURL("http://", false))
}

func TestResolveFollowURLAbsolute(t *testing.T) {
	base, err := url.Parse("https://example.com/index.json")
	require.NoError(t, err)

	resolved, ok := resolveFollowURL(base, "https://other.example/doc.html")
	require.True(t, ok)
	assert.Equal(t, "https://other.example/doc.html", resolved.String())
}

func TestResolveFollowURLAbsolutePath(t *testing.T) {
	base, err := url.Parse("https://example.com/a/index.json")
	require.NoError(t, err)

	resolved, ok := resolveFollowURL(base, "/b/doc.html")
	require.True(t, ok)
	assert.Equal(t, "https://example.com/b/doc.html", resolved.String())
}

func TestResolveFollowURLRelative(t *testing.T) {
	base, err := url.Parse("https://example.com/a/index.json")
	require.NoError(t, err)

	resolved, ok := resolveFollowURL(base, "doc.html")
	require.True(t, ok)
	assert.Equal(t, "https://example.com/a/doc.html", resolved.String())
}

func TestResolveFollowURLRejectsInvalid(t *testing.T) {
	base, err := url.Parse("https://example.com/a/index.json")
	require.NoError(t, err)

	_, ok := resolveFollowURL(base, "javascript:alert(1)")
	assert.False(t, ok)

	_, ok = resolveFollowURL(base, "")
	assert.False(t, ok)
}

func TestAppendPageQueryPreservesExistingQuery(t *testing.T) {
	base, err := url.Parse("https://example.com/index.json?lang=en")
	require.NoError(t, err)

	target := appendPageQuery(base, 255, 255, "")
	parsed, err := url.Parse(target)
	require.NoError(t, err)

	q := parsed.Query()
	assert.Equal(t, "en", q.Get("lang"))
	assert.Equal(t, "255", q.Get("offset"))
	assert.Equal(t, "255", q.Get("limit"))
	assert.Empty(t, q.Get("sheet"))
}

func TestAppendPageQueryIncludesSheet(t *testing.T) {
	base, err := url.Parse("https://example.com/index.json")
	require.NoError(t, err)

	target := appendPageQuery(base, 0, 100, "products")
	parsed, err := url.Parse(target)
	require.NoError(t, err)
	assert.Equal(t, "products", parsed.Query().Get("sheet"))
}
