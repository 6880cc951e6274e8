package cache

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutThenGetRoundTrips(t *testing.T) {
	s := New(1 << 20)
	meta := Meta{StatusCode: 200, Header: http.Header{"Content-Type": []string{"application/json"}}}
	s.Put("https://example.com/a.json", `{"hello":"world"}`, meta)

	body, gotMeta, ok := s.Get("https://example.com/a.json", 0, false)
	require.True(t, ok)
	assert.Equal(t, `{"hello":"world"}`, body)
	assert.Equal(t, 200, gotMeta.StatusCode)
}

func TestGetMissReturnsFalse(t *testing.T) {
	s := New(1 << 20)
	_, _, ok := s.Get("https://example.com/missing.json", 0, false)
	assert.False(t, ok)
}

func TestGetRespectsMaxAge(t *testing.T) {
	s := New(1 << 20)
	s.Put("https://example.com/a.json", "stale", Meta{StatusCode: 200})

	_, _, ok := s.Get("https://example.com/a.json", time.Hour, true)
	assert.True(t, ok)

	_, _, ok = s.Get("https://example.com/a.json", 0, true)
	assert.False(t, ok)
}

func TestDelRemovesEntry(t *testing.T) {
	s := New(1 << 20)
	s.Put("https://example.com/a.json", "body", Meta{StatusCode: 200})
	s.Del("https://example.com/a.json")

	_, _, ok := s.Get("https://example.com/a.json", 0, false)
	assert.False(t, ok)
}

func TestDistinctURLsDoNotCollide(t *testing.T) {
	s := New(1 << 20)
	s.Put("https://example.com/a.json", "a-body", Meta{StatusCode: 200})
	s.Put("https://example.com/b.json", "b-body", Meta{StatusCode: 201})

	aBody, aMeta, ok := s.Get("https://example.com/a.json", 0, false)
	require.True(t, ok)
	assert.Equal(t, "a-body", aBody)
	assert.Equal(t, 200, aMeta.StatusCode)

	bBody, bMeta, ok := s.Get("https://example.com/b.json", 0, false)
	require.True(t, ok)
	assert.Equal(t, "b-body", bBody)
	assert.Equal(t, 201, bMeta.StatusCode)
}
