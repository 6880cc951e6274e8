package koffetch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrencyRejectsNonPositive(t *testing.T) {
	client := newFakeHTTPClient()
	p, err := openWithClient("https://example.com/index.json", client, nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultMaxConcurrency, p.Context().MaxConcurrency)

	child := p.Concurrency(8)
	assert.Equal(t, 8, child.Context().MaxConcurrency)
	assert.Equal(t, DefaultMaxConcurrency, p.Context().MaxConcurrency)

	_, err = p.Concurrency(0).AllEntries(context.Background())
	require.Error(t, err)
	assert.True(t, isErrorKind(err, KindOperationFailed))
}

func TestRateLimitIsStoredOnContext(t *testing.T) {
	client := newFakeHTTPClient()
	p, err := openWithClient("https://example.com/index.json", client, nil)
	require.NoError(t, err)

	child := p.RateLimit(2.5)
	assert.Equal(t, 2.5, child.Context().RateLimit)
	assert.Equal(t, float64(0), p.Context().RateLimit)
}

func TestNoCacheSetsCacheNoCachePolicy(t *testing.T) {
	client := newFakeHTTPClient()
	p, err := openWithClient("https://example.com/index.json", client, nil)
	require.NoError(t, err)

	child := p.NoCache()
	assert.Equal(t, CacheNoCache, child.Context().CachePolicy)
}

func TestAllowAddsHostWithoutAffectingParent(t *testing.T) {
	client := newFakeHTTPClient()
	p, err := openWithClient("https://example.com/index.json", client, nil)
	require.NoError(t, err)

	child := p.Allow("other.example")
	assert.True(t, child.Context().allowedHosts.tokens != nil)
	_, parentHas := p.Context().allowedHosts.tokens["other.example"]
	assert.False(t, parentHas)
	_, childHas := child.Context().allowedHosts.tokens["other.example"]
	assert.True(t, childHas)
}
