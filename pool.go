package koffetch

import (
	"bytes"
	"sync"
)

// bufferPool is a typed sync.Pool wrapper, grounded on the teacher's
// pool.go (a switch-typed Get/Put facade over several sync.Pools of
// request-scoped objects), narrowed from seven pooled server object kinds
// down to the one kind a streaming HTTP client churns through: the
// read buffer used to drain each page/document response body.
type bufferPool struct {
	pool *sync.Pool
}

// newBufferPool returns an empty bufferPool.
func newBufferPool() *bufferPool {
	return &bufferPool{
		pool: &sync.Pool{
			New: func() interface{} {
				return &bytes.Buffer{}
			},
		},
	}
}

// Get returns an empty *bytes.Buffer from p.
func (p *bufferPool) Get() *bytes.Buffer {
	return p.pool.Get().(*bytes.Buffer)
}

// Put resets buf and returns it to p.
func (p *bufferPool) Put(buf *bytes.Buffer) {
	buf.Reset()
	p.pool.Put(buf)
}

// sharedBufferPool is used by defaultHTTPClient.Fetch to avoid allocating a
// fresh buffer per page/document fetch.
var sharedBufferPool = newBufferPool()
