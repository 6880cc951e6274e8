package koffetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferPoolReusesResetBuffers(t *testing.T) {
	p := newBufferPool()

	buf := p.Get()
	buf.WriteString("leftover")
	p.Put(buf)

	reused := p.Get()
	assert.Equal(t, 0, reused.Len())
}
