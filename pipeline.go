package koffetch

import (
	"context"
	"net/url"
)

// builder lazily constructs a fresh Stream for one run of a Pipeline. It
// takes the Pipeline it is ultimately being run through (self), so that a
// producer at the bottom of an operator chain always reads the
// configuration (ChunkSize, SheetName, CachePolicy, ...) of the Pipeline
// the caller is actually driving, not whatever Pipeline happened to exist
// when the closure was first built. Building must not perform I/O; only
// the returned Stream's Next method does. Every terminal collector call
// invokes builder anew, so iterating the same Pipeline twice produces two
// independent runs with independent internal state (spec §3 Lifecycle).
type builder func(self *Pipeline) Stream

// Pipeline is the immutable, chainable handle representing a not-yet-run
// stream (spec §3/§4.H). Every operator returns a new Pipeline; the
// receiver is left untouched.
type Pipeline struct {
	baseURL *url.URL
	ctx     *Context
	build   builder
}

// Open validates rawURL and constructs a Pipeline with default Context
// (spec §4.H). It raises InvalidUrl if rawURL is rejected by the validator.
func Open(rawURL string) (*Pipeline, error) {
	if err := validateURL(rawURL, false); err != nil {
		return nil, err
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, invalidURLError(rawURL)
	}
	return OpenURL(u), nil
}

// OpenURL constructs a Pipeline from an already-parsed URL. Unlike Open, it
// does not run the URL validator: u is used as given, whatever its scheme.
func OpenURL(u *url.URL) *Pipeline {
	cp := *u
	ctx := newDefaultContext()
	ctx.allowedHosts.addInitialURL(&cp)

	p := &Pipeline{baseURL: &cp, ctx: ctx}
	p.build = func(self *Pipeline) Stream {
		return newPagedStream(self.baseURL, self.ctx)
	}
	return p
}

// Context returns a copy of the Pipeline's current configuration, mainly
// for introspection and testing.
func (p *Pipeline) Context() Context {
	return *p.ctx
}

// derive returns a new Pipeline sharing baseURL but with its own Context
// clone and the given build function, the single chokepoint every operator
// in operators.go/follow.go goes through to preserve immutability.
func (p *Pipeline) derive(ctx *Context, build builder) *Pipeline {
	return &Pipeline{baseURL: p.baseURL, ctx: ctx, build: build}
}

// run materializes and drives the Pipeline's Stream; it is the single entry
// point every terminal collector uses. p is passed through as the builder
// chain's self, so every layer (however deep) reads p's own configuration.
func (p *Pipeline) run(ctx context.Context) Stream {
	return p.build(p)
}
