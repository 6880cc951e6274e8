package koffetch

import "context"

// Map applies f to every element of the Pipeline. f may return an error,
// which is stream-fatal and terminates iteration (spec §4.I). The result
// element type is opaque (any); use a type assertion, or keep mapping back
// to Entry if downstream operators need it.
func (p *Pipeline) Map(f func(any) (any, error)) *Pipeline {
	upstream := p.build
	build := func(self *Pipeline) Stream {
		s := upstream(self)
		return streamFunc(func(ctx context.Context) (any, bool, error) {
			v, ok, err := s.Next(ctx)
			if err != nil || !ok {
				return nil, ok, err
			}
			out, ferr := f(v)
			if ferr != nil {
				return nil, false, operationFailedError("map callback failed", ferr)
			}
			return out, true, nil
		})
	}
	return p.derive(p.ctx.clone(), build)
}

// MapEntry is a typed convenience wrapper over Map for the common case of
// transforming an Entry into another Entry.
func (p *Pipeline) MapEntry(f func(Entry) (Entry, error)) *Pipeline {
	return p.Map(func(v any) (any, error) {
		e, ok := v.(Entry)
		if !ok {
			return nil, operationFailedError("MapEntry requires Entry elements", nil)
		}
		return f(e)
	})
}

// Filter retains elements for which p returns true, preserving relative
// order of retained elements (spec §4.I).
func (p *Pipeline) Filter(keep func(any) (bool, error)) *Pipeline {
	upstream := p.build
	build := func(self *Pipeline) Stream {
		s := upstream(self)
		return streamFunc(func(ctx context.Context) (any, bool, error) {
			for {
				v, ok, err := s.Next(ctx)
				if err != nil || !ok {
					return nil, ok, err
				}
				matched, ferr := keep(v)
				if ferr != nil {
					return nil, false, operationFailedError("filter callback failed", ferr)
				}
				if matched {
					return v, true, nil
				}
			}
		})
	}
	return p.derive(p.ctx.clone(), build)
}

// FilterEntry is a typed convenience wrapper over Filter for Entry
// predicates.
func (p *Pipeline) FilterEntry(keep func(Entry) (bool, error)) *Pipeline {
	return p.Filter(func(v any) (bool, error) {
		e, ok := v.(Entry)
		if !ok {
			return false, operationFailedError("FilterEntry requires Entry elements", nil)
		}
		return keep(e)
	})
}

// Limit emits at most n elements. n must be >= 1 (spec §4.I); n == 0
// surfaces as an OperationFailed error from the returned Pipeline's run.
func (p *Pipeline) Limit(n int) *Pipeline {
	if n < 1 {
		return p.deriveError(operationFailedError("limit(n) requires n >= 1", nil))
	}
	upstream := p.build
	build := func(self *Pipeline) Stream {
		s := upstream(self)
		count := 0
		return streamFunc(func(ctx context.Context) (any, bool, error) {
			if count >= n {
				return nil, false, nil
			}
			v, ok, err := s.Next(ctx)
			if err != nil || !ok {
				return nil, ok, err
			}
			count++
			return v, true, nil
		})
	}
	return p.derive(p.ctx.clone(), build)
}

// Skip drops the first n elements. n must be >= 0 (spec §4.I).
func (p *Pipeline) Skip(n int) *Pipeline {
	if n < 0 {
		return p.deriveError(operationFailedError("skip(n) requires n >= 0", nil))
	}
	upstream := p.build
	build := func(self *Pipeline) Stream {
		s := upstream(self)
		skipped := 0
		return streamFunc(func(ctx context.Context) (any, bool, error) {
			for skipped < n {
				_, ok, err := s.Next(ctx)
				if err != nil || !ok {
					return nil, ok, err
				}
				skipped++
			}
			return s.Next(ctx)
		})
	}
	return p.derive(p.ctx.clone(), build)
}

// Slice emits elements [start, end), equivalent to Skip(start).Limit(end -
// start). 0 <= start < end is required (spec §4.I).
func (p *Pipeline) Slice(start, end int) *Pipeline {
	if start < 0 || end <= start {
		return p.deriveError(operationFailedError("slice(start, end) requires 0 <= start < end", nil))
	}
	return p.Skip(start).Limit(end - start)
}

// Chunks sets the Context's page size for the paged producer. Like every
// other configuration operator, it takes effect at run time (spec §4.I):
// the root producer always reads the ChunkSize of the Pipeline a terminal
// collector was actually called on, however many Map/Filter/Follow layers
// sit between it and the producer.
func (p *Pipeline) Chunks(size int) *Pipeline {
	if size < 1 {
		return p.deriveError(operationFailedError("chunks(size) requires size >= 1", nil))
	}
	ctx := p.ctx.clone()
	ctx.ChunkSize = size
	return p.derive(ctx, p.build)
}

// Sheet sets the Context's sheet_name, appended as a sheet query parameter
// by the paged producer.
func (p *Pipeline) Sheet(name string) *Pipeline {
	ctx := p.ctx.clone()
	ctx.SheetName = name
	return p.derive(ctx, p.build)
}

// Cache replaces the Context's cache policy.
func (p *Pipeline) Cache(policy CachePolicy) *Pipeline {
	ctx := p.ctx.clone()
	ctx.CachePolicy = policy
	return p.derive(ctx, p.build)
}

// NoCache is a shortcut for Cache(CacheNoCache).
func (p *Pipeline) NoCache() *Pipeline {
	return p.Cache(CacheNoCache)
}

// Concurrency sets the Context's max_concurrency, the upper bound on
// in-flight Follow fetches (spec §3). Not one of spec §4.I's named
// operators — the spec lists max_concurrency as Context configuration
// without prescribing its setter — but Context needs some way to be
// configured, so Concurrency follows the same builder-style shape as
// Chunks/Sheet/Cache/Allow (see DESIGN.md, "Pipeline core").
func (p *Pipeline) Concurrency(n int) *Pipeline {
	if n < 1 {
		return p.deriveError(operationFailedError("concurrency(n) requires n >= 1", nil))
	}
	ctx := p.ctx.clone()
	ctx.MaxConcurrency = n
	return p.derive(ctx, p.build)
}

// RateLimit sets a requests-per-second cap on Follow's fetch dispatch loop.
// ratePerSecond <= 0 means unlimited (the default).
func (p *Pipeline) RateLimit(ratePerSecond float64) *Pipeline {
	ctx := p.ctx.clone()
	ctx.RateLimit = ratePerSecond
	return p.derive(ctx, p.build)
}

// Allow extends the allow-list with one or more host tokens ("hostname",
// "hostname:port", or the literal "*").
func (p *Pipeline) Allow(hosts ...string) *Pipeline {
	ctx := p.ctx.clone()
	for _, h := range hosts {
		ctx.allowedHosts.add(h)
	}
	return p.derive(ctx, p.build)
}

// deriveError returns a Pipeline whose build always fails with err, used by
// operators that reject their arguments up front (spec §7: "Invalid
// operator arguments" are stream-fatal).
func (p *Pipeline) deriveError(err error) *Pipeline {
	build := func(self *Pipeline) Stream {
		return streamFunc(func(ctx context.Context) (any, bool, error) {
			return nil, false, err
		})
	}
	return p.derive(p.ctx.clone(), build)
}
