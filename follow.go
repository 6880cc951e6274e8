package koffetch

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// FollowOption customizes a Follow operator call.
type FollowOption func(*followConfig)

type followConfig struct {
	srcField string
	dstField string
}

// WithDestField overrides the destination field name (default: the same
// name as the source field).
func WithDestField(name string) FollowOption {
	return func(c *followConfig) { c.dstField = name }
}

// Follow enriches each Entry by reading the string field srcField,
// resolving it against the Pipeline's base URL, checking the host
// allow-list, fetching the body, parsing it, and attaching the result under
// dstField (default srcField) — or a per-entry error string under
// "<dstField>_error" (spec §4.J). Up to Context.MaxConcurrency fetches run
// concurrently; output order always matches input order.
func (p *Pipeline) Follow(srcField string, opts ...FollowOption) *Pipeline {
	cfg := followConfig{srcField: srcField, dstField: srcField}
	for _, o := range opts {
		o(&cfg)
	}

	upstream := p.build
	base := p.baseURL

	build := func(self *Pipeline) Stream {
		return newFollowStream(upstream(self), cfg, self.ctx, base)
	}
	return p.derive(p.ctx.clone(), build)
}

// followResult is what one in-flight follow job produces: either an
// enriched Entry, or a stream-fatal err propagated from upstream (decoding,
// network, or cancellation), never both.
type followResult struct {
	entry Entry
	err   error
}

// newFollowStream wraps upstream with bounded-concurrency, order-preserving
// document following (spec §4.J, §5). A single dispatcher goroutine pulls
// entries from upstream sequentially and, for each one, acquires a
// semaphore slot bounded by Context.MaxConcurrency before spawning a worker
// goroutine to do the actual fetch+parse; an ordered queue of per-job result
// channels lets the consumer read results in input order even though
// workers may finish out of order.
func newFollowStream(upstream Stream, cfg followConfig, pctx *Context, base *url.URL) Stream {
	maxConcurrency := pctx.MaxConcurrency
	if maxConcurrency < 1 {
		maxConcurrency = DefaultMaxConcurrency
	}

	var limiter *rate.Limiter
	if pctx.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(pctx.RateLimit), 1)
	}

	var once sync.Once
	order := make(chan chan followResult, maxConcurrency)

	start := func(ctx context.Context) {
		sem := make(chan struct{}, maxConcurrency)

		go func() {
			defer close(order)
			for {
				v, ok, err := upstream.Next(ctx)
				if err != nil {
					out := make(chan followResult, 1)
					out <- followResult{err: err}
					order <- out
					return
				}
				if !ok {
					return
				}

				entry, isEntry := v.(Entry)
				if !isEntry {
					out := make(chan followResult, 1)
					out <- followResult{err: operationFailedError("follow requires Entry elements", nil)}
					order <- out
					return
				}

				select {
				case sem <- struct{}{}:
				case <-ctx.Done():
					return
				}

				out := make(chan followResult, 1)
				select {
				case order <- out:
				case <-ctx.Done():
					<-sem
					return
				}

				go func(e Entry, resCh chan followResult) {
					defer func() { <-sem }()
					resCh <- followOne(ctx, e, cfg, pctx, base, limiter)
				}(entry, out)
			}
		}()
	}

	return streamFunc(func(ctx context.Context) (any, bool, error) {
		once.Do(func() { start(ctx) })

		if err := ctx.Err(); err != nil {
			return nil, false, err
		}

		resCh, ok := <-order
		if !ok {
			return nil, false, nil
		}

		res := <-resCh
		if res.err != nil {
			return nil, false, res.err
		}
		return res.entry, true, nil
	})
}

// followOne resolves and fetches a single entry's document. Per-entry
// failures are recorded as a field on the returned Entry (spec §4.J/§7);
// the only stream-fatal outcome it returns is ctx's error once ctx has been
// cancelled.
func followOne(ctx context.Context, e Entry, cfg followConfig, pctx *Context, base *url.URL, limiter *rate.Limiter) followResult {
	raw, ok := e.String(cfg.srcField)
	if !ok {
		return followResult{entry: attachFollowError(e, cfg.dstField, "Missing or invalid URL")}
	}

	resolved, ok := resolveFollowURL(base, raw)
	if !ok {
		return followResult{entry: attachFollowError(e, cfg.dstField, fmt.Sprintf("Could not resolve URL: %s", raw))}
	}

	if !pctx.allowedHosts.allows(resolved) {
		msg := fmt.Sprintf(
			"Host '%s' is not allowed for document following. Use allow() to permit additional hostnames.",
			resolved.Hostname(),
		)
		return followResult{entry: attachFollowError(e, cfg.dstField, msg)}
	}

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return followResult{err: ctx.Err()}
		}
	}

	body, meta, err := pctx.HTTPClient.Fetch(ctx, resolved.String(), pctx.CachePolicy)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return followResult{err: ctxErr}
		}
		pctx.Logger.Warnw("follow fetch failed", map[string]interface{}{"url": resolved.String(), "error": err.Error()})
		if kerr, ok := err.(*Error); ok && kerr.Kind == KindDocumentNotFound {
			return followResult{entry: attachFollowError(e, cfg.dstField, "Document not found")}
		}
		return followResult{entry: attachFollowError(e, cfg.dstField, fmt.Sprintf("Network error: %s", causeMessage(err)))}
	}

	if !meta.Successful() {
		return followResult{entry: attachFollowError(e, cfg.dstField, fmt.Sprintf("HTTP error %d", meta.StatusCode))}
	}

	doc, err := pctx.HTMLParser.Parse(body)
	if err != nil {
		return followResult{entry: attachFollowError(e, cfg.dstField, fmt.Sprintf("HTML parsing error: %s", causeMessage(err)))}
	}

	out := e.Clone()
	out[cfg.dstField] = DocumentValue{Handle: doc}
	delete(out, cfg.dstField+"_error")
	return followResult{entry: out}
}

// attachFollowError returns a copy of e with dstField nulled out and
// "<dstField>_error" set to msg (spec §4.J/§7: per-entry errors, stream
// continues).
func attachFollowError(e Entry, dstField, msg string) Entry {
	out := e.Clone()
	out[dstField] = NullValue{}
	out[dstField+"_error"] = StringValue(msg)
	return out
}

// causeMessage extracts a short message from err, unwrapping *Error to its
// cause when present.
func causeMessage(err error) string {
	if kerr, ok := err.(*Error); ok {
		if kerr.Cause != nil {
			return kerr.Cause.Error()
		}
		if kerr.Message != "" {
			return kerr.Message
		}
	}
	return err.Error()
}
