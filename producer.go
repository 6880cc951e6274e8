package koffetch

import (
	"context"
	"net/url"
	"strconv"
)

// newPagedStream returns a Stream that lazily turns (base, chunk_size,
// sheet) into an unbounded-feeling sequence of Entries, issuing
// offset/limit requests against base as the stream is consumed (spec
// §4.G). Pagination is strictly sequential: no page k+1 is requested until
// page k has been fully decoded, and the loop breaks before the next
// request if ctx is cancelled.
func newPagedStream(base *url.URL, pctx *Context) Stream {
	offset := 0
	done := false
	var buffered []Entry
	total := 0
	haveTotal := false

	fetchPage := func(ctx context.Context) error {
		target := appendPageQuery(base, offset, pctx.ChunkSize, pctx.SheetName)

		pctx.Logger.Debugw("fetching page", map[string]interface{}{
			"url":    target,
			"offset": offset,
		})

		body, meta, err := pctx.HTTPClient.Fetch(ctx, target, pctx.CachePolicy)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if kerr, ok := err.(*Error); ok {
				return kerr
			}
			return networkError(err)
		}

		if !meta.Successful() {
			return invalidResponseError(httpStatusMessage(meta.StatusCode))
		}

		entries, respTotal, _, _, derr := decodeEnvelope([]byte(body))
		if derr != nil {
			return derr
		}

		total = respTotal
		haveTotal = true
		buffered = entries

		if len(entries) == 0 || offset+pctx.ChunkSize >= total {
			done = true
		} else {
			offset += pctx.ChunkSize
		}

		return nil
	}

	var idx int

	return streamFunc(func(ctx context.Context) (any, bool, error) {
		for {
			if err := ctx.Err(); err != nil {
				return nil, false, err
			}

			if idx < len(buffered) {
				e := buffered[idx]
				idx++
				return e, true, nil
			}

			if done && haveTotal {
				return nil, false, nil
			}

			idx = 0
			buffered = nil
			if err := fetchPage(ctx); err != nil {
				return nil, false, err
			}
		}
	})
}

func httpStatusMessage(code int) string {
	return "unexpected HTTP status " + strconv.Itoa(code)
}
