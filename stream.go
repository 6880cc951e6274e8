package koffetch

import "context"

// Stream is the lazy pull-based iterator the whole operator chain is built
// from (spec §9: "model the stream as a pull-based async iterator"). Next
// returns the next element, or ok == false when the stream is exhausted. A
// non-nil err is stream-fatal (spec §7) and terminates iteration; the
// caller must stop calling Next after the first error.
type Stream interface {
	Next(ctx context.Context) (elem any, ok bool, err error)
}

// streamFunc adapts a plain function to the Stream interface.
type streamFunc func(ctx context.Context) (any, bool, error)

// Next implements Stream.
func (f streamFunc) Next(ctx context.Context) (any, bool, error) {
	return f(ctx)
}

// emptyStream is a Stream with no elements.
var emptyStream Stream = streamFunc(func(ctx context.Context) (any, bool, error) {
	return nil, false, nil
})

// sliceStream returns a Stream that yields the elements of xs in order,
// useful for tests and for in-memory Pipelines built from known data.
func sliceStream(xs []any) Stream {
	i := 0
	return streamFunc(func(ctx context.Context) (any, bool, error) {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		if i >= len(xs) {
			return nil, false, nil
		}
		v := xs[i]
		i++
		return v, true, nil
	})
}
