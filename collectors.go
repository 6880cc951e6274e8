package koffetch

import "context"

// First returns the first emitted element, or nil if the stream is empty.
// The stream is stopped after the first value is pulled (spec §4.K).
func (p *Pipeline) First(ctx context.Context) (any, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s := p.run(ctx)
	v, ok, err := s.Next(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return v, nil
}

// All collects every emitted element into an ordered slice.
func (p *Pipeline) All(ctx context.Context) ([]any, error) {
	s := p.run(ctx)
	var out []any
	for {
		v, ok, err := s.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

// AllEntries is a typed convenience wrapper over All for pipelines that
// have not been Map'd away from Entry.
func (p *Pipeline) AllEntries(ctx context.Context) ([]Entry, error) {
	vs, err := p.All(ctx)
	entries := make([]Entry, 0, len(vs))
	for _, v := range vs {
		if e, ok := v.(Entry); ok {
			entries = append(entries, e)
		}
	}
	return entries, err
}

// Count consumes the stream fully and returns the number of elements
// emitted.
func (p *Pipeline) Count(ctx context.Context) (int, error) {
	s := p.run(ctx)
	n := 0
	for {
		_, ok, err := s.Next(ctx)
		if err != nil {
			return n, err
		}
		if !ok {
			return n, nil
		}
		n++
	}
}

// ForEach drives the stream to completion, invoking action for every
// emitted element. It returns as soon as the stream ends or action/the
// stream reports an error.
func (p *Pipeline) ForEach(ctx context.Context, action func(any) error) error {
	s := p.run(ctx)
	for {
		v, ok, err := s.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := action(v); err != nil {
			return operationFailedError("for_each callback failed", err)
		}
	}
}
