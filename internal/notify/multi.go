package notify

import (
	"context"
	"errors"
)

// MultiSink delivers to every sink concurrently. The first action reported
// by any sink wins and the rest are cancelled.
type MultiSink []Sink

type sinkResult struct {
	action string
	err    error
}

// Notify implements Sink. It fails only if every sink fails.
func (m MultiSink) Notify(ctx context.Context, n Notification) (string, error) {
	if len(m) == 0 {
		return "", nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan sinkResult, len(m))
	for _, s := range m {
		go func(s Sink) {
			action, err := s.Notify(ctx, n)
			results <- sinkResult{action: action, err: err}
		}(s)
	}

	var errs []error
	for range m {
		r := <-results
		if r.err != nil {
			if ctx.Err() == nil {
				errs = append(errs, r.err)
			}
			continue
		}
		if r.action != "" {
			return r.action, nil
		}
	}

	if len(errs) == len(m) {
		return "", errors.Join(errs...)
	}
	return "", nil
}
