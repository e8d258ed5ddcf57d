// Package race runs independent attempts concurrently and keeps the first valid outcome.
package race

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/reel-cli/reel/playback"
)

// Attempt is one independent unit of work. It must return promptly once ctx is cancelled.
type Attempt[T any] func(ctx context.Context) (T, error)

// ErrInvalid is recorded for an attempt that succeeded with a value rejected by the validator.
var ErrInvalid = fmt.Errorf("%w: attempt returned an invalid result", playback.ErrInvalidURL)

type outcome[T any] struct {
	index int
	value T
	err   error
}

// First starts every attempt at once and returns the first value accepted by valid, in
// completion order. The winner cancels the context shared by the others; they are not
// waited for. Failed or invalid attempts do not block the race.
//
// When every attempt fails the error wraps playback.ErrAllResolversFailed and each
// attempt's error. With no attempts it is playback.ErrNoResolverAvailable.
func First[T any](ctx context.Context, attempts []Attempt[T], valid func(T) bool) (T, error) {
	var zero T
	if len(attempts) == 0 {
		return zero, playback.ErrNoResolverAvailable
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan outcome[T], len(attempts))
	var wg sync.WaitGroup

	for i, attempt := range attempts {
		wg.Add(1)
		go func(i int, attempt Attempt[T]) {
			defer wg.Done()
			value, err := attempt(ctx)
			results <- outcome[T]{index: i, value: value, err: err}
		}(i, attempt)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var errs *multierror.Error
	for {
		select {
		case res, ok := <-results:
			if !ok {
				return zero, fmt.Errorf("%w: %w", playback.ErrAllResolversFailed, errs.ErrorOrNil())
			}

			switch {
			case res.err != nil:
				errs = multierror.Append(errs, fmt.Errorf("attempt %d: %w", res.index, res.err))
			case valid != nil && !valid(res.value):
				errs = multierror.Append(errs, fmt.Errorf("attempt %d: %w", res.index, ErrInvalid))
			default:
				return res.value, nil
			}
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}
