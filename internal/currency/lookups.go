package currency

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// ResultFunc receives the outcome of an asynchronous conversion.
type ResultFunc func(ctx context.Context, m Mention, converted float64, err error)

// Lookups runs conversions on a bounded set of goroutines, each with its own
// deadline, so a slow search page never blocks the update that asked for it
// or any other update.
type Lookups struct {
	converter *Converter
	sem       *semaphore.Weighted
	timeout   time.Duration
	wg        sync.WaitGroup
	log       *slog.Logger
}

// NewLookups returns a pool running at most workers conversions at once.
func NewLookups(converter *Converter, workers int, timeout time.Duration, log *slog.Logger) *Lookups {
	if workers < 1 {
		workers = 1
	}
	return &Lookups{
		converter: converter,
		sem:       semaphore.NewWeighted(int64(workers)),
		timeout:   timeout,
		log:       log.With("component", "currency_lookups"),
	}
}

// Go converts m in the background and calls done with the result.
// It returns immediately.
func (l *Lookups) Go(ctx context.Context, m Mention, done ResultFunc) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()

		if err := l.sem.Acquire(ctx, 1); err != nil {
			done(ctx, m, 0, fmt.Errorf("waiting for a lookup slot: %w", err))
			return
		}
		defer l.sem.Release(1)

		lookupCtx := ctx
		if l.timeout > 0 {
			var cancel context.CancelFunc
			lookupCtx, cancel = context.WithTimeout(ctx, l.timeout)
			defer cancel()
		}

		converted, err := l.converter.Convert(lookupCtx, m.Code, m.Amount)
		done(ctx, m, converted, err)
	}()
}

// Wait blocks until every started conversion has reported.
func (l *Lookups) Wait() {
	l.wg.Wait()
}
