// Package aggregate composes dashboard view models out of independent
// document reads. Every operation either returns a complete result or an
// error; partial results are never returned.
package aggregate

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/limbsorthopaedic/clinic-backend/internal/catalog"
	"github.com/limbsorthopaedic/clinic-backend/internal/docstore"
)

const tracerName = "clinic-backend/aggregate"

const defaultConcurrency = 16

type Aggregator struct {
	store       docstore.Store
	catalog     *catalog.Catalog
	loc         *time.Location
	now         func() time.Time
	concurrency int64
}

type Option func(*Aggregator)

// WithClock overrides the source of "now" used for today's counts.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithLocation sets the clinic time zone used to interpret calendar dates.
func WithLocation(loc *time.Location) Option {
	return func(a *Aggregator) {
		if loc != nil {
			a.loc = loc
		}
	}
}

// WithConcurrency bounds per-identity fan-out reads.
func WithConcurrency(n int64) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

func New(store docstore.Store, cat *catalog.Catalog, opts ...Option) *Aggregator {
	if cat == nil {
		cat = catalog.Default()
	}
	a := &Aggregator{
		store:       store,
		catalog:     cat,
		loc:         time.UTC,
		now:         time.Now,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Aggregator) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name)
}

// fanOut runs fn for every index in [0, n) with bounded concurrency and
// waits for all of them. The first error cancels the rest.
func (a *Aggregator) fanOut(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	eg, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(a.concurrency)

	for i := 0; i < n; i++ {
		if err := sem.Acquire(gctx, 1); err != nil {
			// Only fails once gctx is done; Wait or ctx reports the cause.
			break
		}
		i := i
		eg.Go(func() error {
			defer sem.Release(1)
			return fn(gctx, i)
		})
	}

	if err := eg.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func queryError(what string, err error) error {
	return fmt.Errorf("while reading %s: %w", what, err)
}
