package collector

import (
	"context"

	"github.com/go-tangra/go-tangra-remote-admin/internal/collection"
)

// Collector gathers records from one host into coll. Implementations absorb
// their own per-host faults: they append a sentinel record or hand the fault
// to a Reporter, and never panic or abort other hosts.
type Collector[T any] interface {
	Collect(ctx context.Context, host string, coll *collection.Collection[T])
}

// Func adapts a plain function to Collector.
type Func[T any] func(ctx context.Context, host string, coll *collection.Collection[T])

func (f Func[T]) Collect(ctx context.Context, host string, coll *collection.Collection[T]) {
	f(ctx, host, coll)
}

// Reporter receives per-host faults that produced no record. It is called
// from worker goroutines.
type Reporter interface {
	Report(host string, err error)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(host string, err error)

func (f ReporterFunc) Report(host string, err error) { f(host, err) }

func report(r Reporter, host string, err error) {
	if r != nil && err != nil {
		r.Report(host, err)
	}
}
